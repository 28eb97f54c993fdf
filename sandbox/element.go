package sandbox

import (
	"context"

	"github.com/dop251/goja"

	"github.com/liuxd6825/extdriver/api"
)

// Element is an element handed out to Go by a page script through the
// native __element(id) function.
type Element struct {
	page *Page
	id   string
}

var _ api.ElementHandle = &Element{}

// ID implements api.ElementHandle.
func (e *Element) ID() string {
	return e.id
}

// Click records the click and passes the element id to the page's
// __onClick function, if there is one.
func (e *Element) Click(ctx context.Context) error {
	return e.page.run(ctx, func(vm *goja.Runtime) error {
		e.page.mu.Lock()
		e.page.clicks = append(e.page.clicks, e.id)
		e.page.mu.Unlock()

		hook, ok := goja.AssertFunction(vm.Get("__onClick"))
		if !ok {
			return nil
		}
		_, err := hook(goja.Undefined(), vm.ToValue(e.id))
		return scriptError(err)
	})
}
