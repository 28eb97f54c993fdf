// Package sandbox runs page scripts in an embedded JavaScript runtime and
// exposes the result as an api.Session. It needs no browser, which makes it
// the session of choice for tests and offline dry runs of page models.
package sandbox

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"

	"github.com/liuxd6825/extdriver/api"
	"github.com/liuxd6825/extdriver/log"
)

// ExtStub is a small component framework offering the parts of the Ext JS
// API that the helper scripts use.
//
//go:embed ext.js
var ExtStub string

const (
	maxExportDepth = 16
	// Longest array a script result may hold.
	maxExportItems = 1 << 16
)

// ErrClosed is returned by calls on a closed Page.
var ErrClosed = errors.New("sandbox page is closed")

// Page is an in-process page. Scripts run on the goroutine of an event loop,
// so timers set by page scripts fire between calls.
type Page struct {
	loop   *eventloop.EventLoop
	logger *log.Logger

	mu     sync.Mutex
	closed bool
	clicks []string

	// Only touched on the loop goroutine.
	handles map[*goja.Object]*Element
	objects map[string]*goja.Object
}

var _ api.SessionCloser = &Page{}

// New starts an empty page.
func New(logger *log.Logger) *Page {
	p := &Page{
		loop:    eventloop.NewEventLoop(eventloop.EnableConsole(false)),
		logger:  logger,
		handles: make(map[*goja.Object]*Element),
		objects: make(map[string]*goja.Object),
	}
	p.loop.Start()
	p.loop.RunOnLoop(func(vm *goja.Runtime) {
		_ = vm.Set("__element", func(call goja.FunctionCall) goja.Value {
			return p.element(vm, call.Argument(0).String())
		})
	})

	return p
}

// NewExtPage starts a page with ExtStub and the given page scripts loaded.
func NewExtPage(ctx context.Context, logger *log.Logger, scripts ...string) (*Page, error) {
	p := New(logger)
	for _, src := range append([]string{ExtStub}, scripts...) {
		if err := p.Load(ctx, src); err != nil {
			_ = p.Close()
			return nil, err
		}
	}
	return p, nil
}

// Load runs src as a global script.
func (p *Page) Load(ctx context.Context, src string) error {
	return p.run(ctx, func(vm *goja.Runtime) error {
		_, err := vm.RunString(src)
		return scriptError(err)
	})
}

// ExecuteScript implements api.Session. args are passed through JSON.
func (p *Page) ExecuteScript(ctx context.Context, script string, args ...any) (any, error) {
	if args == nil {
		args = []any{}
	}
	argv, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("encoding script arguments: %w", err)
	}

	var result any
	err = p.run(ctx, func(vm *goja.Runtime) error {
		v, err := vm.RunString("(function() {\n" + script + "\n}).apply(undefined, " + string(argv) + ")")
		if err != nil {
			return scriptError(err)
		}
		result, err = p.export(v, 0)
		return err
	})
	if err != nil {
		return nil, err
	}

	p.logger.Tracef("sandbox", "script returned %T", result)
	return result, nil
}

// Clicks returns the ids of the clicked elements in click order.
func (p *Page) Clicks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]string(nil), p.clicks...)
}

// Close stops the event loop. Pending timers are dropped.
func (p *Page) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	p.loop.Stop()
	return nil
}

func (p *Page) run(ctx context.Context, fn func(vm *goja.Runtime) error) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrClosed
	}

	errCh := make(chan error, 1)
	if !p.loop.RunOnLoop(func(vm *goja.Runtime) {
		errCh <- fn(vm)
	}) {
		return ErrClosed
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// element returns the unique JS object standing for the element id.
func (p *Page) element(vm *goja.Runtime, id string) *goja.Object {
	if obj, ok := p.objects[id]; ok {
		return obj
	}

	obj := vm.NewObject()
	_ = obj.Set("id", id)
	_ = obj.Set("querySelector", func(call goja.FunctionCall) goja.Value {
		return p.element(vm, id+" "+call.Argument(0).String())
	})
	p.objects[id] = obj
	p.handles[obj] = &Element{page: p, id: id}

	return obj
}

func (p *Page) export(v goja.Value, depth int) (any, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	if depth > maxExportDepth {
		return nil, errors.New("script result is nested too deeply")
	}

	obj, ok := v.(*goja.Object)
	if !ok {
		switch x := v.Export().(type) {
		case int64:
			return float64(x), nil
		case bool, float64, string:
			return x, nil
		default:
			return nil, fmt.Errorf("unsupported script result of type %T", x)
		}
	}

	if el, ok := p.handles[obj]; ok {
		return el, nil
	}
	if _, isFunc := goja.AssertFunction(obj); isFunc {
		return nil, nil
	}

	if obj.ClassName() == "Array" {
		n := obj.Get("length").ToInteger()
		if n > maxExportItems {
			return nil, fmt.Errorf("script result holds %d items, more than %d", n, maxExportItems)
		}
		items := make([]any, 0, max(n, 0))
		for i := int64(0); i < n; i++ {
			item, err := p.export(obj.Get(strconv.FormatInt(i, 10)), depth+1)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return items, nil
	}

	fields := make(map[string]any)
	for _, k := range obj.Keys() {
		field, err := p.export(obj.Get(k), depth+1)
		if err != nil {
			return nil, err
		}
		fields[k] = field
	}
	return fields, nil
}

func scriptError(err error) error {
	if err == nil {
		return nil
	}
	var ex *goja.Exception
	if errors.As(err, &ex) {
		return &api.ScriptError{Message: ex.Value().String(), Stack: ex.String()}
	}
	return &api.ScriptError{Message: err.Error()}
}
