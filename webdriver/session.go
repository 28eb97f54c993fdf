// Package webdriver drives a page through a WebDriver (Selenium, chromedriver,
// geckodriver) remote end.
package webdriver

import (
	"context"
	"errors"
	"fmt"

	"github.com/tebeka/selenium"
	"github.com/tidwall/gjson"

	"github.com/liuxd6825/extdriver/api"
	"github.com/liuxd6825/extdriver/log"
)

// Keys of a serialized element reference.
const (
	w3cElementKey    = "element-6066-11e4-a52e-4f735466cecf"
	legacyElementKey = "ELEMENT"
)

const maxDepth = 16

var _ api.SessionCloser = &Session{}

// Session evaluates scripts through a WebDriver session.
type Session struct {
	wd     selenium.WebDriver
	logger *log.Logger
}

// Connect starts a new WebDriver session for browser on the remote end at
// urlPrefix, e.g. http://localhost:4444/wd/hub.
func Connect(ctx context.Context, urlPrefix, browser string, logger *log.Logger) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger.Debugf("webdriver", "starting %s session on %s", browser, urlPrefix)
	wd, err := selenium.NewRemote(selenium.Capabilities{"browserName": browser}, urlPrefix)
	if err != nil {
		return nil, fmt.Errorf("starting webdriver session on %s: %w", urlPrefix, err)
	}
	return New(wd, logger), nil
}

// New wraps an existing WebDriver session.
func New(wd selenium.WebDriver, logger *log.Logger) *Session {
	return &Session{wd: wd, logger: logger}
}

// ExecuteScript runs script synchronously in the current browsing context.
// The remote end cannot be interrupted, so ctx is only checked before the
// script is sent.
func (s *Session) ExecuteScript(ctx context.Context, script string, args ...any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wdArgs := make([]any, len(args))
	for i, arg := range args {
		if el, ok := arg.(*Element); ok {
			wdArgs[i] = el.we
			continue
		}
		wdArgs[i] = arg
	}

	raw, err := s.wd.ExecuteScriptRaw(script, wdArgs)
	if err != nil {
		return nil, scriptError(err)
	}
	return s.convert(gjson.GetBytes(raw, "value"), 0)
}

func (s *Session) convert(v gjson.Result, depth int) (any, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("result nested deeper than %d levels", maxDepth)
	}

	switch {
	case !v.Exists(), v.Type == gjson.Null:
		return nil, nil
	case v.IsArray():
		out := []any{}
		var err error
		v.ForEach(func(_, item gjson.Result) bool {
			var conv any
			conv, err = s.convert(item, depth+1)
			out = append(out, conv)
			return err == nil
		})
		return out, err
	case v.IsObject():
		if ref := elementRef(v); ref != "" {
			return s.element(v.Raw, ref)
		}
		out := map[string]any{}
		var err error
		v.ForEach(func(key, item gjson.Result) bool {
			var conv any
			conv, err = s.convert(item, depth+1)
			out[key.String()] = conv
			return err == nil
		})
		return out, err
	}
	return v.Value(), nil
}

func (s *Session) element(raw, ref string) (*Element, error) {
	we, err := s.wd.DecodeElement([]byte(`{"value":` + raw + `}`))
	if err != nil {
		return nil, fmt.Errorf("decoding element %s: %w", ref, err)
	}
	return &Element{we: we, id: ref}, nil
}

func elementRef(v gjson.Result) string {
	if ref := v.Get(w3cElementKey); ref.Exists() {
		return ref.String()
	}
	return v.Get(legacyElementKey).String()
}

func scriptError(err error) error {
	var werr *selenium.Error
	if errors.As(err, &werr) && werr.Err == "javascript error" {
		return &api.ScriptError{Message: werr.Message, Stack: werr.Stacktrace}
	}
	return err
}

// Close ends the WebDriver session.
func (s *Session) Close() error {
	return s.wd.Quit()
}

// Element is a web element reference.
type Element struct {
	we selenium.WebElement
	id string
}

var _ api.ElementHandle = &Element{}

// ID returns the WebDriver element reference.
func (e *Element) ID() string {
	return e.id
}

// Click clicks the element through the remote end.
func (e *Element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.we.Click()
}
