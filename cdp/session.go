// Package cdp drives a Chromium page over the DevTools protocol.
package cdp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/tidwall/gjson"

	"github.com/liuxd6825/extdriver/api"
	"github.com/liuxd6825/extdriver/log"
)

// maxDepth bounds how deep nested arrays are walked when converting results.
const maxDepth = 16

var _ api.SessionCloser = &Session{}

// Session evaluates scripts in the page behind a Connection.
type Session struct {
	conn   *Connection
	logger *log.Logger
}

// Connect attaches to a page. endpoint is either the page WebSocket URL
// (ws:// or wss://) or the HTTP address of the browser's DevTools server,
// in which case the first page target listed there is used.
func Connect(ctx context.Context, endpoint string, logger *log.Logger) (*Session, error) {
	wsURL := endpoint
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		var err error
		if wsURL, err = discoverPage(ctx, endpoint); err != nil {
			return nil, err
		}
	}

	logger.Debugf("cdp", "connecting to %s", wsURL)
	conn, err := NewConnection(ctx, wsURL, logger)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", wsURL, err)
	}
	return &Session{conn: conn, logger: logger}, nil
}

// discoverPage returns the WebSocket URL of the first page target listed by
// the DevTools server at baseURL.
func discoverPage(ctx context.Context, baseURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(baseURL, "/")+"/json/list", nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("listing targets: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("listing targets: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("listing targets: unexpected status %s", resp.Status)
	}

	page := gjson.GetBytes(body, `#(type=="page").webSocketDebuggerUrl`)
	if !page.Exists() {
		return "", fmt.Errorf("no page target listed at %s", baseURL)
	}
	return page.String(), nil
}

// ExecuteScript runs script as the body of a function called with args.
// Element arguments must be *Element values of this session.
func (s *Session) ExecuteScript(ctx context.Context, script string, args ...any) (any, error) {
	ctx = cdp.WithExecutor(ctx, s.conn)

	global, exc, err := cdpruntime.Evaluate("globalThis").Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving global object: %w", err)
	}
	if exc != nil {
		return nil, scriptError(exc)
	}

	callArgs, err := s.callArguments(args)
	if err != nil {
		return nil, err
	}

	res, exc, err := cdpruntime.CallFunctionOn("function() {\n" + script + "\n}").
		WithObjectID(global.ObjectID).
		WithArguments(callArgs).
		WithAwaitPromise(true).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if exc != nil {
		return nil, scriptError(exc)
	}
	return s.convert(ctx, res, 0)
}

func (s *Session) callArguments(args []any) ([]*cdpruntime.CallArgument, error) {
	out := make([]*cdpruntime.CallArgument, 0, len(args))
	for i, arg := range args {
		if el, ok := arg.(*Element); ok {
			if el.session != s {
				return nil, fmt.Errorf("argument %d: element belongs to another session", i)
			}
			out = append(out, &cdpruntime.CallArgument{ObjectID: el.objectID})
			continue
		}
		buf, err := json.Marshal(arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		out = append(out, &cdpruntime.CallArgument{Value: buf})
	}
	return out, nil
}

//nolint:cyclop
func (s *Session) convert(ctx context.Context, obj *cdpruntime.RemoteObject, depth int) (any, error) {
	if obj == nil {
		return nil, nil
	}
	switch obj.Type {
	case cdpruntime.TypeUndefined:
		return nil, nil
	case cdpruntime.TypeNumber:
		if obj.UnserializableValue != "" {
			return unserializableNumber(obj.UnserializableValue), nil
		}
	case cdpruntime.TypeBoolean, cdpruntime.TypeString:
	case cdpruntime.TypeObject:
		switch obj.Subtype {
		case cdpruntime.SubtypeNull:
			return nil, nil
		case cdpruntime.SubtypeNode:
			return &Element{session: s, objectID: obj.ObjectID}, nil
		case cdpruntime.SubtypeArray:
			if depth >= maxDepth {
				return nil, fmt.Errorf("result nested deeper than %d arrays", maxDepth)
			}
			return s.convertArray(ctx, obj, depth)
		}
		return s.byValue(ctx, obj)
	default:
		return nil, fmt.Errorf("unsupported result type %q", obj.Type)
	}

	var v any
	if err := json.Unmarshal(obj.Value, &v); err != nil {
		return nil, fmt.Errorf("decoding %s result: %w", obj.Type, err)
	}
	return v, nil
}

func (s *Session) convertArray(ctx context.Context, obj *cdpruntime.RemoteObject, depth int) (any, error) {
	props, _, _, exc, err := cdpruntime.GetProperties(obj.ObjectID).WithOwnProperties(true).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading array: %w", err)
	}
	if exc != nil {
		return nil, scriptError(exc)
	}

	type item struct {
		index int
		value *cdpruntime.RemoteObject
	}
	items := make([]item, 0, len(props))
	for _, p := range props {
		i, err := strconv.Atoi(p.Name)
		if err != nil || p.Value == nil {
			continue
		}
		items = append(items, item{i, p.Value})
	}
	sort.Slice(items, func(a, b int) bool { return items[a].index < items[b].index })

	out := make([]any, len(items))
	for i, it := range items {
		v, err := s.convert(ctx, it.value, depth+1)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// byValue serializes a plain object in the page and decodes it.
func (s *Session) byValue(ctx context.Context, obj *cdpruntime.RemoteObject) (any, error) {
	res, exc, err := cdpruntime.CallFunctionOn("function() { return this; }").
		WithObjectID(obj.ObjectID).
		WithReturnByValue(true).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("serializing %s: %w", obj.Description, err)
	}
	if exc != nil {
		return nil, scriptError(exc)
	}
	var v any
	if err := json.Unmarshal(res.Value, &v); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", obj.Description, err)
	}
	return v, nil
}

func unserializableNumber(v cdpruntime.UnserializableValue) float64 {
	switch v {
	case "Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	case "-0":
		return math.Copysign(0, -1)
	}
	return math.NaN()
}

func scriptError(exc *cdpruntime.ExceptionDetails) *api.ScriptError {
	msg := exc.Text
	if exc.Exception != nil && exc.Exception.Description != "" {
		msg = exc.Exception.Description
		if i := strings.IndexByte(msg, '\n'); i >= 0 {
			msg = msg[:i]
		}
	}

	var stack strings.Builder
	if exc.StackTrace != nil {
		for _, f := range exc.StackTrace.CallFrames {
			name := f.FunctionName
			if name == "" {
				name = "<anonymous>"
			}
			fmt.Fprintf(&stack, "\tat %s (%s:%d:%d)\n", name, f.URL, f.LineNumber+1, f.ColumnNumber+1)
		}
	}
	return &api.ScriptError{Message: msg, Stack: stack.String()}
}

// Close closes the connection to the page.
func (s *Session) Close() error {
	return s.conn.Close()
}
