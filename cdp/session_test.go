package cdp

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liuxd6825/extdriver/api"
	"github.com/liuxd6825/extdriver/log"
)

func connect(t *testing.T, endpoint string) *Session {
	t.Helper()

	s, err := Connect(context.Background(), endpoint, log.NewNullLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSessionExecuteScript(t *testing.T) {
	t.Parallel()

	fb := newFakeBrowser(t, page)
	s := connect(t, fb.PageURL())
	ctx := context.Background()

	tests := []struct {
		name   string
		script string
		args   []any
		want   any
	}{
		{name: "undefined", script: "return;", want: nil},
		{name: "null", script: "return null;", want: nil},
		{name: "bool", script: "return true;", want: true},
		{name: "string", script: "return 'text';", want: "text"},
		{name: "args", script: "return arguments[0] + 1;", args: []any{41}, want: float64(42)},
		{name: "object", script: "return obj;", want: map[string]any{"a": float64(1), "b": []any{"x"}}},
	}
	for _, tt := range tests {
		v, err := s.ExecuteScript(ctx, tt.script, tt.args...)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, v, tt.name)
	}

	call := fb.last("Runtime.callFunctionOn")
	assert.Equal(t, "o1", call.Get("objectId").String())
	assert.True(t, call.Get("returnByValue").Bool())

	v, err := s.ExecuteScript(ctx, "return NaN;")
	require.NoError(t, err)
	require.IsType(t, float64(0), v)
	assert.True(t, math.IsNaN(v.(float64))) //nolint:forcetypeassert
	assert.Equal(t, "global", fb.last("Runtime.callFunctionOn").Get("objectId").String())
}

func TestSessionElements(t *testing.T) {
	t.Parallel()

	fb := newFakeBrowser(t, page)
	s := connect(t, fb.PageURL())
	ctx := context.Background()

	v, err := s.ExecuteScript(ctx, "return nodes;")
	require.NoError(t, err)
	els, ok := v.([]any)
	require.True(t, ok)
	require.Len(t, els, 2)
	assert.Equal(t, "n1", els[0].(api.ElementHandle).ID()) //nolint:forcetypeassert
	assert.Equal(t, "n2", els[1].(api.ElementHandle).ID()) //nolint:forcetypeassert

	v, err = s.ExecuteScript(ctx, "return node;")
	require.NoError(t, err)
	el, ok := v.(*Element)
	require.True(t, ok)

	_, err = s.ExecuteScript(ctx, "return arguments[0] + 1;", el)
	require.NoError(t, err)
	assert.Equal(t, "n1", fb.last("Runtime.callFunctionOn").Get("arguments.0.objectId").String())

	require.NoError(t, el.Click(ctx))
	methods := fb.methods()
	require.GreaterOrEqual(t, len(methods), 4)
	assert.Equal(t, []string{
		"DOM.scrollIntoViewIfNeeded",
		"DOM.getContentQuads",
		"Input.dispatchMouseEvent",
		"Input.dispatchMouseEvent",
	}, methods[len(methods)-4:])
	assert.Equal(t, "n1", fb.last("DOM.scrollIntoViewIfNeeded").Get("objectId").String())
	release := fb.last("Input.dispatchMouseEvent")
	assert.Equal(t, "mouseReleased", release.Get("type").String())
	assert.Equal(t, "left", release.Get("button").String())
	assert.InDelta(t, 20, release.Get("x").Float(), 0.001)
	assert.InDelta(t, 30, release.Get("y").Float(), 0.001)

	other := &Element{session: &Session{}, objectID: "n9"}
	_, err = s.ExecuteScript(ctx, "return;", other)
	assert.ErrorContains(t, err, "another session")
}

func TestSessionScriptError(t *testing.T) {
	t.Parallel()

	fb := newFakeBrowser(t, page)
	s := connect(t, fb.PageURL())

	_, err := s.ExecuteScript(context.Background(), "throw new Error('boom');")
	var serr *api.ScriptError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "Error: boom", serr.Message)
	assert.Equal(t, "\tat <anonymous> (:2:7)\n", serr.StackTrace())
}

func TestSessionProtocolError(t *testing.T) {
	t.Parallel()

	fb := newFakeBrowser(t, func(command) reply {
		return reply{err: "Cannot find context with specified id"}
	})
	s := connect(t, fb.PageURL())

	_, err := s.ExecuteScript(context.Background(), "return;")
	assert.ErrorContains(t, err, "Cannot find context with specified id")
}

func TestSessionDiscovery(t *testing.T) {
	t.Parallel()

	fb := newFakeBrowser(t, page)
	s := connect(t, fb.URL+"/")

	v, err := s.ExecuteScript(context.Background(), "return true;")
	require.NoError(t, err)
	assert.Equal(t, true, v)
}

func TestSessionClosed(t *testing.T) {
	t.Parallel()

	t.Run("locally", func(t *testing.T) {
		t.Parallel()

		fb := newFakeBrowser(t, page)
		s := connect(t, fb.PageURL())
		require.NoError(t, s.Close())

		_, err := s.ExecuteScript(context.Background(), "return;")
		assert.ErrorIs(t, err, ErrConnectionClosed)
	})

	t.Run("by the browser", func(t *testing.T) {
		t.Parallel()

		fb := newFakeBrowser(t, func(command) reply {
			return reply{err: dropConnection}
		})
		s := connect(t, fb.PageURL())

		_, err := s.ExecuteScript(context.Background(), "return;")
		assert.ErrorIs(t, err, ErrConnectionClosed)
	})

	t.Run("canceled", func(t *testing.T) {
		t.Parallel()

		fb := newFakeBrowser(t, page)
		s := connect(t, fb.PageURL())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := s.ExecuteScript(ctx, "return;")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
