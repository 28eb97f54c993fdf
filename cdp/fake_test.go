package cdp

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/tidwall/gjson"
)

// dropConnection makes the fake browser hang up instead of replying.
const dropConnection = "<drop>"

// reply is what the fake browser answers a command with. A non-empty err
// is sent back as a protocol error.
type reply struct {
	result string
	err    string
}

type command struct {
	method string
	params gjson.Result
}

// fakeBrowser is a DevTools server with a single page target.
type fakeBrowser struct {
	*httptest.Server

	handle func(command) reply

	mu       sync.Mutex
	commands []command
}

func newFakeBrowser(t *testing.T, handle func(command) reply) *fakeBrowser {
	t.Helper()

	fb := &fakeBrowser{handle: handle}
	upgrader := websocket.Upgrader{}

	mux := http.NewServeMux()
	mux.HandleFunc("/json/list", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprintf(w, `[
			{"type": "service_worker", "webSocketDebuggerUrl": "ws://invalid/worker"},
			{"type": "page", "webSocketDebuggerUrl": %q}
		]`, fb.PageURL())
	})
	mux.HandleFunc("/devtools/page/1", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"method":"Page.loadEventFired","params":{"timestamp":1}}`))
		for {
			_, buf, err := conn.ReadMessage()
			if err != nil {
				return
			}
			msg := gjson.ParseBytes(buf)
			cmd := command{method: msg.Get("method").String(), params: msg.Get("params")}
			fb.mu.Lock()
			fb.commands = append(fb.commands, cmd)
			fb.mu.Unlock()

			rep := fb.handle(cmd)
			var out string
			switch {
			case rep.err == dropConnection:
				return
			case rep.err != "":
				out = fmt.Sprintf(`{"id":%d,"error":{"code":-32000,"message":%q}}`, msg.Get("id").Int(), rep.err)
			default:
				out = fmt.Sprintf(`{"id":%d,"result":%s}`, msg.Get("id").Int(), rep.result)
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(out)); err != nil {
				return
			}
		}
	})

	fb.Server = httptest.NewServer(mux)
	t.Cleanup(fb.Close)
	return fb
}

func (fb *fakeBrowser) PageURL() string {
	return "ws" + strings.TrimPrefix(fb.URL, "http") + "/devtools/page/1"
}

func (fb *fakeBrowser) methods() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := make([]string, len(fb.commands))
	for i, c := range fb.commands {
		out[i] = c.method
	}
	return out
}

func (fb *fakeBrowser) last(method string) gjson.Result {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	for i := len(fb.commands) - 1; i >= 0; i-- {
		if fb.commands[i].method == method {
			return fb.commands[i].params
		}
	}
	return gjson.Result{}
}

const globalObject = `{"result":{"type":"object","className":"Window","objectId":"global"}}`

// page answers the commands a Session sends with canned results picked by
// the body of the called function.
func page(cmd command) reply {
	switch cmd.method {
	case "Runtime.evaluate":
		return reply{result: globalObject}
	case "Runtime.getProperties":
		return reply{result: `{"result":[
			{"name":"1","value":{"type":"object","subtype":"node","objectId":"n2"},"configurable":true,"enumerable":true},
			{"name":"0","value":{"type":"object","subtype":"node","objectId":"n1"},"configurable":true,"enumerable":true},
			{"name":"length","value":{"type":"number","value":2},"configurable":false,"enumerable":false}
		]}`}
	case "DOM.scrollIntoViewIfNeeded", "Input.dispatchMouseEvent":
		return reply{result: `{}`}
	case "DOM.getContentQuads":
		return reply{result: `{"quads":[[0,0,0,0,0,0,0,0],[10,20,30,20,30,40,10,40]]}`}
	case "Runtime.callFunctionOn":
	default:
		return reply{err: "'" + cmd.method + "' wasn't found"}
	}

	fn := cmd.params.Get("functionDeclaration").String()
	switch {
	case strings.Contains(fn, "return this;"):
		return reply{result: `{"result":{"type":"object","value":{"a":1,"b":["x"]}}}`}
	case strings.Contains(fn, "arguments[0] + 1"):
		return reply{result: fmt.Sprintf(`{"result":{"type":"number","value":%d}}`, cmd.params.Get("arguments.0.value").Int()+1)}
	case strings.Contains(fn, "throw"):
		return reply{result: `{
			"result":{"type":"object","subtype":"error","description":"Error: boom"},
			"exceptionDetails":{"exceptionId":1,"text":"Uncaught","lineNumber":1,"columnNumber":6,
				"exception":{"type":"object","subtype":"error","description":"Error: boom\n    at <anonymous>:2:7"},
				"stackTrace":{"callFrames":[{"functionName":"","scriptId":"3","url":"","lineNumber":1,"columnNumber":6}]}}
		}`}
	case strings.Contains(fn, "return nodes"):
		return reply{result: `{"result":{"type":"object","subtype":"array","className":"Array","objectId":"arr"}}`}
	case strings.Contains(fn, "return node"):
		return reply{result: `{"result":{"type":"object","subtype":"node","className":"HTMLDivElement","objectId":"n1"}}`}
	case strings.Contains(fn, "return obj"):
		return reply{result: `{"result":{"type":"object","className":"Object","description":"Object","objectId":"o1"}}`}
	case strings.Contains(fn, "return null"):
		return reply{result: `{"result":{"type":"object","subtype":"null","value":null}}`}
	case strings.Contains(fn, "return NaN"):
		return reply{result: `{"result":{"type":"number","unserializableValue":"NaN","description":"NaN"}}`}
	case strings.Contains(fn, "return 'text'"):
		return reply{result: `{"result":{"type":"string","value":"text"}}`}
	case strings.Contains(fn, "return true"):
		return reply{result: `{"result":{"type":"boolean","value":true}}`}
	}
	return reply{result: `{"result":{"type":"undefined"}}`}
}
