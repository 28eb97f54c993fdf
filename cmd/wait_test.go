package cmd

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liuxd6825/extdriver/errext/exitcodes"
)

const buttonsPage = `
Ext.create('panel', {id: 'main', items: [
	{xtype: 'button', id: 'save', text: 'Save'},
	{xtype: 'button', id: 'cancel', text: 'Cancel'}
]});
Ext.create('gridpanel', {id: 'users', store: {data: [{name: 'Ann'}, {name: 'Bob'}]}});
Ext.create('treepanel', {id: 'folders',
	root: {text: 'Root', children: [{text: 'Mail', id: 'mail'}]},
	serverChildren: {mail: [{text: 'Inbox', id: 'inbox'}, {text: 'Sent', id: 'sent'}]}
});
`

func writePage(t *testing.T, ts *globalTestState, page string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(ts.fs, "/test/page.js", []byte(page), 0o644))
}

func sandboxArgs(args ...string) []string {
	return append(args,
		"--driver", "sandbox", "--page", "/test/page.js",
		"--poll-interval", "20ms", "--recheck-delay", "20ms")
}

func TestWaitCommands(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		args   []string
		stdout string
	}{
		{
			name:   "query",
			args:   []string{"query", "button"},
			stdout: "save\ncancel\n",
		},
		{
			name:   "query under a root",
			args:   []string{"query", "button[text=Save]", "--root", "main"},
			stdout: "save\n",
		},
		{
			name:   "query allowing no match",
			args:   []string{"query", "#missing", "--allow-empty", "--timeout", "100ms"},
			stdout: "",
		},
		{
			name:   "single",
			args:   []string{"single", "#cancel", "--visible"},
			stdout: "cancel\n",
		},
		{
			name: "ajax idle",
			args: []string{"ajax-idle"},
		},
		{
			name: "dom ready",
			args: []string{"dom-ready"},
		},
		{
			name: "store loaded",
			args: []string{"store-loaded", "#users"},
		},
		{
			name: "store reloaded",
			args: []string{"store-loaded", "#users", "--reload"},
		},
		{
			name:   "row by index",
			args:   []string{"row", "#users", "0"},
			stdout: "users-row-0\n",
		},
		{
			name:   "row by data",
			args:   []string{"row", "#users", `{"name": "Bob"}`, "--click"},
			stdout: "users-row-1\n",
		},
		{
			name:   "node under the root",
			args:   []string{"node", "#folders", "Mail"},
			stdout: "folders-node-mail .x-tree-icon\n",
		},
		{
			name:   "node after reloading its parent",
			args:   []string{"node", "#folders", "Sent", "--parent", "Mail", "--timeout", "2s"},
			stdout: "folders-node-sent .x-tree-icon\n",
		},
		{
			name:   "node by data",
			args:   []string{"node", "#folders", `{"data.id": "inbox"}`, "--parent", "Mail", "--timeout", "2s"},
			stdout: "folders-node-inbox .x-tree-icon\n",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ts := newGlobalTestState(t)
			writePage(t, ts, buttonsPage)
			ts.run(t, sandboxArgs(append([]string{"wait"}, tc.args...)...)...)

			assert.Equal(t, tc.stdout, ts.stdOut.String())
		})
	}
}

func TestWaitFailures(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		args     []string
		exitCode exitcodes.ExitCode
		errMsg   string
		hint     bool
	}{
		{
			name:     "timeout",
			args:     []string{"query", "#missing", "--timeout", "100ms"},
			exitCode: exitcodes.WaitTimeout,
			errMsg:   "timed out",
			hint:     true,
		},
		{
			name:     "multiple matches",
			args:     []string{"single", "button"},
			exitCode: exitcodes.MultipleMatches,
			errMsg:   "expected a single match",
			hint:     true,
		},
		{
			name:     "script error",
			args:     []string{"query", "button["},
			exitCode: exitcodes.ScriptException,
			errMsg:   "Unsupported component query",
		},
		{
			name:     "bad row data",
			args:     []string{"row", "#users", "{name"},
			exitCode: exitcodes.InvalidConfig,
			errMsg:   "as JSON",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ts := newGlobalTestState(t)
			writePage(t, ts, buttonsPage)
			ts.expectedExitCode = int(tc.exitCode)
			ts.run(t, sandboxArgs(append([]string{"wait"}, tc.args...)...)...)

			entry := ts.lastError()
			require.NotNil(t, entry)
			assert.Contains(t, entry.Message, tc.errMsg)
			assert.Equal(t, int(tc.exitCode), entry.Data["exitCode"])
			if tc.hint {
				assert.NotEmpty(t, entry.Data["hint"])
			}
			assert.Empty(t, ts.stdOut.String())
		})
	}
}

func TestWaitEvent(t *testing.T) {
	t.Parallel()

	const page = buttonsPage + `
setTimeout(function () { Ext.getCmp('users').getStore().reload(); }, 300);
`
	testCases := []struct {
		name     string
		args     []string
		exitCode exitcodes.ExitCode
		errMsg   string
	}{
		{
			name: "store load",
			args: []string{"event", "#users", "load", "--member", "getStore", "--timeout", "3s"},
		},
		{
			name:     "not fired",
			args:     []string{"event", "#save", "click", "--timeout", "100ms"},
			exitCode: exitcodes.WaitTimeout,
			errMsg:   "failed with error: Event was not received.",
		},
		{
			name:     "no component",
			args:     []string{"event", "#missing", "click"},
			exitCode: exitcodes.NotFound,
			errMsg:   "failed with error: Component not found.",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ts := newGlobalTestState(t)
			writePage(t, ts, page)
			ts.expectedExitCode = int(tc.exitCode)
			ts.run(t, sandboxArgs(append([]string{"wait"}, tc.args...)...)...)

			assert.Empty(t, ts.stdOut.String())
			if tc.exitCode == 0 {
				return
			}
			entry := ts.lastError()
			require.NotNil(t, entry)
			assert.Contains(t, entry.Message, tc.errMsg)
		})
	}
}

func TestWaitMissingPage(t *testing.T) {
	t.Parallel()

	ts := newGlobalTestState(t)
	ts.expectedExitCode = int(exitcodes.SessionFailure)
	ts.run(t, sandboxArgs("wait", "dom-ready")...)

	assert.Contains(t, ts.stdErr.String(), "reading page")
}

func TestParseData(t *testing.T) {
	t.Parallel()

	v, err := parseData("3", true)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	v, err = parseData("3", false)
	require.NoError(t, err)
	assert.Equal(t, "3", v)

	v, err = parseData(`{"data.id": 7}`, false)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"data.id": float64(7)}, v)

	v, err = parseData("Sent", false)
	require.NoError(t, err)
	assert.Equal(t, "Sent", v)

	_, err = parseData("{oops", false)
	require.Error(t, err)
}
