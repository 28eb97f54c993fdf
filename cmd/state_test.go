package cmd

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// globalTestState wraps a globalState with an in-memory file system and
// captured output streams.
type globalTestState struct {
	*globalState
	cancel func()

	stdOut, stdErr *bytes.Buffer
	loggerHook     *logtest.Hook

	cwd string

	expectedExitCode int
	exitCode         int
	exited           bool
}

func newGlobalTestState(t *testing.T) *globalTestState {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	fs := afero.NewMemMapFs()
	cwd := "/test/"
	require.NoError(t, fs.MkdirAll(cwd, 0o755))

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.Out = io.Discard
	hook := logtest.NewLocal(logger)

	ts := &globalTestState{
		cancel:     cancel,
		stdOut:     new(bytes.Buffer),
		stdErr:     new(bytes.Buffer),
		loggerHook: hook,
		cwd:        cwd,
	}

	outMutex := &sync.Mutex{}
	defaultFlags := getDefaultFlags(".config")
	ts.globalState = &globalState{
		ctx:          ctx,
		fs:           fs,
		getwd:        func() (string, error) { return ts.cwd, nil },
		args:         []string{},
		envVars:      map[string]string{},
		defaultFlags: defaultFlags,
		flags:        defaultFlags,
		outMutex:     outMutex,
		stdOut:       &consoleWriter{ts.stdOut, false, outMutex},
		stdErr:       &consoleWriter{ts.stdErr, false, outMutex},
		stdIn:        new(bytes.Buffer),
		osExit: func(exitCode int) {
			ts.exited = true
			ts.exitCode = exitCode
		},
		logger: logger,
		fallbackLogger: &logrus.Logger{
			Out:       ts.stdErr,
			Formatter: new(logrus.TextFormatter),
			Hooks:     make(logrus.LevelHooks),
			Level:     logrus.InfoLevel,
		},
	}
	return ts
}

// run executes the root command with the given arguments and checks the
// exit code against expectedExitCode.
func (ts *globalTestState) run(t *testing.T, args ...string) {
	t.Helper()

	ts.args = append([]string{"extdriver"}, args...)
	newRootCommand(ts.globalState).execute()

	if ts.expectedExitCode == 0 {
		assert.False(t, ts.exited, "unexpected exit with code %d, stderr: %s", ts.exitCode, ts.stdErr.String())
		return
	}
	require.True(t, ts.exited, "expected exit code %d", ts.expectedExitCode)
	assert.Equal(t, ts.expectedExitCode, ts.exitCode)
}

// lastError returns the message of the last error the command logged.
func (ts *globalTestState) lastError() *logrus.Entry {
	for i := len(ts.loggerHook.AllEntries()) - 1; i >= 0; i-- {
		if e := ts.loggerHook.AllEntries()[i]; e.Level == logrus.ErrorLevel {
			return e
		}
	}
	return nil
}
