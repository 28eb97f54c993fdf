package cmd

import (
	"fmt"

	"github.com/spf13/afero"

	"github.com/liuxd6825/extdriver/api"
	"github.com/liuxd6825/extdriver/cdp"
	"github.com/liuxd6825/extdriver/errext"
	"github.com/liuxd6825/extdriver/errext/exitcodes"
	"github.com/liuxd6825/extdriver/log"
	"github.com/liuxd6825/extdriver/sandbox"
	"github.com/liuxd6825/extdriver/webdriver"
)

// newSession attaches to the page of the configured driver.
func newSession(gs *globalState, conf Config, logger *log.Logger) (api.SessionCloser, error) {
	var (
		s   api.SessionCloser
		err error
	)
	switch conf.Driver.String {
	case driverCDP:
		s, err = cdp.Connect(gs.ctx, conf.CDPURL.String, logger)
	case driverWebDriver:
		s, err = webdriver.Connect(gs.ctx, conf.WebDriverURL.String, conf.Browser.String, logger)
	case driverSandbox:
		s, err = newSandboxPage(gs, conf.Pages, logger)
	default:
		err = fmt.Errorf("unknown driver '%s'", conf.Driver.String)
	}
	if err != nil {
		return nil, errext.WithExitCodeIfNone(
			fmt.Errorf("starting the %s session: %w", conf.Driver.String, err), exitcodes.SessionFailure)
	}
	return s, nil
}

func newSandboxPage(gs *globalState, pages []string, logger *log.Logger) (*sandbox.Page, error) {
	scripts := make([]string, 0, len(pages))
	for _, path := range pages {
		data, err := afero.ReadFile(gs.fs, path)
		if err != nil {
			return nil, fmt.Errorf("reading page %q: %w", path, err)
		}
		scripts = append(scripts, string(data))
	}
	return sandbox.NewExtPage(gs.ctx, logger, scripts...)
}
