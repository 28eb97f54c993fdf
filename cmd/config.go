/*
 *
 * extdriver - helpers for driving Ext JS pages from Go
 * Copyright (C) 2024 extdriver authors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as
 * published by the Free Software Foundation, either version 3 of the
 * License, or (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 *
 */

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/mstoykov/envconfig"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"gopkg.in/guregu/null.v3"
	"gopkg.in/yaml.v3"

	"github.com/liuxd6825/extdriver/common"
	"github.com/liuxd6825/extdriver/errext"
	"github.com/liuxd6825/extdriver/errext/exitcodes"
	"github.com/liuxd6825/extdriver/lib/types"
)

// Supported drivers.
const (
	driverCDP       = "cdp"
	driverWebDriver = "webdriver"
	driverSandbox   = "sandbox"
)

func configFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("", 0)
	flags.SortFlags = false
	flags.String("driver", driverCDP, "browser `driver`: cdp, webdriver or sandbox")
	flags.String("cdp-url", "", "DevTools `url` of a page (ws://...) or of a browser (http://localhost:9222)")
	flags.String("webdriver-url", "http://localhost:4444/wd/hub", "WebDriver remote end `url`")
	flags.String("browser", "chrome", "browser `name` to request from the WebDriver remote end")
	flags.StringSlice("page", nil, "page model `file` loaded by the sandbox driver, can be repeated")
	flags.Duration("timeout", 0, "how long to wait, 0 picks the default of the condition")
	flags.Duration("poll-interval", common.DefaultPollInterval, "pause between two probes")
	flags.Duration("recheck-delay", common.DefaultRecheckDelay, "pause before confirming a debounced condition")
	flags.String("traces-output", "none", "traces `output`: none or otel[=endpoint],proto=grpc|http,header.<name>=<value>")
	return flags
}

// Config is the configuration of a wait, consolidated from the defaults, the
// config file, the environment and the command line flags, in that order.
type Config struct {
	Driver       null.String        `json:"driver" yaml:"driver" envconfig:"EXTDRIVER_DRIVER"`
	CDPURL       null.String        `json:"cdpURL" yaml:"cdpURL" envconfig:"EXTDRIVER_CDP_URL"`
	WebDriverURL null.String        `json:"webdriverURL" yaml:"webdriverURL" envconfig:"EXTDRIVER_WEBDRIVER_URL"`
	Browser      null.String        `json:"browser" yaml:"browser" envconfig:"EXTDRIVER_BROWSER"`
	Pages        []string           `json:"pages" yaml:"pages" envconfig:"EXTDRIVER_PAGES"`
	Timeout      types.NullDuration `json:"timeout" yaml:"timeout" envconfig:"EXTDRIVER_TIMEOUT"`
	PollInterval types.NullDuration `json:"pollInterval" yaml:"pollInterval" envconfig:"EXTDRIVER_POLL_INTERVAL"`
	RecheckDelay types.NullDuration `json:"recheckDelay" yaml:"recheckDelay" envconfig:"EXTDRIVER_RECHECK_DELAY"`
	TracesOutput null.String        `json:"tracesOutput" yaml:"tracesOutput" envconfig:"EXTDRIVER_TRACES_OUTPUT"`
}

// Apply returns c overridden by every field that is set in cfg.
func (c Config) Apply(cfg Config) Config {
	if cfg.Driver.Valid {
		c.Driver = cfg.Driver
	}
	if cfg.CDPURL.Valid {
		c.CDPURL = cfg.CDPURL
	}
	if cfg.WebDriverURL.Valid {
		c.WebDriverURL = cfg.WebDriverURL
	}
	if cfg.Browser.Valid {
		c.Browser = cfg.Browser
	}
	if len(cfg.Pages) > 0 {
		c.Pages = cfg.Pages
	}
	if cfg.Timeout.Valid {
		c.Timeout = cfg.Timeout
	}
	if cfg.PollInterval.Valid {
		c.PollInterval = cfg.PollInterval
	}
	if cfg.RecheckDelay.Valid {
		c.RecheckDelay = cfg.RecheckDelay
	}
	if cfg.TracesOutput.Valid {
		c.TracesOutput = cfg.TracesOutput
	}
	return c
}

// PollSpec returns the poll settings of the wait. Unset values stay zero so
// that every helper falls back to its own defaults.
func (c Config) PollSpec() common.PollSpec {
	return common.PollSpec{
		Timeout:      c.Timeout.TimeDuration(),
		PollInterval: c.PollInterval.TimeDuration(),
		RecheckDelay: c.RecheckDelay.TimeDuration(),
	}
}

// Gets configuration from CLI flags.
func getConfig(flags *pflag.FlagSet) (Config, error) {
	pages, err := flags.GetStringSlice("page")
	if err != nil {
		return Config{}, err
	}
	return Config{
		Driver:       getNullString(flags, "driver"),
		CDPURL:       getNullString(flags, "cdp-url"),
		WebDriverURL: getNullString(flags, "webdriver-url"),
		Browser:      getNullString(flags, "browser"),
		Pages:        pages,
		Timeout:      getNullDuration(flags, "timeout"),
		PollInterval: getNullDuration(flags, "poll-interval"),
		RecheckDelay: getNullDuration(flags, "recheck-delay"),
		TracesOutput: getNullString(flags, "traces-output"),
	}, nil
}

// readDiskConfig reads the JSON or YAML config file. A missing file is only
// an error when its path was set explicitly.
func readDiskConfig(gs *globalState) (Config, error) {
	path := gs.flags.configFilePath
	data, err := afero.ReadFile(gs.fs, path)
	if errors.Is(err, fs.ErrNotExist) && path == gs.defaultFlags.configFilePath {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("couldn't load the configuration from %q: %w", path, err)
	}

	var conf Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &conf)
	default:
		err = json.Unmarshal(data, &conf)
	}
	if err != nil {
		return Config{}, fmt.Errorf("couldn't parse the configuration from %q: %w", path, err)
	}
	return conf, nil
}

// Reads configuration variables from the environment.
func readEnvConfig(envMap map[string]string) (Config, error) {
	conf := Config{}
	err := envconfig.Process("", &conf, func(key string) (string, bool) {
		v, ok := envMap[key]
		return v, ok
	})
	return conf, err
}

// getConsolidatedConfig assembles the final configuration from, in order of
// increasing priority, the defaults, the config file, the environment and
// the CLI flags, and validates it.
func getConsolidatedConfig(gs *globalState, cliConf Config) (conf Config, err error) {
	fileConf, err := readDiskConfig(gs)
	if err != nil {
		return conf, errext.WithExitCodeIfNone(err, exitcodes.InvalidConfig)
	}
	envConf, err := readEnvConfig(gs.envVars)
	if err != nil {
		return conf, errext.WithExitCodeIfNone(err, exitcodes.InvalidConfig)
	}

	conf = defaultConfig().Apply(fileConf).Apply(envConf).Apply(cliConf)
	if err := validateConfig(conf); err != nil {
		return conf, errext.WithExitCodeIfNone(err, exitcodes.InvalidConfig)
	}
	return conf, nil
}

func defaultConfig() Config {
	return Config{
		Driver:       null.NewString(driverCDP, false),
		WebDriverURL: null.NewString("http://localhost:4444/wd/hub", false),
		Browser:      null.NewString("chrome", false),
		TracesOutput: null.NewString("none", false),
	}
}

func validateConfig(conf Config) error {
	var errs []error

	switch conf.Driver.String {
	case driverCDP:
		if conf.CDPURL.String == "" {
			errs = append(errs, errors.New("the cdp driver needs a DevTools url, set --cdp-url"))
		}
	case driverWebDriver:
		if conf.WebDriverURL.String == "" {
			errs = append(errs, errors.New("the webdriver driver needs a remote end url, set --webdriver-url"))
		}
	case driverSandbox:
		if len(conf.Pages) == 0 {
			errs = append(errs, errors.New("the sandbox driver needs at least one --page file"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown driver '%s'", conf.Driver.String))
	}

	if conf.Timeout.Valid && conf.Timeout.Duration < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", conf.Timeout.Duration))
	}
	if conf.PollInterval.Duration < 0 {
		errs = append(errs, fmt.Errorf("poll interval must not be negative, got %s", conf.PollInterval.Duration))
	}
	if conf.RecheckDelay.Duration < 0 {
		errs = append(errs, fmt.Errorf("recheck delay must not be negative, got %s", conf.RecheckDelay.Duration))
	}

	return errors.Join(errs...)
}
