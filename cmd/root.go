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
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-colorable"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/liuxd6825/extdriver/errext"
	"github.com/liuxd6825/extdriver/errext/exitcodes"
	"github.com/liuxd6825/extdriver/lib/consts"
	"github.com/liuxd6825/extdriver/log"
)

const waitLoggerCloseTimeout = time.Second * 5

// rootCommand keeps the fields needed by the main extdriver command.
type rootCommand struct {
	globalState *globalState

	cmd           *cobra.Command
	loggerStopped <-chan struct{}
	loggerIsFile  bool
}

func newRootCommand(gs *globalState) *rootCommand {
	c := &rootCommand{
		globalState: gs,
	}
	// the base command when called without any subcommands.
	rootCmd := &cobra.Command{
		Use:   "extdriver",
		Short: "wait for Ext JS pages to settle",
		Long: `extdriver polls a page driven through the Chrome DevTools protocol or a
WebDriver remote end until Ext JS components show up, stores finish
loading and Ajax traffic stops.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.persistentPreRunE,
	}

	rootCmd.PersistentFlags().AddFlagSet(rootCmdPersistentFlagSet(gs))
	rootCmd.SetArgs(gs.args[1:])
	rootCmd.SetOut(gs.stdOut)
	rootCmd.SetErr(gs.stdErr)
	rootCmd.SetIn(gs.stdIn)

	rootCmd.AddCommand(getCmdWait(gs), getCmdVersion(gs))

	c.cmd = rootCmd
	return c
}

func (c *rootCommand) persistentPreRunE(_ *cobra.Command, _ []string) error {
	var err error

	c.loggerStopped, err = c.setupLoggers()
	if err != nil {
		return err
	}
	select {
	case <-c.loggerStopped:
	default:
		c.loggerIsFile = true
	}

	c.globalState.logger.Debugf("extdriver version: v%s", consts.FullVersion())
	return nil
}

func (c *rootCommand) execute() {
	ctx, cancel := context.WithCancel(c.globalState.ctx)
	defer cancel()
	c.globalState.ctx = ctx

	err := c.cmd.Execute()
	if err == nil {
		cancel()
		c.waitLogger()
		return
	}

	exitCode := -1
	var ecerr errext.HasExitCode
	if errors.As(err, &ecerr) && ecerr.ExitCode() != 0 {
		exitCode = int(ecerr.ExitCode())
	}

	errText, fields := errext.Format(err)
	c.globalState.logger.WithFields(fields).Error(errText)
	if c.loggerIsFile {
		c.globalState.fallbackLogger.WithFields(fields).Error(errText)
		cancel()
		c.waitLogger()
	}

	c.globalState.osExit(exitCode)
}

// Execute adds all child commands to the root command sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	gs := newGlobalState(context.Background())

	newRootCommand(gs).execute()
}

func (c *rootCommand) waitLogger() {
	if !c.loggerIsFile {
		return
	}
	select {
	case <-c.loggerStopped:
	case <-time.After(waitLoggerCloseTimeout):
		c.globalState.fallbackLogger.Errorf("The log file wasn't closed in %s", waitLoggerCloseTimeout)
	}
}

func rootCmdPersistentFlagSet(gs *globalState) *pflag.FlagSet {
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	// We need to use `gs.flags.<value>` both as the destination and as
	// the value here, since the config values could have already been set by
	// their respective environment variables. However, we then also have to
	// explicitly set the DefValue to the respective default value from
	// `gs.defaultFlags.<value>`, so that the `--help` message is not messed up...

	flags.StringVar(&gs.flags.logOutput, "log-output", gs.flags.logOutput,
		"change the output for extdriver logs, possible values are stderr,stdout,none,file[=./path.fileformat]")
	flags.Lookup("log-output").DefValue = gs.defaultFlags.logOutput

	flags.StringVar(&gs.flags.logFormat, "log-format", gs.flags.logFormat, "log output format: text, json or raw")
	flags.Lookup("log-format").DefValue = gs.defaultFlags.logFormat

	flags.StringVar(&gs.flags.logCategoryFilter, "log-category-filter", gs.flags.logCategoryFilter,
		"only log entries whose category matches this `regexp`, e.g. 'wait|cdp'")
	flags.Lookup("log-category-filter").DefValue = gs.defaultFlags.logCategoryFilter

	flags.StringVarP(&gs.flags.configFilePath, "config", "c", gs.flags.configFilePath, "JSON or YAML config file")
	// And we also need to explicitly set the default value for the usage message here, so things
	// like `EXTDRIVER_CONFIG="blah" extdriver wait -h` don't produce a weird usage message
	flags.Lookup("config").DefValue = gs.defaultFlags.configFilePath
	must(cobra.MarkFlagFilename(flags, "config"))

	flags.BoolVar(&gs.flags.noColor, "no-color", gs.flags.noColor, "disable colored output")
	flags.Lookup("no-color").DefValue = strconv.FormatBool(gs.defaultFlags.noColor)

	flags.BoolVarP(&gs.flags.verbose, "verbose", "v", gs.defaultFlags.verbose, "enable verbose logging")
	return flags
}

// RawFormatter it does nothing with the message just prints it
type RawFormatter struct{}

// Format renders a single log entry
func (f RawFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	return append([]byte(entry.Message), '\n'), nil
}

// The returned channel will be closed when the logger has finished flushing
// the log file after the context is done. It is closed right away when the
// logger writes synchronously.
func (c *rootCommand) setupLoggers() (<-chan struct{}, error) {
	var stopped <-chan struct{}
	ch := make(chan struct{})
	close(ch)
	stopped = ch

	gs := c.globalState
	if gs.flags.verbose {
		gs.logger.SetLevel(logrus.DebugLevel)
	}

	if gs.flags.noColor {
		gs.stdOut.Writer = colorable.NewNonColorable(gs.stdOut.Writer)
		gs.stdErr.Writer = colorable.NewNonColorable(gs.stdErr.Writer)
	}

	line := gs.flags.logOutput
	switch {
	case line == "stderr":
		gs.logger.SetOutput(gs.stdErr)
	case line == "stdout":
		gs.logger.SetOutput(gs.stdOut)
	case line == "none":
		gs.logger.SetOutput(io.Discard)
	case strings.HasPrefix(line, "file"):
		hook, done, err := log.FileHookFromConfigLine(gs.ctx, gs.fs, gs.fallbackLogger, line)
		if err != nil {
			return nil, errext.WithExitCodeIfNone(err, exitcodes.InvalidConfig)
		}
		gs.logger.AddHook(hook)
		gs.logger.SetOutput(io.Discard)
		stopped = done
	default:
		return nil, errext.WithExitCodeIfNone(
			fmt.Errorf("unsupported log output '%s'", line), exitcodes.InvalidConfig)
	}

	switch gs.flags.logFormat {
	case "raw":
		gs.logger.SetFormatter(&RawFormatter{})
		gs.logger.Debug("Logger format: RAW")
	case "json":
		gs.logger.SetFormatter(&logrus.JSONFormatter{})
		gs.logger.Debug("Logger format: JSON")
	default:
		gs.logger.SetFormatter(&logrus.TextFormatter{
			ForceColors: gs.stdErr.IsTTY, DisableColors: gs.flags.noColor,
		})
		gs.logger.Debug("Logger format: TEXT")
	}
	return stopped, nil
}
