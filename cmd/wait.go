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
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/liuxd6825/extdriver/api"
	"github.com/liuxd6825/extdriver/common"
	"github.com/liuxd6825/extdriver/errext"
	"github.com/liuxd6825/extdriver/errext/exitcodes"
	"github.com/liuxd6825/extdriver/log"
)

// waitKind is one condition the wait command can block on.
type waitKind struct {
	use     string
	short   string
	example string
	args    cobra.PositionalArgs
	flags   func(*pflag.FlagSet)
	run     func(ctx context.Context, d *common.Driver, flags *pflag.FlagSet, args []string, spec common.PollSpec) ([]api.ElementHandle, error)
}

// cmdWait handles the `extdriver wait` sub-commands.
type cmdWait struct {
	gs *globalState
}

func getCmdWait(gs *globalState) *cobra.Command {
	c := &cmdWait{gs: gs}

	waitCmd := &cobra.Command{
		Use:   "wait",
		Short: "Block until a condition holds on the page",
		Long: `Block until a condition holds on the page.

Matched elements are printed to stdout, one id per line. The exit code tells
timeouts (102), ambiguous matches (105), missing rows, nodes or observables
(108) and script errors (107) apart.`,
	}
	waitCmd.PersistentFlags().AddFlagSet(configFlagSet())

	for _, kind := range waitKinds() {
		waitCmd.AddCommand(c.subcommand(kind))
	}
	return waitCmd
}

func (c *cmdWait) subcommand(kind waitKind) *cobra.Command {
	cmd := &cobra.Command{
		Use:     kind.use,
		Short:   kind.short,
		Example: kind.example,
		Args:    kind.args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.run(cmd, kind, args)
		},
	}
	if kind.flags != nil {
		kind.flags(cmd.Flags())
	}
	return cmd
}

func (c *cmdWait) run(cmd *cobra.Command, kind waitKind, args []string) (err error) {
	cliConf, err := getConfig(cmd.Flags())
	if err != nil {
		return err
	}
	conf, err := getConsolidatedConfig(c.gs, cliConf)
	if err != nil {
		return err
	}

	logger := log.New(c.gs.logger, c.gs.flags.verbose, nil)
	if err := logger.SetCategoryFilter(c.gs.flags.logCategoryFilter); err != nil {
		return errext.WithExitCodeIfNone(err, exitcodes.InvalidConfig)
	}

	tracer, shutdown, err := setupTracing(c.gs.ctx, conf)
	if err != nil {
		return errext.WithExitCodeIfNone(err, exitcodes.InvalidConfig)
	}
	defer func() {
		if serr := shutdown(context.Background()); serr != nil {
			logger.Warnf("cmd", "flushing traces: %v", serr)
		}
	}()

	s, err := newSession(c.gs, conf, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			logger.Debugf("cmd", "closing the session: %v", cerr)
		}
	}()

	ctx := common.WithLogger(c.gs.ctx, logger)
	ctx = common.WithTracer(ctx, tracer)

	els, err := kind.run(ctx, common.NewDriver(s), cmd.Flags(), args, conf.PollSpec())
	if err != nil {
		return waitError(err)
	}
	for _, el := range els {
		printToStdout(c.gs, el.ID()+"\n")
	}
	logger.Infof("cmd", "%s: done", cmd.Name())
	return nil
}

// waitFailures maps wait failures to exit codes, first match wins.
var waitFailures = []errext.Rule{ //nolint:gochecknoglobals
	{
		Match: errext.Is(common.ErrTimedOut),
		Code:  exitcodes.WaitTimeout,
		Hint:  "raise --timeout or check that the page can reach this state",
	},
	{
		Match: errext.As[*common.MultipleMatchesError](),
		Code:  exitcodes.MultipleMatches,
		Hint:  "narrow the selector down, e.g. with an #id or a --root component",
	},
	{Match: errext.Is(common.ErrComponentNotFound), Code: exitcodes.NotFound},
	{
		Match: errext.Is(common.ErrEventNotReceived),
		Code:  exitcodes.NotFound,
		Hint:  "check the selector matches one observable component, or pass --member",
	},
	{Match: errext.As[*api.ScriptError](), Code: exitcodes.ScriptException},
}

// waitError attaches the exit code and a hint matching the failure.
func waitError(err error) error {
	return errext.Classify(err, waitFailures...)
}

func waitKinds() []waitKind {
	return []waitKind{
		{
			use:     "query <selector>",
			short:   "Wait for components matching a component query",
			example: `  extdriver wait query "gridpanel[title=Users]" --root main --css .x-grid-row`,
			args:    cobra.ExactArgs(1),
			flags:   queryFlags(true),
			run: func(ctx context.Context, d *common.Driver, flags *pflag.FlagSet, args []string, spec common.PollSpec) ([]api.ElementHandle, error) {
				root, css := queryScope(flags)
				spec.EmptyOnTimeout, _ = flags.GetBool("allow-empty")
				return d.ComponentQuery.WaitForQuery(ctx, args[0], root, css, spec)
			},
		},
		{
			use:     "single <selector>",
			short:   "Wait for exactly one component matching a component query",
			example: `  extdriver wait single "button[text=Save]" --visible`,
			args:    cobra.ExactArgs(1),
			flags: func(fs *pflag.FlagSet) {
				queryFlags(false)(fs)
				fs.Bool("visible", false, "only consider visible components")
			},
			run: func(ctx context.Context, d *common.Driver, flags *pflag.FlagSet, args []string, spec common.PollSpec) ([]api.ElementHandle, error) {
				root, css := queryScope(flags)
				wait := d.ComponentQuery.WaitForSingleQuery
				if visible, _ := flags.GetBool("visible"); visible {
					wait = d.ComponentQuery.WaitForSingleQueryVisible
				}
				el, err := wait(ctx, args[0], root, css, spec)
				return single(el, err)
			},
		},
		{
			use:   "ajax-idle",
			short: "Wait until no Ajax request is in flight",
			args:  cobra.NoArgs,
			run: func(ctx context.Context, d *common.Driver, _ *pflag.FlagSet, _ []string, spec common.PollSpec) ([]api.ElementHandle, error) {
				return nil, d.Core.WaitForNoAjaxRequestsInProgress(ctx, spec)
			},
		},
		{
			use:   "dom-ready",
			short: "Wait until the framework reports the DOM as ready",
			args:  cobra.NoArgs,
			run: func(ctx context.Context, d *common.Driver, _ *pflag.FlagSet, _ []string, spec common.PollSpec) ([]api.ElementHandle, error) {
				return nil, d.Core.WaitForDOMReady(ctx, spec)
			},
		},
		{
			use:     "store-loaded <store-holder>",
			short:   "Wait until the store of a component has loaded",
			example: `  extdriver wait store-loaded "#users" --reload`,
			args:    cobra.ExactArgs(1),
			flags: func(fs *pflag.FlagSet) {
				fs.Bool("reload", false, "reset the load count and reload the store first")
			},
			run: func(ctx context.Context, d *common.Driver, flags *pflag.FlagSet, args []string, spec common.PollSpec) ([]api.ElementHandle, error) {
				if reload, _ := flags.GetBool("reload"); reload {
					return nil, d.Store.TriggerReloadAndWait(ctx, args[0], spec)
				}
				return nil, d.Store.WaitForStoreLoaded(ctx, args[0], spec)
			},
		},
		{
			use:   "row <grid> <row>",
			short: "Wait for a grid row, reloading the grid store until it shows up",
			example: `  extdriver wait row "#users" 3
  extdriver wait row "#users" '{"name": "Lisa"}'`,
			args: cobra.ExactArgs(2),
			flags: func(fs *pflag.FlagSet) {
				fs.Bool("click", false, "click the row once it is found")
			},
			run: func(ctx context.Context, d *common.Driver, flags *pflag.FlagSet, args []string, spec common.PollSpec) ([]api.ElementHandle, error) {
				row, err := parseData(args[1], true)
				if err != nil {
					return nil, err
				}
				el, err := d.Grid.WaitForRow(ctx, args[0], row, spec)
				if err != nil {
					return nil, err
				}
				if click, _ := flags.GetBool("click"); click {
					if err := el.Click(ctx); err != nil {
						return nil, err
					}
				}
				return []api.ElementHandle{el}, nil
			},
		},
		{
			use:   "node <tree> <node>",
			short: "Wait for a tree node, reloading its parent until it shows up",
			example: `  extdriver wait node "#folders" Sent --parent Mail
  extdriver wait node "#folders" '{"data.id": 12}' --parent Mail`,
			args: cobra.ExactArgs(2),
			flags: func(fs *pflag.FlagSet) {
				fs.String("parent", "", "text or JSON data of the node to reload, the tree root when empty")
			},
			run: func(ctx context.Context, d *common.Driver, flags *pflag.FlagSet, args []string, spec common.PollSpec) ([]api.ElementHandle, error) {
				node, err := parseData(args[1], false)
				if err != nil {
					return nil, err
				}
				var parent any
				if p, _ := flags.GetString("parent"); p != "" {
					if parent, err = parseData(p, false); err != nil {
						return nil, err
					}
				}
				if parent == nil {
					return waitForNodeUnderRoot(ctx, d, args[0], node, spec)
				}
				return single(d.Tree.WaitForTreeNode(ctx, args[0], node, parent, spec))
			},
		},
		{
			use:   "event <selector> <event>",
			short: "Wait for a component, or an observable it owns, to fire an event",
			example: `  extdriver wait event "#save" click
  extdriver wait event "#users" load --member getStore`,
			args: cobra.ExactArgs(2),
			flags: func(fs *pflag.FlagSet) {
				fs.String("member", "", "property or method of the component holding the observable, e.g. getStore")
			},
			run: func(ctx context.Context, d *common.Driver, flags *pflag.FlagSet, args []string, spec common.PollSpec) ([]api.ElementHandle, error) {
				member, _ := flags.GetString("member")
				return nil, d.Observable.WaitForEvent(ctx, args[0], args[1], member, spec)
			},
		},
	}
}

func queryFlags(allowEmpty bool) func(*pflag.FlagSet) {
	return func(fs *pflag.FlagSet) {
		fs.String("root", "", "`id` of the component to search under")
		fs.String("css", "", "CSS `selector` picking child elements of every match")
		if allowEmpty {
			fs.Bool("allow-empty", false, "succeed with no output when nothing matched before the timeout")
		}
	}
}

func queryScope(flags *pflag.FlagSet) (root, css string) {
	root, _ = flags.GetString("root")
	css, _ = flags.GetString("css")
	return root, css
}

// waitForNodeUnderRoot waits for a node anywhere in the tree without
// reloading anything.
func waitForNodeUnderRoot(
	ctx context.Context, d *common.Driver, tree string, node any, spec common.PollSpec,
) ([]api.ElementHandle, error) {
	if spec.Timeout == 0 {
		spec.Timeout = common.DefaultTimeout
	}
	cond := common.NodeFound(tree, node, nil, common.NodeIconSelector)
	return single(common.WaitUntil(ctx, d.Session, cond, spec))
}

func single(el api.ElementHandle, err error) ([]api.ElementHandle, error) {
	if err != nil {
		return nil, err
	}
	return []api.ElementHandle{el}, nil
}

// parseData turns a row or node argument into what the page expects: an
// integer index when allowIndex is set, a JSON object of fields to match,
// or a plain text.
func parseData(arg string, allowIndex bool) (any, error) {
	if n, err := strconv.Atoi(arg); err == nil && allowIndex {
		return n, nil
	}
	if strings.HasPrefix(strings.TrimSpace(arg), "{") {
		var data map[string]any
		if err := json.Unmarshal([]byte(arg), &data); err != nil {
			return nil, errext.WithExitCodeIfNone(
				fmt.Errorf("parsing %q as JSON: %w", arg, err), exitcodes.InvalidConfig)
		}
		return data, nil
	}
	return arg, nil
}
