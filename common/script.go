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

package common

import (
	"context"
	"embed"
	"fmt"
	"math"

	"github.com/liuxd6825/extdriver/api"
)

//go:embed js/*.js
var scriptFS embed.FS

// Helper script names, each loaded as globalThis.ExtDriver.<name>.
const (
	ScriptCore             = "Core"
	ScriptComponentQuery   = "ComponentQuery"
	ScriptStoreHelper      = "StoreHelper"
	ScriptGridHelper       = "GridHelper"
	ScriptTreeHelper       = "TreeHelper"
	ScriptObservableHelper = "ObservableHelper"
)

var scriptDependencies = map[string][]string{ //nolint:gochecknoglobals
	ScriptGridHelper: {ScriptCore},
	ScriptTreeHelper: {ScriptCore},
}

const scriptLoadedProbe = "var ns = globalThis." + ScriptNamespace + "; return !!(ns && ns[arguments[0]]);"

// ScriptLoaded is satisfied once the named helper script is present in the page.
func ScriptLoaded(name string) Condition[bool] {
	return NewCondition(Description{Kind: "helper script", Selector: name},
		func(ctx context.Context, s api.Session) (bool, bool, error) {
			v, err := s.ExecuteScript(ctx, scriptLoadedProbe, name)
			if err != nil {
				return false, false, err
			}
			loaded := truthy(v)
			return loaded, loaded, nil
		})
}

// EnsureScript loads the named helper script, and the scripts it depends
// on, unless the page already has them.
func EnsureScript(ctx context.Context, s api.Session, name string) error {
	for _, dep := range scriptDependencies[name] {
		if err := EnsureScript(ctx, s, dep); err != nil {
			return err
		}
	}

	cond := ScriptLoaded(name)
	if _, loaded, err := cond.Evaluate(ctx, s); err != nil || loaded {
		return err
	}

	src, err := scriptFS.ReadFile("js/" + ScriptNamespace + "." + name + ".js")
	if err != nil {
		return fmt.Errorf("%w: %q", ErrScriptNotLoaded, name)
	}

	GetLogger(ctx).Debugf("script", "loading helper script %q", name)
	if _, err := s.ExecuteScript(ctx, string(src)); err != nil {
		return fmt.Errorf("loading helper script %q: %w", name, err)
	}

	_, err = WaitUntil(ctx, s, cond, PollSpec{Timeout: ScriptLoadTimeout})
	return err
}

// scriptMissingKey marks the result of a helper call whose helper script is
// not in the page yet.
const scriptMissingKey = "extDriverScriptMissing"

// callScript invokes fn of the named helper script with args. The call is a
// single round trip while the helper is loaded; otherwise the helper is
// loaded with EnsureScript and the call repeated once.
func callScript(ctx context.Context, s api.Session, name, fn string, args ...any) (any, error) {
	script := fmt.Sprintf(
		"var ns = globalThis.%[1]s, h = ns && ns.%[2]s; if (!h) { return {%[4]s: %[2]q}; } return h.%[3]s.apply(h, arguments);",
		ScriptNamespace, name, fn, scriptMissingKey)

	v, err := s.ExecuteScript(ctx, script, args...)
	if err != nil || !scriptMissing(v) {
		return v, err
	}
	if err := EnsureScript(ctx, s, name); err != nil {
		return nil, err
	}
	return s.ExecuteScript(ctx, script, args...)
}

func scriptMissing(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	_, missing := m[scriptMissingKey]
	return missing
}

// truthy follows JavaScript truthiness for probe results.
func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0 && !math.IsNaN(v)
	case string:
		return v != ""
	default:
		return true
	}
}

// toElements reads a probe result holding zero or more elements.
func toElements(v any) ([]api.ElementHandle, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case api.ElementHandle:
		return []api.ElementHandle{v}, nil
	case []any:
		els := make([]api.ElementHandle, 0, len(v))
		for i, e := range v {
			if e == nil {
				continue
			}
			el, ok := e.(api.ElementHandle)
			if !ok {
				return nil, fmt.Errorf("%w: item %d is %T, not an element", ErrUnexpectedResult, i, e)
			}
			els = append(els, el)
		}
		return els, nil
	default:
		return nil, fmt.Errorf("%w: %T is not a list of elements", ErrUnexpectedResult, v)
	}
}

// toElement reads a probe result holding at most one element.
func toElement(v any) (api.ElementHandle, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case api.ElementHandle:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %T is not an element", ErrUnexpectedResult, v)
	}
}
