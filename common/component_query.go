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
	"fmt"
	"strings"
	"time"

	"github.com/liuxd6825/extdriver/api"
)

const visibleFilter = "{isVisible(true)}"

// ComponentQuery finds components with the framework's component query
// language and returns their elements.
type ComponentQuery struct {
	session api.Session
}

// NewComponentQuery returns a ComponentQuery bound to s.
func NewComponentQuery(s api.Session) *ComponentQuery {
	return &ComponentQuery{session: s}
}

// Query runs selector once. root is the id of a component to search
// under and cssSelector picks child elements of each match. Both may be empty.
func (cq *ComponentQuery) Query(ctx context.Context, selector, root, cssSelector string) ([]api.ElementHandle, error) {
	return queryComponents(ctx, cq.session, selector, root, cssSelector)
}

// WaitForQuery polls selector until it matches. A zero spec.Timeout means
// DefaultTimeout.
func (cq *ComponentQuery) WaitForQuery(
	ctx context.Context, selector, root, cssSelector string, spec PollSpec,
) ([]api.ElementHandle, error) {
	spec = spec.withDefaults(DefaultTimeout, 0)
	return WaitUntil(ctx, cq.session, ElementsFound(selector, root, cssSelector), spec)
}

// WaitForSingleQuery polls selector until it matches and requires exactly one match.
func (cq *ComponentQuery) WaitForSingleQuery(
	ctx context.Context, selector, root, cssSelector string, spec PollSpec,
) (api.ElementHandle, error) {
	spec = spec.withDefaults(DefaultTimeout, 0)
	return WaitUntilSingle(ctx, cq.session, ElementsFound(selector, root, cssSelector), spec)
}

// WaitForSingleQueryVisible is WaitForSingleQuery restricted to visible components.
func (cq *ComponentQuery) WaitForSingleQueryVisible(
	ctx context.Context, selector, root, cssSelector string, spec PollSpec,
) (api.ElementHandle, error) {
	return cq.WaitForSingleQuery(ctx, VisibleSelector(selector), root, cssSelector, spec)
}

// IsComponentInstanceOf reports whether every component matched by
// selector is an instance of className. It returns an error wrapping
// ErrComponentNotFound when nothing matched.
func (cq *ComponentQuery) IsComponentInstanceOf(ctx context.Context, className, selector, root string) (bool, error) {
	v, err := callScript(ctx, cq.session, ScriptComponentQuery, "isComponentInstanceOf", className, selector, root)
	if err != nil {
		return false, err
	}
	if v == nil {
		desc := Description{Kind: "component query", Selector: selector, Root: root}
		return false, fmt.Errorf("%s: %w", desc, ErrComponentNotFound)
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %T is not a boolean", ErrUnexpectedResult, v)
	}
	return b, nil
}

// VisibleSelector restricts selector to visible components.
func VisibleSelector(selector string) string {
	if strings.HasSuffix(selector, visibleFilter) {
		return selector
	}
	return selector + visibleFilter
}

func queryComponents(ctx context.Context, s api.Session, selector, root, cssSelector string) ([]api.ElementHandle, error) {
	v, err := callScript(ctx, s, ScriptComponentQuery, "query", selector, optional(root), optional(cssSelector))
	if err != nil {
		return nil, err
	}
	return toElements(v)
}

// optional turns an empty string into a JavaScript null.
func optional(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// withDefaults fills a zero Timeout and, when the caller left it unset, the
// RecheckDelay.
func (ps PollSpec) withDefaults(timeout, recheckDelay time.Duration) PollSpec {
	if ps.Timeout == 0 {
		ps.Timeout = timeout
	}
	if ps.RecheckDelay == 0 {
		ps.RecheckDelay = recheckDelay
	}
	return ps
}

// failOnTimeout clears EmptyOnTimeout for waits on a state rather than on
// a result, where an empty result would read as success.
func (ps PollSpec) failOnTimeout() PollSpec {
	ps.EmptyOnTimeout = false
	return ps
}
