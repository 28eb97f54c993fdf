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

	"github.com/liuxd6825/extdriver/api"
)

// Core waits on page wide state.
type Core struct {
	session api.Session
}

// NewCore returns a Core bound to s.
func NewCore(s api.Session) *Core {
	return &Core{session: s}
}

// WaitForDOMReady waits until the framework reports the document ready.
// A zero spec.Timeout means DefaultIdleTimeout. A timeout is always an error.
func (c *Core) WaitForDOMReady(ctx context.Context, spec PollSpec) error {
	_, err := WaitUntil(ctx, c.session, DOMReady(), spec.withDefaults(DefaultIdleTimeout, 0).failOnTimeout())
	return err
}

// IsAjaxRequestInProgress reports whether an Ajax request is in flight.
func (c *Core) IsAjaxRequestInProgress(ctx context.Context) (bool, error) {
	v, err := callScript(ctx, c.session, ScriptCore, "isAjaxRequestInProgress")
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

// WaitForNoAjaxRequestsInProgress waits until no Ajax request is in flight
// on two readings taken spec.RecheckDelay apart.
// Zero values mean DefaultIdleTimeout and DefaultRecheckDelay.
func (c *Core) WaitForNoAjaxRequestsInProgress(ctx context.Context, spec PollSpec) error {
	spec = spec.withDefaults(DefaultIdleTimeout, DefaultRecheckDelay).failOnTimeout()
	_, err := WaitUntil(ctx, c.session, ServiceIdle(), spec)
	return err
}
