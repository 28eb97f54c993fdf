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

// Package api declares the contracts between the wait engine, the widget
// helpers and the browser drivers.
package api

import "context"

// Session is a live browser page that scripts can be evaluated against.
//
// ExecuteScript evaluates script as the body of a function, with args
// available as `arguments`, and returns what the function returned.
// Values are converted to nil, bool, float64, string, []any, map[string]any
// or ElementHandle.
// Implementations must not retry: an error means the probe itself failed.
type Session interface {
	ExecuteScript(ctx context.Context, script string, args ...any) (any, error)
}

// SessionCloser is a Session that owns resources.
type SessionCloser interface {
	Session
	Close() error
}
