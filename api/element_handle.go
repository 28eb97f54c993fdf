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

package api

import "context"

// ElementHandle is an opaque reference to a DOM element living in a page
// that a Session is attached to.
type ElementHandle interface {
	// ID returns the driver specific identifier of the element.
	ID() string
	// Click performs a click on the element.
	Click(ctx context.Context) error
}
