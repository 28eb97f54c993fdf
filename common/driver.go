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

import "github.com/liuxd6825/extdriver/api"

// Driver bundles the helpers bound to one session.
type Driver struct {
	Session        api.Session
	ComponentQuery *ComponentQuery
	Core           *Core
	Store          *Store
	Grid           *Grid
	Tree           *Tree
	Button         *Button
	Menu           *Menu
	Observable     *Observable
}

// NewDriver returns the helpers for s.
func NewDriver(s api.Session) *Driver {
	return &Driver{
		Session:        s,
		ComponentQuery: NewComponentQuery(s),
		Core:           NewCore(s),
		Store:          NewStore(s),
		Grid:           NewGrid(s),
		Tree:           NewTree(s),
		Button:         NewButton(s),
		Menu:           NewMenu(s),
		Observable:     NewObservable(s),
	}
}
