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

// Grid finds and clicks grid rows. A row is addressed by its index (an int)
// or by a map of record fields it must match.
type Grid struct {
	session api.Session
	store   *Store
	core    *Core
}

// NewGrid returns a Grid bound to s.
func NewGrid(s api.Session) *Grid {
	return &Grid{session: s, store: NewStore(s), core: NewCore(s)}
}

// GetRow returns the element of the row. When the row is missing it returns
// a *RowNotFoundError if throw is set and a nil element otherwise.
func (g *Grid) GetRow(ctx context.Context, grid string, rowData any, throw bool) (api.ElementHandle, error) {
	el, err := findRow(ctx, g.session, grid, rowData)
	if err != nil {
		return nil, err
	}
	if el == nil && throw {
		return nil, &RowNotFoundError{Grid: grid, RowData: rowData}
	}
	return el, nil
}

// WaitForRow waits for the row to show up, reloading the grid's store after
// every miss. A zero spec.Timeout means DefaultReloadTimeout.
func (g *Grid) WaitForRow(ctx context.Context, grid string, rowData any, spec PollSpec) (api.ElementHandle, error) {
	spec = spec.withDefaults(DefaultReloadTimeout, 0).failOnTimeout()
	reload := g.store.Reloader(grid, PollSpec{PollInterval: spec.PollInterval})
	cond := ReloadAndRecheck(RowFound(grid, rowData), reload)
	return WaitUntil(ctx, g.session, cond, spec)
}

// ClickRow clicks the row, failing with a *RowNotFoundError if it is missing.
func (g *Grid) ClickRow(ctx context.Context, grid string, rowData any) error {
	row, err := g.GetRow(ctx, grid, rowData, true)
	if err != nil {
		return err
	}
	GetLogger(ctx).Infof("grid", "clicking row %v on grid %q", rowData, grid)
	return row.Click(ctx)
}

// WaitToClickRow waits for the row like WaitForRow, lets pending Ajax
// requests settle and clicks the row.
func (g *Grid) WaitToClickRow(ctx context.Context, grid string, rowData any, spec PollSpec) error {
	if _, err := g.WaitForRow(ctx, grid, rowData, spec); err != nil {
		return err
	}
	if err := g.core.WaitForNoAjaxRequestsInProgress(ctx, PollSpec{}); err != nil {
		return err
	}
	return g.ClickRow(ctx, grid, rowData)
}

// IsRowSelected reports whether the row is part of the grid's selection.
func (g *Grid) IsRowSelected(ctx context.Context, grid string, rowData any) (bool, error) {
	v, err := callScript(ctx, g.session, ScriptGridHelper, "isRowSelected", grid, rowData)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

func findRow(ctx context.Context, s api.Session, grid string, rowData any) (api.ElementHandle, error) {
	v, err := callScript(ctx, s, ScriptGridHelper, "getRow", grid, rowData)
	if err != nil {
		return nil, err
	}
	return toElement(v)
}
