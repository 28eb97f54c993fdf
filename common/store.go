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

// Store drives the stores of store holding components such as grids.
// Stores are addressed by a component query matching their holder.
type Store struct {
	session api.Session
}

// NewStore returns a Store bound to s.
func NewStore(s api.Session) *Store {
	return &Store{session: s}
}

// ResetStoreLoadCount zeroes the load counter of a store that does not
// auto load, so that WaitForStoreLoaded waits for the next load.
func (st *Store) ResetStoreLoadCount(ctx context.Context, storeHolder string) error {
	GetLogger(ctx).Debugf("store", "resetting load count of store on %q", storeHolder)
	_, err := callScript(ctx, st.session, ScriptStoreHelper, "resetStoreLoadCount", storeHolder)
	return err
}

// TriggerReload starts a reload of the store without waiting for it.
func (st *Store) TriggerReload(ctx context.Context, storeHolder string) error {
	GetLogger(ctx).Debugf("store", "reloading store on %q", storeHolder)
	_, err := callScript(ctx, st.session, ScriptStoreHelper, "reload", storeHolder)
	return err
}

// WaitForStoreLoaded waits until the store has loaded at least once since
// its load count was last reset. A zero spec.Timeout means DefaultIdleTimeout.
func (st *Store) WaitForStoreLoaded(ctx context.Context, storeHolder string, spec PollSpec) error {
	spec = spec.withDefaults(DefaultIdleTimeout, 0).failOnTimeout()
	_, err := WaitUntil(ctx, st.session, CollectionLoaded(storeHolder), spec)
	return err
}

// TriggerReloadAndWait resets the load count, reloads the store and waits
// for the load to complete.
func (st *Store) TriggerReloadAndWait(ctx context.Context, storeHolder string, spec PollSpec) error {
	if err := st.ResetStoreLoadCount(ctx, storeHolder); err != nil {
		return err
	}
	if err := st.TriggerReload(ctx, storeHolder); err != nil {
		return err
	}
	return st.WaitForStoreLoaded(ctx, storeHolder, spec)
}

// Reloader returns a Reloader that reloads the store and waits for it.
func (st *Store) Reloader(storeHolder string, spec PollSpec) Reloader {
	return func(ctx context.Context, _ api.Session) error {
		return st.TriggerReloadAndWait(ctx, storeHolder, spec)
	}
}
