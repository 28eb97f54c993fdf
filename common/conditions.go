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

	"github.com/liuxd6825/extdriver/api"
)

// ElementsFound is satisfied when the component query matches at least one
// component. The payload is the matched elements.
func ElementsFound(selector, root, cssSelector string) Condition[[]api.ElementHandle] {
	return NewCondition(Description{Kind: "component query", Selector: selector, Root: root},
		func(ctx context.Context, s api.Session) ([]api.ElementHandle, bool, error) {
			els, err := queryComponents(ctx, s, selector, root, cssSelector)
			if err != nil {
				return nil, false, err
			}
			return els, len(els) > 0, nil
		})
}

// ServiceIdle is satisfied when the page has no Ajax request in flight.
func ServiceIdle() Condition[bool] {
	return Debounce[bool](NewCondition(Description{Kind: "no ajax requests in progress"},
		func(ctx context.Context, s api.Session) (bool, bool, error) {
			v, err := callScript(ctx, s, ScriptCore, "isAjaxRequestInProgress")
			if err != nil {
				return false, false, err
			}
			idle := !truthy(v)
			return idle, idle, nil
		}))
}

// TreeNotLoading is satisfied when no branch of the tree is loading.
func TreeNotLoading(treeSelector string) Condition[bool] {
	return Debounce[bool](NewCondition(Description{Kind: "tree to finish loading", Selector: treeSelector},
		func(ctx context.Context, s api.Session) (bool, bool, error) {
			v, err := callScript(ctx, s, ScriptTreeHelper, "isTreeLoading", treeSelector)
			if err != nil {
				return false, false, err
			}
			done := !truthy(v)
			return done, done, nil
		}))
}

// CollectionLoaded is satisfied once the store behind storeHolderSelector
// has loaded at least once since its load counter was reset.
func CollectionLoaded(storeHolderSelector string) Condition[bool] {
	return NewCondition(Description{Kind: "store to load", Selector: storeHolderSelector},
		func(ctx context.Context, s api.Session) (bool, bool, error) {
			v, err := callScript(ctx, s, ScriptStoreHelper, "isStoreLoaded", storeHolderSelector)
			if err != nil {
				return false, false, err
			}
			loaded := truthy(v)
			return loaded, loaded, nil
		})
}

// RowFound is satisfied when the grid shows the row at index rowData
// (an int) or the row whose record fields equal rowData (a map).
func RowFound(gridSelector string, rowData any) Condition[api.ElementHandle] {
	return NewCondition(Description{Kind: "row " + describeData(rowData) + " on grid", Selector: gridSelector},
		func(ctx context.Context, s api.Session) (api.ElementHandle, bool, error) {
			el, err := findRow(ctx, s, gridSelector, rowData)
			return el, el != nil, err
		})
}

// NodeFound is satisfied when the tree shows the node matched by node
// (its text or a map of node data), searched under root when root is not nil.
// A tree that is still loading reads as not found.
func NodeFound(treeSelector string, node, root any, cssSelector string) Condition[api.ElementHandle] {
	desc := Description{Kind: "node " + describeData(node) + " on tree", Selector: treeSelector}
	if root != nil {
		desc.Root = describeData(root)
	}
	return NewCondition(desc, func(ctx context.Context, s api.Session) (api.ElementHandle, bool, error) {
		loading, err := callScript(ctx, s, ScriptTreeHelper, "isTreeLoading", treeSelector)
		if err != nil || truthy(loading) {
			return nil, false, err
		}
		el, err := findNode(ctx, s, treeSelector, node, root, cssSelector)
		return el, el != nil, err
	})
}

// DOMReady is satisfied once the framework reports the document ready.
func DOMReady() Condition[bool] {
	return NewCondition(Description{Kind: "DOM to be ready"},
		func(ctx context.Context, s api.Session) (bool, bool, error) {
			v, err := s.ExecuteScript(ctx, "return !!(globalThis.Ext && globalThis.Ext.isDomReady);")
			if err != nil {
				return false, false, err
			}
			ready := truthy(v)
			return ready, ready, nil
		})
}

func describeData(data any) string {
	if s, ok := data.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", data)
}
