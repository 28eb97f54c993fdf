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

// CSS selectors of the parts of a tree node element.
const (
	NodeIconSelector     = ".x-tree-icon"
	NodeExpanderSelector = ".x-tree-expander"
	NodeTextSelector     = ".x-tree-node-text"
)

// Tree finds and reloads tree nodes. A node is addressed by its text (a
// string) or by a map of node data paths it must match, such as
// {"data.id": 7}.
type Tree struct {
	session api.Session
}

// NewTree returns a Tree bound to s.
func NewTree(s api.Session) *Tree {
	return &Tree{session: s}
}

// IsTreeLoading reports whether any branch of the tree is loading.
func (t *Tree) IsTreeLoading(ctx context.Context, tree string) (bool, error) {
	v, err := callScript(ctx, t.session, ScriptTreeHelper, "isTreeLoading", tree)
	if err != nil {
		return false, err
	}
	return truthy(v), nil
}

// WaitUntilTreeNotLoading waits until the tree reads as idle twice,
// spec.RecheckDelay apart.
// Zero values mean DefaultIdleTimeout and DefaultRecheckDelay.
func (t *Tree) WaitUntilTreeNotLoading(ctx context.Context, tree string, spec PollSpec) error {
	spec = spec.withDefaults(DefaultIdleTimeout, DefaultRecheckDelay).failOnTimeout()
	_, err := WaitUntil(ctx, t.session, TreeNotLoading(tree), spec)
	return err
}

// GetNodeElement waits for the tree to stop loading and returns the element
// of the node, or of its child matching cssSelector when not empty.
// root, when not nil, is the text or data of an ancestor to search under.
// A missing node is a *NodeNotFoundError if throw is set and a nil element
// otherwise.
func (t *Tree) GetNodeElement(
	ctx context.Context, tree string, node any, cssSelector string, root any, throw bool,
) (api.ElementHandle, error) {
	if err := t.WaitUntilTreeNotLoading(ctx, tree, PollSpec{}); err != nil {
		return nil, err
	}
	el, err := findNode(ctx, t.session, tree, node, root, cssSelector)
	if err != nil {
		return nil, err
	}
	if el == nil && throw {
		return nil, &NodeNotFoundError{Tree: tree, Node: node, Root: root, CSS: cssSelector}
	}
	return el, nil
}

// ReloadNode reloads the node and its children and waits for the tree to
// finish loading.
func (t *Tree) ReloadNode(ctx context.Context, tree string, node, root any) error {
	return t.reloadNode(ctx, tree, node, root, PollSpec{})
}

func (t *Tree) reloadNode(ctx context.Context, tree string, node, root any, spec PollSpec) error {
	if err := t.WaitUntilTreeNotLoading(ctx, tree, spec); err != nil {
		return err
	}
	GetLogger(ctx).Infof("tree", "reloading node %v on tree %q", node, tree)
	if _, err := callScript(ctx, t.session, ScriptTreeHelper, "reloadNode", tree, node, root); err != nil {
		return err
	}
	return t.WaitUntilTreeNotLoading(ctx, tree, spec)
}

// WaitForTreeNode waits for the node to show up under parent, reloading
// parent after every miss, and returns the node's icon element.
// A zero spec.Timeout means DefaultReloadTimeout.
func (t *Tree) WaitForTreeNode(ctx context.Context, tree string, node, parent any, spec PollSpec) (api.ElementHandle, error) {
	spec = spec.withDefaults(DefaultReloadTimeout, 0).failOnTimeout()
	idle := PollSpec{PollInterval: spec.PollInterval, RecheckDelay: spec.RecheckDelay}
	cond := ReloadAndRecheck(
		NodeFound(tree, node, parent, NodeIconSelector),
		func(ctx context.Context, _ api.Session) error {
			return t.reloadNode(ctx, tree, parent, nil, idle)
		},
	)
	return WaitUntil(ctx, t.session, cond, spec)
}

func findNode(ctx context.Context, s api.Session, tree string, node, root any, cssSelector string) (api.ElementHandle, error) {
	v, err := callScript(ctx, s, ScriptTreeHelper, "getNodeElement", tree, node, optional(cssSelector), root)
	if err != nil {
		return nil, err
	}
	return toElement(v)
}
