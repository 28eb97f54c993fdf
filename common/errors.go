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
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrTimedOut is matched by every *TimeoutError.
	ErrTimedOut = errors.New("timed out")
	// ErrMultipleMatches is matched by every *MultipleMatchesError.
	ErrMultipleMatches = errors.New("multiple matches")
	// ErrInvalidPollSpec is returned before polling when a PollSpec cannot be honoured.
	ErrInvalidPollSpec = errors.New("invalid poll spec")
	// ErrComponentNotFound is returned when a component lookup that does not wait finds nothing.
	ErrComponentNotFound = errors.New("component not found")
	// ErrScriptNotLoaded is returned when a helper script name has no embedded source.
	ErrScriptNotLoaded = errors.New("helper script not loaded")
	// ErrUnexpectedResult is returned when a probe result has a shape the condition cannot read.
	ErrUnexpectedResult = errors.New("unexpected probe result")
	// ErrEventNotReceived is matched by every *WaitForEventError.
	ErrEventNotReceived = errors.New("event not received")
)

// Description identifies what a condition waits for.
type Description struct {
	// Kind names the waited state, e.g. "component query".
	Kind string
	// Selector is the query or identifier the condition was built with. May be empty.
	Selector string
	// Root scopes the selector. May be empty.
	Root string
}

func (d Description) String() string {
	if d.Selector == "" {
		return d.Kind
	}
	return fmt.Sprintf("%s '%s'", d.Kind, d.Selector)
}

// TimeoutError is returned when a condition was not satisfied before the timeout.
type TimeoutError struct {
	Description
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Root == "" {
		return fmt.Sprintf("waiting for %s timed out after %s", e.Description, e.Timeout)
	}
	return fmt.Sprintf("waiting for %s under root '%s' timed out after %s", e.Description, e.Root, e.Timeout)
}

// Is lets errors.Is(err, ErrTimedOut) match.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimedOut
}

// MultipleMatchesError is returned when a single match was expected.
type MultipleMatchesError struct {
	Description
	Count int
}

func (e *MultipleMatchesError) Error() string {
	return fmt.Sprintf("expected a single match from %s but got %d", e.Description, e.Count)
}

// Is lets errors.Is(err, ErrMultipleMatches) match.
func (e *MultipleMatchesError) Is(target error) bool {
	return target == ErrMultipleMatches
}

// RowNotFoundError is returned by GetRow when asked to fail on a missing row.
type RowNotFoundError struct {
	Grid    string
	RowData any
}

func (e *RowNotFoundError) Error() string {
	return fmt.Sprintf("failed to find row with data (or index) '%v' on grid with component query '%s'", e.RowData, e.Grid)
}

// Is lets errors.Is(err, ErrComponentNotFound) match.
func (e *RowNotFoundError) Is(target error) bool {
	return target == ErrComponentNotFound
}

// NodeNotFoundError is returned by GetNodeElement when asked to fail on a missing node.
type NodeNotFoundError struct {
	Tree string
	Node any
	Root any
	CSS  string
}

func (e *NodeNotFoundError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "failed to find node with data (or text) '%v'", e.Node)
	if e.Root != nil {
		fmt.Fprintf(&b, " under root '%v'", e.Root)
	}
	if e.CSS != "" {
		fmt.Fprintf(&b, " with CSS query '%s'", e.CSS)
	}
	fmt.Fprintf(&b, " on tree with component query '%s'", e.Tree)
	return b.String()
}

// Is lets errors.Is(err, ErrComponentNotFound) match.
func (e *NodeNotFoundError) Is(target error) bool {
	return target == ErrComponentNotFound
}

// Reason reported by WaitForEventError when the event did not fire in time.
const reasonEventTimeout = "Event was not received."

// WaitForEventError is returned when an event could not be waited for or
// did not fire in time.
type WaitForEventError struct {
	Selector string
	Event    string
	// Member is the accessor used to reach the observable. May be empty.
	Member string
	Reason string
	// Err is the *TimeoutError when the event did not fire in time.
	Err error
}

func (e *WaitForEventError) Error() string {
	target := e.Selector
	if e.Member != "" {
		target += "[" + e.Member + "]"
	}
	return fmt.Sprintf("waiting for event '%s' on '%s' failed with error: %s", e.Event, target, e.Reason)
}

// Is lets errors.Is(err, ErrEventNotReceived) match.
func (e *WaitForEventError) Is(target error) bool {
	return target == ErrEventNotReceived
}

func (e *WaitForEventError) Unwrap() error {
	return e.Err
}
