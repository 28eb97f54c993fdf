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
	"errors"

	"github.com/liuxd6825/extdriver/api"
)

// Condition is a read-only probe of page state.
//
// Evaluate reports ok when the awaited state holds and returns its payload.
// A negative reading is ok == false with a nil error. A non-nil error is
// fatal to any wait that runs the condition.
type Condition[T any] interface {
	Evaluate(ctx context.Context, s api.Session) (T, bool, error)
	Describe() Description
}

// ConditionFunc adapts a function to a Condition.
type ConditionFunc[T any] struct {
	Description
	Func func(ctx context.Context, s api.Session) (T, bool, error)
}

// NewCondition returns a ConditionFunc described by desc.
func NewCondition[T any](desc Description, fn func(ctx context.Context, s api.Session) (T, bool, error)) ConditionFunc[T] {
	return ConditionFunc[T]{Description: desc, Func: fn}
}

// Evaluate implements Condition.
func (c ConditionFunc[T]) Evaluate(ctx context.Context, s api.Session) (T, bool, error) {
	return c.Func(ctx, s)
}

// Describe implements Condition.
func (c ConditionFunc[T]) Describe() Description {
	return c.Description
}

// debouncedCondition marks a condition whose positive reading must hold
// twice, RecheckDelay apart.
type debouncedCondition[T any] struct {
	Condition[T]
}

func (debouncedCondition[T]) debounced() {}

// Debounce marks c as a quiet-state condition: the poller only accepts a
// positive reading once a second reading taken PollSpec.RecheckDelay later
// agrees.
func Debounce[T any](c Condition[T]) Condition[T] {
	if IsDebounced(c) {
		return c
	}
	return debouncedCondition[T]{Condition: c}
}

// IsDebounced reports whether c was wrapped by Debounce.
func IsDebounced[T any](c Condition[T]) bool {
	_, ok := c.(interface{ debounced() })
	return ok
}

// Reloader refreshes the data a condition looks for. It blocks until the
// refresh is complete.
type Reloader func(ctx context.Context, s api.Session) error

// reloadCondition looks for something that may only show up after its
// backing data is reloaded.
//
//	checking --found--> done
//	checking --missing--> refreshing --reloaded--> checking (next poll)
type reloadCondition[T any] struct {
	find   Condition[T]
	reload Reloader
}

// ReloadAndRecheck returns a condition that evaluates find and, on every
// miss, calls reload exactly once before reporting the miss. The poller then
// checks again on its next attempt. A reload that times out is a miss, any
// other reload error is fatal. Waits inside reload share the budget of the
// enclosing wait.
//
// Unlike other conditions it has a side effect on every negative reading.
func ReloadAndRecheck[T any](find Condition[T], reload Reloader) Condition[T] {
	return reloadCondition[T]{find: find, reload: reload}
}

func (r reloadCondition[T]) Evaluate(ctx context.Context, s api.Session) (T, bool, error) {
	v, ok, err := r.find.Evaluate(ctx, s)
	if err != nil || ok {
		return v, ok, err
	}

	var zero T
	if err := r.reload(ctx, s); err != nil {
		if errors.Is(err, ErrTimedOut) {
			GetLogger(ctx).Debugf("wait", "reload for %s did not finish: %v", r.find.Describe(), err)
			return zero, false, nil
		}
		return zero, false, err
	}

	return zero, false, nil
}

func (r reloadCondition[T]) Describe() Description {
	return r.find.Describe()
}
