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
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/liuxd6825/extdriver/api"
	"github.com/liuxd6825/extdriver/trace"
)

// PollSpec controls how long and how often a condition is polled.
type PollSpec struct {
	// Timeout is the polling budget. It must be positive.
	Timeout time.Duration
	// PollInterval is the pause between two evaluations.
	// Zero means DefaultPollInterval.
	PollInterval time.Duration
	// RecheckDelay is the pause before confirming a positive reading of a
	// debounced condition. Zero disables the confirmation.
	RecheckDelay time.Duration
	// EmptyOnTimeout makes a timeout return the zero payload and no error.
	EmptyOnTimeout bool
}

func (ps PollSpec) normalize() (PollSpec, error) {
	if ps.Timeout <= 0 {
		return ps, fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalidPollSpec, ps.Timeout)
	}
	if ps.PollInterval < 0 || ps.RecheckDelay < 0 {
		return ps, fmt.Errorf("%w: intervals must not be negative", ErrInvalidPollSpec)
	}
	if ps.PollInterval == 0 {
		ps.PollInterval = DefaultPollInterval
	}
	return ps, nil
}

// WaitUntil evaluates cond until it is satisfied and returns its payload.
//
// When the budget runs out it returns a *TimeoutError, or the zero payload
// and a nil error if spec.EmptyOnTimeout is set. Errors from cond and from
// ctx are returned as they are and stop polling at once.
// Sleeps go through the Clock attached to ctx and never overshoot the
// deadline, so a wait ends within Timeout + PollInterval + RecheckDelay
// plus the duration of one evaluation.
func WaitUntil[T any](ctx context.Context, s api.Session, cond Condition[T], spec PollSpec) (T, error) {
	var zero T

	spec, err := spec.normalize()
	if err != nil {
		return zero, err
	}

	var (
		clk      = GetClock(ctx)
		logger   = GetLogger(ctx)
		desc     = cond.Describe()
		debounce = spec.RecheckDelay > 0 && IsDebounced(cond)
		start    = clk.Now()
		attempts int
	)

	if outer, ok := waitDeadline(ctx); ok {
		remaining := outer.Sub(start)
		if remaining <= 0 {
			logger.Debugf("wait", "%s: the enclosing wait has no budget left", desc)
			if spec.EmptyOnTimeout {
				return zero, nil
			}
			return zero, &TimeoutError{Description: desc, Timeout: 0}
		}
		if remaining < spec.Timeout {
			spec.Timeout = remaining
		}
	}
	deadline := start.Add(spec.Timeout)
	ctx = withWaitDeadline(ctx, deadline)

	ctx, span := GetTracer(ctx).TraceWait(ctx, desc.Kind, desc.Selector)
	defer span.End()
	if desc.Root != "" {
		span.SetAttributes(attribute.String("wait.root", desc.Root))
	}
	span.SetAttributes(attribute.String("wait.timeout", spec.Timeout.String()))
	defer func() {
		span.SetAttributes(attribute.Int("wait.attempts", attempts))
	}()

	evaluate := func() (T, bool, error) {
		if err := ctx.Err(); err != nil {
			return zero, false, err
		}
		attempts++
		v, ok, err := cond.Evaluate(ctx, s)
		// A wait nested in cond that used up our budget is a miss, so the
		// timeout below names cond rather than the nested wait.
		if errors.Is(err, ErrTimedOut) && !clk.Now().Before(deadline) {
			logger.Tracef("wait", "%s: nested wait ran out of time: %v", desc, err)
			return zero, false, nil
		}
		return v, ok, err
	}

	logger.Debugf("wait", "waiting for %s timeout:%s interval:%s recheck:%t",
		desc, spec.Timeout, spec.PollInterval, debounce)

	for {
		v, ok, err := evaluate()
		if err != nil {
			trace.Fail(span, err)
			logger.Debugf("wait", "waiting for %s stopped after %d attempts: %v", desc, attempts, err)
			return zero, err
		}
		if ok && debounce {
			logger.Tracef("wait", "%s satisfied, confirming in %s", desc, spec.RecheckDelay)
			clk.Sleep(spec.RecheckDelay)
			if v, ok, err = evaluate(); err != nil {
				trace.Fail(span, err)
				return zero, err
			}
			if !ok {
				logger.Tracef("wait", "%s bounced", desc)
			}
		}
		if ok {
			logger.Debugf("wait", "%s satisfied after %d attempts in %s", desc, attempts, clk.Now().Sub(start))
			return v, nil
		}

		elapsed := clk.Now().Sub(start)
		if elapsed >= spec.Timeout {
			terr := &TimeoutError{Description: desc, Timeout: spec.Timeout}
			trace.Fail(span, terr)
			if spec.EmptyOnTimeout {
				logger.Debugf("wait", "%s, returning empty result", terr)
				return zero, nil
			}
			return zero, terr
		}

		logger.Tracef("wait", "%s not satisfied on attempt %d", desc, attempts)
		clk.Sleep(min(spec.PollInterval, spec.Timeout-elapsed))
	}
}

// WaitUntilSingle waits for cond to find elements and requires exactly one.
//
// It reports a timeout even when spec.EmptyOnTimeout is set, and fails
// with a *MultipleMatchesError without retrying when more than one element
// matched.
func WaitUntilSingle(
	ctx context.Context, s api.Session, cond Condition[[]api.ElementHandle], spec PollSpec,
) (api.ElementHandle, error) {
	spec.EmptyOnTimeout = false

	els, err := WaitUntil(ctx, s, cond, spec)
	if err != nil {
		return nil, err
	}

	switch len(els) {
	case 1:
		return els[0], nil
	case 0:
		return nil, fmt.Errorf("%s: %w", cond.Describe(), ErrComponentNotFound)
	default:
		return nil, &MultipleMatchesError{Description: cond.Describe(), Count: len(els)}
	}
}
