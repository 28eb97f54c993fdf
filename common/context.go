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
	"time"

	"github.com/benbjohnson/clock"

	"github.com/liuxd6825/extdriver/log"
	"github.com/liuxd6825/extdriver/trace"
)

// Clock is the time source of the poller.
// It is satisfied by clock.Clock from github.com/benbjohnson/clock.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// DefaultClock is the wall clock.
var DefaultClock Clock = clock.New() //nolint:gochecknoglobals

type ctxKey int

const (
	ctxKeyClock ctxKey = iota
	ctxKeyLogger
	ctxKeyTracer
	ctxKeyDeadline
)

// WithClock attaches the clock the poller sleeps on.
func WithClock(ctx context.Context, c Clock) context.Context {
	return context.WithValue(ctx, ctxKeyClock, c)
}

// GetClock returns the clock attached to ctx or DefaultClock.
func GetClock(ctx context.Context) Clock {
	if c, ok := ctx.Value(ctxKeyClock).(Clock); ok && c != nil {
		return c
	}
	return DefaultClock
}

// WithLogger attaches the logger used by waits and helpers.
func WithLogger(ctx context.Context, logger *log.Logger) context.Context {
	return context.WithValue(ctx, ctxKeyLogger, logger)
}

// GetLogger returns the logger attached to ctx or a null logger.
func GetLogger(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(ctxKeyLogger).(*log.Logger); ok && l != nil {
		return l
	}
	return log.NewNullLogger()
}

// WithTracer attaches the tracer that records wait spans.
func WithTracer(ctx context.Context, tracer *trace.Tracer) context.Context {
	return context.WithValue(ctx, ctxKeyTracer, tracer)
}

// GetTracer returns the tracer attached to ctx or a noop tracer.
func GetTracer(ctx context.Context) *trace.Tracer {
	if t, ok := ctx.Value(ctxKeyTracer).(*trace.Tracer); ok && t != nil {
		return t
	}
	return trace.NewNoopTracer()
}

// withWaitDeadline records when the innermost running wait gives up.
func withWaitDeadline(ctx context.Context, deadline time.Time) context.Context {
	return context.WithValue(ctx, ctxKeyDeadline, deadline)
}

// waitDeadline returns the deadline of the wait ctx runs under, if any.
// Waits started from a condition never outlive it.
func waitDeadline(ctx context.Context) (time.Time, bool) {
	d, ok := ctx.Value(ctxKeyDeadline).(time.Time)
	return d, ok
}
