package common

import (
	"context"
	"testing"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"

	"github.com/liuxd6825/extdriver/log"
	"github.com/liuxd6825/extdriver/trace"
)

func TestContextValues(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		assert.Equal(t, DefaultClock, GetClock(ctx))
		assert.NotNil(t, GetLogger(ctx))
		assert.NotNil(t, GetTracer(ctx))
	})
	t.Run("attached", func(t *testing.T) {
		t.Parallel()

		mock := clock.NewMock()
		logger := log.NewNullLogger()
		tracer := trace.NewNoopTracer()

		ctx := WithClock(context.Background(), mock)
		ctx = WithLogger(ctx, logger)
		ctx = WithTracer(ctx, tracer)

		assert.Same(t, mock, GetClock(ctx))
		assert.Same(t, logger, GetLogger(ctx))
		assert.Same(t, tracer, GetTracer(ctx))
	})
}
