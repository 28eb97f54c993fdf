package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoreAjax(t *testing.T) {
	t.Parallel()

	p := newExtPage(t, `Ext.later(function () {}, 60);`)
	core := NewCore(p)
	ctx := context.Background()

	busy, err := core.IsAjaxRequestInProgress(ctx)
	require.NoError(t, err)
	assert.True(t, busy)

	require.NoError(t, core.WaitForNoAjaxRequestsInProgress(ctx, fastSpec))

	busy, err = core.IsAjaxRequestInProgress(ctx)
	require.NoError(t, err)
	assert.False(t, busy)
}

func TestCoreAjaxChained(t *testing.T) {
	t.Parallel()

	// A second request starts right after the first one ends. Only a
	// confirmed quiet period counts as idle.
	p := newExtPage(t, `Ext.later(function () {
		setTimeout(function () {
			Ext.later(function () { globalThis.second = true; }, 80);
		}, 5);
	}, 40);`)
	core := NewCore(p)
	ctx := context.Background()

	spec := fastSpec
	spec.RecheckDelay = 30 * time.Millisecond
	require.NoError(t, core.WaitForNoAjaxRequestsInProgress(ctx, spec))

	done, err := p.ExecuteScript(ctx, "return !!globalThis.second;")
	require.NoError(t, err)
	assert.Equal(t, true, done)
}

func TestCoreAjaxTimeout(t *testing.T) {
	t.Parallel()

	p := newExtPage(t, `Ext.Ajax.pending = 1;`)
	spec := fastSpec
	spec.Timeout = 50 * time.Millisecond

	err := NewCore(p).WaitForNoAjaxRequestsInProgress(context.Background(), spec)
	require.ErrorIs(t, err, ErrTimedOut)
	assert.EqualError(t, err, "waiting for no ajax requests in progress timed out after 50ms")
}

func TestCoreWaitForDOMReady(t *testing.T) {
	t.Parallel()

	p := newExtPage(t, `Ext.isDomReady = false; setTimeout(function () { Ext.isDomReady = true; }, 30);`)
	require.NoError(t, NewCore(p).WaitForDOMReady(context.Background(), fastSpec))
}
