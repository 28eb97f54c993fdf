package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liuxd6825/extdriver/api"
)

const formLayout = `
Ext.create('panel', {id: 'main', items: [
	{xtype: 'button', id: 'save', text: 'Save'},
	{xtype: 'button', id: 'cancel', text: 'Cancel'},
	{xtype: 'panel', id: 'side', hidden: true, items: [{xtype: 'button', id: 'side-save', text: 'Save'}]}
]});
`

func ids(els []api.ElementHandle) []string {
	out := make([]string, 0, len(els))
	for _, el := range els {
		out = append(out, el.ID())
	}
	return out
}

func TestComponentQueryQuery(t *testing.T) {
	t.Parallel()

	cq := NewComponentQuery(newExtPage(t, formLayout))
	ctx := context.Background()

	els, err := cq.Query(ctx, "button", "", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"save", "cancel", "side-save"}, ids(els))

	els, err = cq.Query(ctx, "button", "side", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"side-save"}, ids(els))

	els, err = cq.Query(ctx, `button[text="Save"]`, "", ".x-btn-inner")
	require.NoError(t, err)
	assert.Equal(t, []string{"save .x-btn-inner", "side-save .x-btn-inner"}, ids(els))

	els, err = cq.Query(ctx, "combobox", "", "")
	require.NoError(t, err)
	assert.Empty(t, els)

	_, err = cq.Query(ctx, "button", "missing", "")
	var serr *api.ScriptError
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Message, "Failed to find root component with id 'missing'")
}

func TestComponentQueryWaitForQuery(t *testing.T) {
	t.Parallel()

	p := newExtPage(t, formLayout, `setTimeout(function () {
		Ext.getCmp('main').add({xtype: 'button', id: 'late', text: 'Late'});
	}, 50);`)
	cq := NewComponentQuery(p)
	ctx := context.Background()

	els, err := cq.WaitForQuery(ctx, `button[text="Late"]`, "", "", fastSpec)
	require.NoError(t, err)
	assert.Equal(t, []string{"late"}, ids(els))

	spec := fastSpec
	spec.Timeout = 50 * time.Millisecond
	_, err = cq.WaitForQuery(ctx, "combobox", "main", "", spec)
	require.ErrorIs(t, err, ErrTimedOut)
	assert.EqualError(t, err, "waiting for component query 'combobox' under root 'main' timed out after 50ms")

	spec.EmptyOnTimeout = true
	els, err = cq.WaitForQuery(ctx, "combobox", "", "", spec)
	require.NoError(t, err)
	assert.Empty(t, els)
}

func TestComponentQueryWaitForSingleQuery(t *testing.T) {
	t.Parallel()

	cq := NewComponentQuery(newExtPage(t, formLayout))
	ctx := context.Background()

	el, err := cq.WaitForSingleQuery(ctx, `button[text="Cancel"]`, "", "", fastSpec)
	require.NoError(t, err)
	assert.Equal(t, "cancel", el.ID())

	_, err = cq.WaitForSingleQuery(ctx, `button[text="Save"]`, "", "", fastSpec)
	var merr *MultipleMatchesError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, 2, merr.Count)

	el, err = cq.WaitForSingleQueryVisible(ctx, `button[text="Save"]`, "", "", fastSpec)
	require.NoError(t, err)
	assert.Equal(t, "save", el.ID())
}

func TestVisibleSelector(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "button{isVisible(true)}", VisibleSelector("button"))
	assert.Equal(t, "button{isVisible(true)}", VisibleSelector("button{isVisible(true)}"))
}

func TestComponentQueryIsComponentInstanceOf(t *testing.T) {
	t.Parallel()

	cq := NewComponentQuery(newExtPage(t, formLayout))
	ctx := context.Background()

	ok, err := cq.IsComponentInstanceOf(ctx, "Ext.button.Button", "button", "")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cq.IsComponentInstanceOf(ctx, "Ext.panel.Panel", "#main", "")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = cq.IsComponentInstanceOf(ctx, "Ext.button.Button", "panel", "")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = cq.IsComponentInstanceOf(ctx, "Ext.button.Button", "combobox", "")
	assert.ErrorIs(t, err, ErrComponentNotFound)

	_, err = cq.IsComponentInstanceOf(ctx, "Ext.form.Field", "button", "")
	var serr *api.ScriptError
	assert.ErrorAs(t, err, &serr)
}
