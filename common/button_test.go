package common

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const buttonLayout = `
Ext.create('panel', {id: 'main', items: [
	{xtype: 'button', id: 'save', text: 'Save', handler: function () { globalThis.saved = true; }},
	{xtype: 'button', id: 'delete', text: 'Delete', disabled: true}
]});
Ext.create('messagebox', {id: 'confirm', items: [
	{xtype: 'button', id: 'ok', text: 'OK', handler: function (b) { b.ownerCt.hide(); }}
]});
`

func TestButtonClick(t *testing.T) {
	t.Parallel()

	p := newExtPage(t, buttonLayout)
	b := NewButton(p)
	ctx := context.Background()

	require.NoError(t, b.ClickButtonByText(ctx, "Save", ""))
	saved, err := p.ExecuteScript(ctx, "return !!globalThis.saved;")
	require.NoError(t, err)
	assert.Equal(t, true, saved)

	require.NoError(t, b.ClickMessageBoxButton(ctx, "OK"))
	visible, err := p.ExecuteScript(ctx, "return Ext.getCmp('confirm').isVisible();")
	require.NoError(t, err)
	assert.Equal(t, false, visible)

	require.NoError(t, b.ClickButton(ctx, "#save", "main"))
	assert.Equal(t, []string{"save", "ok", "save"}, p.Clicks())
}

func TestButtonState(t *testing.T) {
	t.Parallel()

	b := NewButton(newExtPage(t, buttonLayout))
	ctx := context.Background()

	require.NoError(t, b.CheckButtonEnabled(ctx, "Save", ""))
	require.NoError(t, b.CheckButtonDisabled(ctx, "Delete", ""))

	ctx, cancel := context.WithTimeout(ctx, 300*time.Millisecond)
	defer cancel()
	err := b.CheckButtonEnabled(ctx, "Delete", "")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestButtonSelector(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `button[text="Save"][disabled=false]`, buttonSelector("Save", false))
	assert.Equal(t, `button[text="Delete"][disabled=true]`, buttonSelector("Delete", true))
}
