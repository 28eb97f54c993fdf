package common

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liuxd6825/extdriver/api"
)

const treeLayout = `
Ext.create('treepanel', {id: 'folders', latency: 20,
	root: {text: 'Root', children: [
		{text: 'Mail', id: 'mail', children: [{text: 'Inbox', id: 'inbox'}]},
		{text: 'Archive', id: 'archive'}
	]},
	serverChildren: {mail: [{text: 'Inbox', id: 'inbox'}, {text: 'Sent', id: 'sent'}]}
});
`

func TestTreeLoading(t *testing.T) {
	t.Parallel()

	p := newExtPage(t, treeLayout)
	tr := NewTree(p)
	ctx := context.Background()

	loading, err := tr.IsTreeLoading(ctx, "#folders")
	require.NoError(t, err)
	assert.False(t, loading)

	_, err = p.ExecuteScript(ctx, `var tree = Ext.getCmp('folders');
		tree.getStore().load({node: tree.findNode('mail')});`)
	require.NoError(t, err)

	loading, err = tr.IsTreeLoading(ctx, "#folders")
	require.NoError(t, err)
	assert.True(t, loading)

	require.NoError(t, tr.WaitUntilTreeNotLoading(ctx, "#folders", fastSpec))
}

func TestTreeGetNodeElement(t *testing.T) {
	t.Parallel()

	tr := NewTree(newExtPage(t, treeLayout))
	ctx := context.Background()

	el, err := tr.GetNodeElement(ctx, "#folders", "Inbox", NodeIconSelector, nil, true)
	require.NoError(t, err)
	assert.Equal(t, "folders-node-inbox .x-tree-icon", el.ID())

	el, err = tr.GetNodeElement(ctx, "#folders", map[string]any{"data.id": "archive"}, "", nil, true)
	require.NoError(t, err)
	assert.Equal(t, "folders-node-archive", el.ID())

	el, err = tr.GetNodeElement(ctx, "#folders", "Inbox", "", "Mail", true)
	require.NoError(t, err)
	assert.Equal(t, "folders-node-inbox", el.ID())

	el, err = tr.GetNodeElement(ctx, "#folders", "Inbox", "", "Archive", false)
	require.NoError(t, err)
	assert.Nil(t, el)

	_, err = tr.GetNodeElement(ctx, "#folders", "Inbox", NodeTextSelector, "Archive", true)
	var nerr *NodeNotFoundError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "Archive", nerr.Root)
	assert.Equal(t, NodeTextSelector, nerr.CSS)
}

func TestTreeReloadNode(t *testing.T) {
	t.Parallel()

	tr := NewTree(newExtPage(t, treeLayout))
	ctx := context.Background()

	el, err := tr.GetNodeElement(ctx, "#folders", "Sent", "", nil, false)
	require.NoError(t, err)
	assert.Nil(t, el)

	require.NoError(t, tr.ReloadNode(ctx, "#folders", "Mail", nil))

	el, err = tr.GetNodeElement(ctx, "#folders", "Sent", "", "Mail", true)
	require.NoError(t, err)
	assert.Equal(t, "folders-node-sent", el.ID())
}

func TestTreeWaitForTreeNode(t *testing.T) {
	t.Parallel()

	tr := NewTree(newExtPage(t, treeLayout))

	el, err := tr.WaitForTreeNode(context.Background(), "#folders", "Sent", "Mail", fastSpec)
	require.NoError(t, err)
	assert.Equal(t, "folders-node-sent .x-tree-icon", el.ID())
}

func TestTreeSelectorErrors(t *testing.T) {
	t.Parallel()

	p := newExtPage(t, treeLayout, `Ext.create('treepanel', {id: 'other'});`)
	tr := NewTree(p)
	ctx := context.Background()

	var serr *api.ScriptError
	_, err := tr.IsTreeLoading(ctx, "treepanel")
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Message, "matched multiple trees")

	_, err = tr.IsTreeLoading(ctx, "#nope")
	require.ErrorAs(t, err, &serr)
	assert.Contains(t, serr.Message, "did not match anything")
}
