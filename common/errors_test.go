package common

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "timeout",
			err:  &TimeoutError{Description: Description{Kind: "component query", Selector: "button"}, Timeout: time.Second},
			want: "waiting for component query 'button' timed out after 1s",
		},
		{
			name: "timeout with root",
			err: &TimeoutError{
				Description: Description{Kind: "component query", Selector: "button", Root: "panel-1"},
				Timeout:     10 * time.Second,
			},
			want: "waiting for component query 'button' under root 'panel-1' timed out after 10s",
		},
		{
			name: "timeout without selector",
			err:  &TimeoutError{Description: Description{Kind: "no ajax requests in progress"}, Timeout: 30 * time.Second},
			want: "waiting for no ajax requests in progress timed out after 30s",
		},
		{
			name: "multiple matches",
			err:  &MultipleMatchesError{Description: Description{Kind: "component query", Selector: "gridpanel"}, Count: 2},
			want: "expected a single match from component query 'gridpanel' but got 2",
		},
		{
			name: "row",
			err:  &RowNotFoundError{Grid: "gridpanel", RowData: 3},
			want: "failed to find row with data (or index) '3' on grid with component query 'gridpanel'",
		},
		{
			name: "node",
			err:  &NodeNotFoundError{Tree: "treepanel", Node: "Inbox", Root: "Mail", CSS: ".x-tree-icon"},
			want: "failed to find node with data (or text) 'Inbox' under root 'Mail' with CSS query '.x-tree-icon' on tree with component query 'treepanel'",
		},
		{
			name: "node without root",
			err:  &NodeNotFoundError{Tree: "treepanel", Node: "Inbox"},
			want: "failed to find node with data (or text) 'Inbox' on tree with component query 'treepanel'",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.EqualError(t, tt.err, tt.want)
		})
	}
}

func TestErrorSentinels(t *testing.T) {
	t.Parallel()

	var err error = &TimeoutError{Description: Description{Kind: "store"}}
	wrapped := fmt.Errorf("step 3: %w", err)
	assert.ErrorIs(t, wrapped, ErrTimedOut)
	assert.NotErrorIs(t, wrapped, ErrMultipleMatches)

	var te *TimeoutError
	assert.True(t, errors.As(wrapped, &te))
	assert.Equal(t, "store", te.Kind)

	assert.ErrorIs(t, &MultipleMatchesError{}, ErrMultipleMatches)
	assert.ErrorIs(t, &RowNotFoundError{}, ErrComponentNotFound)
	assert.ErrorIs(t, &NodeNotFoundError{}, ErrComponentNotFound)
}
