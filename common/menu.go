package common

import (
	"context"

	"github.com/liuxd6825/extdriver/api"
)

// Menu clicks and checks menu items.
type Menu struct {
	cq *ComponentQuery
}

// NewMenu returns a Menu bound to s.
func NewMenu(s api.Session) *Menu {
	return &Menu{cq: NewComponentQuery(s)}
}

// ClickMenuItem clicks the single visible menu item matched by selector.
func (m *Menu) ClickMenuItem(ctx context.Context, selector, root string) error {
	item, err := m.cq.WaitForSingleQueryVisible(ctx, selector, root, "", PollSpec{})
	if err != nil {
		return err
	}
	GetLogger(ctx).Infof("menu", "clicking menu item %q", selector)
	return item.Click(ctx)
}

// ClickMenuItemByText clicks the single visible, enabled menu item showing text.
func (m *Menu) ClickMenuItemByText(ctx context.Context, text, root string) error {
	return m.ClickMenuItem(ctx, textSelector("menuitem", text, false), root)
}

func (m *Menu) CheckMenuItemEnabled(ctx context.Context, text, root string) error {
	_, err := m.cq.WaitForSingleQuery(ctx, textSelector("menuitem", text, false), root, "", PollSpec{})
	return err
}

func (m *Menu) CheckMenuItemDisabled(ctx context.Context, text, root string) error {
	_, err := m.cq.WaitForSingleQuery(ctx, textSelector("menuitem", text, true), root, "", PollSpec{})
	return err
}
