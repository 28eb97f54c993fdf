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
	"fmt"
	"strconv"

	"github.com/liuxd6825/extdriver/api"
)

// Button clicks and checks buttons.
type Button struct {
	cq *ComponentQuery
}

// NewButton returns a Button bound to s.
func NewButton(s api.Session) *Button {
	return &Button{cq: NewComponentQuery(s)}
}

// ClickButton clicks the single visible button matched by selector.
func (b *Button) ClickButton(ctx context.Context, selector, root string) error {
	button, err := b.cq.WaitForSingleQueryVisible(ctx, selector, root, "", PollSpec{})
	if err != nil {
		return err
	}
	GetLogger(ctx).Infof("button", "clicking button %q", selector)
	return button.Click(ctx)
}

// ClickButtonByText clicks the single enabled button showing text.
func (b *Button) ClickButtonByText(ctx context.Context, text, root string) error {
	return b.ClickButton(ctx, buttonSelector(text, false), root)
}

// ClickMessageBoxButton clicks the button showing text on the visible message box.
func (b *Button) ClickMessageBoxButton(ctx context.Context, text string) error {
	return b.ClickButton(ctx, fmt.Sprintf("messagebox%s button[text=%s]", visibleFilter, strconv.Quote(text)), "")
}

// CheckButtonEnabled waits for a single enabled button showing text.
func (b *Button) CheckButtonEnabled(ctx context.Context, text, root string) error {
	_, err := b.cq.WaitForSingleQuery(ctx, buttonSelector(text, false), root, "", PollSpec{})
	return err
}

// CheckButtonDisabled waits for a single disabled button showing text.
func (b *Button) CheckButtonDisabled(ctx context.Context, text, root string) error {
	_, err := b.cq.WaitForSingleQuery(ctx, buttonSelector(text, true), root, "", PollSpec{})
	return err
}

func buttonSelector(text string, disabled bool) string {
	return textSelector("button", text, disabled)
}

// textSelector matches components of xtype by their text and disabled state.
func textSelector(xtype, text string, disabled bool) string {
	return fmt.Sprintf("%s[text=%s][disabled=%t]", xtype, strconv.Quote(text), disabled)
}
