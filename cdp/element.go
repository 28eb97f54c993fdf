package cdp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	cdpruntime "github.com/chromedp/cdproto/runtime"

	"github.com/liuxd6825/extdriver/api"
)

// ErrNotVisible is returned when clicking an element with no clickable area.
var ErrNotVisible = errors.New("element is not visible")

var _ api.ElementHandle = &Element{}

// Element is a DOM node held by remote object ID.
type Element struct {
	session  *Session
	objectID cdpruntime.RemoteObjectID
}

// ID returns the remote object ID of the node.
func (e *Element) ID() string {
	return string(e.objectID)
}

// Click scrolls the element into view and clicks the middle of it with
// the left mouse button.
func (e *Element) Click(ctx context.Context) error {
	ctx = cdp.WithExecutor(ctx, e.session.conn)

	if err := dom.ScrollIntoViewIfNeeded().WithObjectID(e.objectID).Do(ctx); err != nil {
		if strings.Contains(err.Error(), "Node does not have a layout object") {
			return ErrNotVisible
		}
		return fmt.Errorf("scrolling element into view: %w", err)
	}

	x, y, err := e.clickablePoint(ctx)
	if err != nil {
		return err
	}
	e.session.logger.Debugf("cdp:element", "click on %s at (%.1f, %.1f)", e.objectID, x, y)

	for _, typ := range []input.MouseType{input.MousePressed, input.MouseReleased} {
		action := input.DispatchMouseEvent(typ, x, y).WithButton(input.Left).WithClickCount(1)
		if err := action.Do(ctx); err != nil {
			return fmt.Errorf("dispatching %s: %w", typ, err)
		}
	}
	return nil
}

func (e *Element) clickablePoint(ctx context.Context) (float64, float64, error) {
	quads, err := dom.GetContentQuads().WithObjectID(e.objectID).Do(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("requesting node content quads: %w", err)
	}
	for _, q := range quads {
		if len(q) != 8 || quadArea(q) <= 1 {
			continue
		}
		var x, y float64
		for i := 0; i < 8; i += 2 {
			x += q[i]
			y += q[i+1]
		}
		return x / 4, y / 4, nil
	}
	return 0, 0, ErrNotVisible
}

// quadArea is the shoelace area of a four point polygon.
func quadArea(q dom.Quad) float64 {
	var area float64
	for i := 0; i < 8; i += 2 {
		j := (i + 2) % 8
		area += q[i]*q[j+1] - q[j]*q[i+1]
	}
	return math.Abs(area) / 2
}
