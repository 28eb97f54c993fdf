package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/liuxd6825/extdriver/api"
)

// Observable waits for events fired by components or by the observables
// they own, such as their stores.
type Observable struct {
	session api.Session
}

// NewObservable returns an Observable bound to s.
func NewObservable(s api.Session) *Observable {
	return &Observable{session: s}
}

// WaitForEvent waits for event to fire on the single component matched by
// selector. When member is not empty the event is awaited on the observable
// the component's member yields instead; a member that is a method is
// called. The listener is armed when WaitForEvent is called, so events
// fired earlier are not seen.
// A zero spec.Timeout means DefaultTimeout.
func (o *Observable) WaitForEvent(ctx context.Context, selector, event, member string, spec PollSpec) error {
	spec = spec.withDefaults(DefaultTimeout, 0).failOnTimeout()

	GetLogger(ctx).Debugf("observable", "listening for %q on %q member:%q", event, selector, member)
	v, err := callScript(ctx, o.session, ScriptObservableHelper, "listen", selector, event, member)
	if err != nil {
		return err
	}
	id, reason, err := readListener(v)
	if err != nil {
		return err
	}
	if reason != "" {
		return &WaitForEventError{Selector: selector, Event: event, Member: member, Reason: reason}
	}

	_, err = WaitUntil(ctx, o.session, EventFired(id, selector, event), spec)
	if err == nil {
		return nil
	}

	// The page may stay up after a failed wait; drop the listener.
	if _, rerr := callScript(context.WithoutCancel(ctx), o.session, ScriptObservableHelper, "release", id); rerr != nil {
		GetLogger(ctx).Warnf("observable", "releasing listener for %q on %q: %v", event, selector, rerr)
	}
	if errors.Is(err, ErrTimedOut) {
		return &WaitForEventError{Selector: selector, Event: event, Member: member, Reason: reasonEventTimeout, Err: err}
	}
	return err
}

// EventFired is satisfied once the listener armed under id has seen its event.
func EventFired(id, selector, event string) Condition[bool] {
	return NewCondition(Description{Kind: "event " + event + " on", Selector: selector},
		func(ctx context.Context, s api.Session) (bool, bool, error) {
			v, err := callScript(ctx, s, ScriptObservableHelper, "hasFired", id)
			if err != nil {
				return false, false, err
			}
			fired := truthy(v)
			return fired, fired, nil
		})
}

func readListener(v any) (id, reason string, err error) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", "", fmt.Errorf("%w: %T is not a listener", ErrUnexpectedResult, v)
	}
	if r, ok := m["error"].(string); ok {
		return "", r, nil
	}
	if id, ok := m["id"].(string); ok {
		return id, "", nil
	}
	return "", "", fmt.Errorf("%w: listener without id", ErrUnexpectedResult)
}
