package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"cubectl/internal/backend"
	"cubectl/internal/lifecycle"
	"cubectl/pkg/logging"
)

// errAlreadyAwaited is returned by a second Await on the same Pending.
var errAlreadyAwaited = errors.New("action already awaited")

// transition describes one action from request to reconciliation. Every
// action, optimistic or not, is executed by runTransition.
type transition struct {
	target Target
	action lifecycle.Action
	// label names the entity in notices, e.g. "cube web".
	label string

	// apply validates the action and applies the optimistic state. It runs
	// under the coordinator lock, before the target is marked in flight.
	apply func() error
	// request performs the single backend call.
	request func(context.Context) (backend.ActionResult, error)
	// confirm applies the confirmed transition to the store.
	confirm func(backend.ActionResult) error
	// revert restores a consistent state after a failed request.
	revert func(error)
	// after runs once the target is no longer in flight, e.g. a refetch.
	after func(context.Context)

	successMessage string
}

// Pending is an action whose optimistic transition has been applied and
// whose backend request has not completed yet.
type Pending struct {
	c       *Coordinator
	t       *transition
	awaited atomic.Bool
}

// Target returns the entity the action applies to.
func (p *Pending) Target() Target { return p.t.target }

// Action returns the pending action.
func (p *Pending) Action() lifecycle.Action { return p.t.action }

// Await issues the backend request and reconciles the store with its
// outcome. Failures revert the optimistic transition, produce one error
// notice and are returned.
func (p *Pending) Await(ctx context.Context) error {
	if !p.awaited.CompareAndSwap(false, true) {
		return errAlreadyAwaited
	}
	return p.c.await(ctx, p.t)
}

// begin marks t's target in flight after a successful apply.
func (c *Coordinator) begin(t *transition) (*Pending, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.target.ID != "" && c.inFlight.Has(t.target.key()) {
		return nil, fmt.Errorf("%s: %w", t.target, ErrActionInFlight)
	}
	if t.apply != nil {
		if err := t.apply(); err != nil {
			return nil, err
		}
	}
	if t.target.ID != "" {
		c.inFlight.Insert(t.target.key())
	}
	logging.Debug("Coordinator", "Began %s on %s", t.action, t.target)
	return &Pending{c: c, t: t}, nil
}

func (c *Coordinator) await(ctx context.Context, t *transition) error {
	res, err := t.request(ctx)
	if err == nil && t.confirm != nil {
		err = t.confirm(res)
	}
	if err != nil && t.revert != nil {
		t.revert(err)
	}

	c.mu.Lock()
	c.inFlight.Delete(t.target.key())
	c.mu.Unlock()

	if err != nil {
		logging.Error("Coordinator", err, "Failed to %s %s", t.action, t.label)
		c.notifier.Notify(newNotice(NoticeError, t.target, t.action,
			fmt.Sprintf("Failed to %s %s: %v", t.action, t.label, err), err))
		return fmt.Errorf("%s %s: %w", t.action, t.label, err)
	}

	msg := res.Message
	if msg == "" {
		msg = t.successMessage
	}
	logging.Info("Coordinator", "%s %s: %s", t.action, t.label, msg)
	c.notifier.Notify(newNotice(NoticeSuccess, t.target, t.action, msg, nil))

	if t.after != nil {
		t.after(ctx)
	}
	return nil
}

// runTransition begins and awaits t.
func (c *Coordinator) runTransition(ctx context.Context, t *transition) error {
	p, err := c.begin(t)
	if err != nil {
		return err
	}
	return p.Await(ctx)
}
