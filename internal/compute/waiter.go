package compute

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/myorg/nodegroup/internal/ec2"
	"github.com/myorg/nodegroup/internal/util/retry"
)

// ErrWaitExhausted reports that a state wait ran out of its poll budget.
// Callers decide whether that is retryable (relaunch the shortfall) or
// fatal for the whole call.
var ErrWaitExhausted = errors.New("state wait exhausted")

// StateWaiter polls the provider until a set of instances reaches a target
// state, with a bounded attempt budget and a fixed inter-poll period.
type StateWaiter struct {
	client      ec2.InstanceAPI
	maxAttempts int
	period      time.Duration
}

// NewStateWaiter creates a waiter with the given poll budget.
func NewStateWaiter(client ec2.InstanceAPI, maxAttempts int, period time.Duration) *StateWaiter {
	return &StateWaiter{client: client, maxAttempts: maxAttempts, period: period}
}

var errNotYet = errors.New("instances not yet in target state")

// Await polls until every id reports the target state, the budget runs out,
// or the context is cancelled. The last snapshot seen is always returned so
// callers can salvage the subset that did reach the target; on exhaustion
// the error wraps ErrWaitExhausted. When waiting for termination, an id the
// provider no longer reports counts as terminated.
func (w *StateWaiter) Await(ctx context.Context, region string, target NodeState, ids ...string) ([]ec2.Instance, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var snapshot []ec2.Instance
	err := retry.Do(ctx, func() error {
		described, describeErr := w.client.DescribeInstances(ctx, region, ids...)
		if describeErr != nil {
			return retry.Fatal(describeErr)
		}
		snapshot = described

		byID := make(map[string]ec2.Instance, len(described))
		for _, inst := range described {
			byID[inst.ID] = inst
		}
		for _, id := range ids {
			inst, ok := byID[id]
			if !ok {
				if target == NodeTerminated {
					continue
				}
				return errNotYet
			}
			if nodeStateFrom(inst.State) != target {
				return errNotYet
			}
		}
		return nil
	}, retry.WithMaxAttempts(w.maxAttempts), retry.WithFixedInterval(w.period))

	if err != nil {
		if errors.Is(err, retry.ErrExhausted) {
			return snapshot, fmt.Errorf("%w: %d instance(s) did not reach %s within %d polls",
				ErrWaitExhausted, len(ids), target, w.maxAttempts)
		}
		return snapshot, err
	}
	return snapshot, nil
}
