package templatesync

import (
	"context"
	"sync"
)

// Outcome reports the result of one target's attempt in a broadcast.
type Outcome struct {
	Key string
	Err error
}

// Failed reports whether any outcome in the list carries an error.
func Failed(outcomes []Outcome) bool {
	for _, o := range outcomes {
		if o.Err != nil {
			return true
		}
	}
	return false
}

// Broadcast runs op against every target concurrently and returns one outcome
// per target, in the same order as the input. A failing target never aborts
// its siblings and nothing is rolled back; the call returns only after every
// attempt has settled. No ordering is guaranteed between targets.
func Broadcast(ctx context.Context, targets []*Target, op func(context.Context, *Target) error) []Outcome {
	outcomes := make([]Outcome, len(targets))

	var wg sync.WaitGroup
	for i, t := range targets {
		wg.Add(1)
		go func(i int, t *Target) {
			defer wg.Done()
			outcomes[i] = Outcome{Key: t.Key, Err: op(ctx, t)}
		}(i, t)
	}
	wg.Wait()

	return outcomes
}
