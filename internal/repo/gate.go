package repo

import "context"

// gate admits one holder at a time.
type gate chan struct{}

func newGate() gate { return make(gate, 1) }

func (g gate) acquire(ctx context.Context, done <-chan struct{}) error {
	select {
	case g <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return ErrClosed
	}
}

func (g gate) release() { <-g }
