package embedding

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Limited bounds how many Embed calls run at once. Waiting for a slot
// honours ctx; a wait that ends with ctx is reported as unavailable.
type Limited struct {
	next Embedder
	sem  *semaphore.Weighted
}

// NewLimited allows at most n concurrent calls to next (n < 1 means 1).
func NewLimited(next Embedder, n int) *Limited {
	if n < 1 {
		n = 1
	}
	return &Limited{next: next, sem: semaphore.NewWeighted(int64(n))}
}

// Embed waits for a free slot and calls the wrapped embedder.
func (l *Limited) Embed(ctx context.Context, image []byte) ([]float32, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, Unavailable(l.Name(), "no free embedder slot", err)
	}
	defer l.sem.Release(1)
	return l.next.Embed(ctx, image)
}

// Dimensions delegates to the wrapped embedder.
func (l *Limited) Dimensions() int { return l.next.Dimensions() }

// Name delegates to the wrapped embedder.
func (l *Limited) Name() string { return l.next.Name() }

// Close closes the wrapped embedder.
func (l *Limited) Close() error { return l.next.Close() }
