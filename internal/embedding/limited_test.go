package embedding

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type blockingEmbedder struct {
	release chan struct{}
	active  atomic.Int32
	peak    atomic.Int32
}

func (b *blockingEmbedder) Embed(ctx context.Context, _ []byte) ([]float32, error) {
	n := b.active.Add(1)
	defer b.active.Add(-1)
	for {
		p := b.peak.Load()
		if n <= p || b.peak.CompareAndSwap(p, n) {
			break
		}
	}
	<-b.release
	return []float32{1}, nil
}
func (b *blockingEmbedder) Dimensions() int { return 1 }
func (b *blockingEmbedder) Name() string    { return "blocking" }
func (b *blockingEmbedder) Close() error    { return nil }

func TestLimited_BoundsConcurrency(t *testing.T) {
	inner := &blockingEmbedder{release: make(chan struct{})}
	e := NewLimited(inner, 2)
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = e.Embed(context.Background(), nil)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(inner.release)
	wg.Wait()
	if p := inner.peak.Load(); p > 2 {
		t.Errorf("peak concurrency %d, want <= 2", p)
	}
}

func TestLimited_CancelledWait(t *testing.T) {
	inner := &blockingEmbedder{release: make(chan struct{})}
	e := NewLimited(inner, 1)
	go func() { _, _ = e.Embed(context.Background(), nil) }()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := e.Embed(ctx, nil)
	var ue *UnavailableError
	if !errors.As(err, &ue) {
		t.Fatalf("expected *UnavailableError, got %v", err)
	}
	close(inner.release)
}
