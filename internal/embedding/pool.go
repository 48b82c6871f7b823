package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Pool wraps an Embedder with bounded concurrency, per-call deadlines, and a
// single shorter-deadline retry. All pipeline invocations share one Pool so
// that total in-flight inference is capped regardless of request volume.
//
// A timed-out or failed batch surfaces ErrUnavailable; callers switch to
// degraded (frequency-only) analysis rather than failing the request.
// Abandoned batches never write partial results anywhere shared — the
// underlying cache is only updated by the embedder on success.
type Pool struct {
	embedder  Embedder
	sem       chan struct{}
	batchSize int
	timeout   time.Duration
}

// NewPool creates a pool around embedder. concurrency bounds simultaneous
// inference calls; batchSize splits large inputs; timeout applies per batch.
func NewPool(embedder Embedder, concurrency, batchSize int, timeout time.Duration) *Pool {
	if concurrency <= 0 {
		concurrency = 4
	}
	if batchSize <= 0 {
		batchSize = 32
	}
	if timeout <= 0 {
		timeout = 800 * time.Millisecond
	}
	return &Pool{
		embedder:  embedder,
		sem:       make(chan struct{}, concurrency),
		batchSize: batchSize,
		timeout:   timeout,
	}
}

// Embed embeds a single text with deadline and one retry.
func (p *Pool) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds texts in batches. Results are positionally aligned with
// the input. Any batch failure fails the whole call with ErrUnavailable.
func (p *Pool) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	out := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += p.batchSize {
		end := start + p.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := p.embedBatchOnce(ctx, texts[start:end], p.timeout)
		if err != nil {
			// One retry with a shorter deadline; a transient stall should not
			// push the request past its end-to-end budget.
			batch, err = p.embedBatchOnce(ctx, texts[start:end], p.timeout/2)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		copy(out[start:], batch)
	}
	return out, nil
}

func (p *Pool) embedBatchOnce(ctx context.Context, texts []string, timeout time.Duration) ([][]float32, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-p.sem }()

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		vecs [][]float32
		err  error
	}
	done := make(chan result, 1)
	go func() {
		vecs, err := p.embedder.EmbedBatch(callCtx, texts)
		done <- result{vecs, err}
	}()

	select {
	case r := <-done:
		return r.vecs, r.err
	case <-callCtx.Done():
		// The in-flight batch is abandoned; the goroutine drains into the
		// buffered channel and the embedder's own cache stays consistent.
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("embedding call timed out after %s", timeout)
		}
		return nil, callCtx.Err()
	}
}

// Dimensions returns the wrapped embedder's dimension.
func (p *Pool) Dimensions() int {
	return p.embedder.Dimensions()
}

// Close closes the wrapped embedder.
func (p *Pool) Close() error {
	return p.embedder.Close()
}
