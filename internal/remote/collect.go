package remote

import (
	"context"
	"sync"

	"github.com/dshills/anaclient/internal/protocol"
)

// batches accumulates results that arrive in several notifications sharing
// an id, the last of which is flagged.
type batches[T any] struct {
	mu   sync.Mutex
	byID map[string]*batch[T]
}

type batch[T any] struct {
	items    []T
	complete bool
	done     chan struct{}
}

func (b *batches[T]) getLocked(id string) *batch[T] {
	if b.byID == nil {
		b.byID = make(map[string]*batch[T])
	}
	entry, ok := b.byID[id]
	if !ok {
		entry = &batch[T]{done: make(chan struct{})}
		b.byID[id] = entry
	}
	return entry
}

func (b *batches[T]) add(id string, items []T, last bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := b.getLocked(id)
	if entry.complete {
		return
	}
	entry.items = append(entry.items, items...)
	if last {
		entry.complete = true
		close(entry.done)
	}
}

func (b *batches[T]) results(id string) ([]T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.byID[id]
	if !ok {
		return nil, false
	}
	out := make([]T, len(entry.items))
	copy(out, entry.items)
	return out, entry.complete
}

func (b *batches[T]) wait(ctx context.Context, id string) ([]T, error) {
	b.mu.Lock()
	done := b.getLocked(id).done
	b.mu.Unlock()

	select {
	case <-done:
		items, _ := b.results(id)
		return items, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *batches[T]) forget(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.byID, id)
}

// CompletionCollector accumulates completion.results batches per completion
// id. Register it with AddListener.
type CompletionCollector struct {
	BaseListener
	batches batches[protocol.CompletionSuggestion]
}

// NewCompletionCollector creates an empty collector.
func NewCompletionCollector() *CompletionCollector {
	return &CompletionCollector{}
}

// ComputedCompletion implements Listener.
func (c *CompletionCollector) ComputedCompletion(r protocol.CompletionResults) {
	c.batches.add(r.ID, r.Results, r.IsLast)
}

// Results returns the suggestions received so far for id and whether the
// last batch has arrived.
func (c *CompletionCollector) Results(id string) ([]protocol.CompletionSuggestion, bool) {
	return c.batches.results(id)
}

// Wait blocks until the last batch for id has arrived.
func (c *CompletionCollector) Wait(ctx context.Context, id string) ([]protocol.CompletionSuggestion, error) {
	return c.batches.wait(ctx, id)
}

// Forget discards everything collected for id.
func (c *CompletionCollector) Forget(id string) {
	c.batches.forget(id)
}

// SearchCollector accumulates search.results batches per search id.
type SearchCollector struct {
	BaseListener
	batches batches[protocol.SearchResult]
}

// NewSearchCollector creates an empty collector.
func NewSearchCollector() *SearchCollector {
	return &SearchCollector{}
}

// ComputedSearchResults implements Listener.
func (c *SearchCollector) ComputedSearchResults(r protocol.SearchResults) {
	c.batches.add(r.ID, r.Results, r.IsLast)
}

// Results returns the matches received so far for id and whether the last
// batch has arrived.
func (c *SearchCollector) Results(id string) ([]protocol.SearchResult, bool) {
	return c.batches.results(id)
}

// Wait blocks until the last batch for id has arrived.
func (c *SearchCollector) Wait(ctx context.Context, id string) ([]protocol.SearchResult, error) {
	return c.batches.wait(ctx, id)
}

// Forget discards everything collected for id.
func (c *SearchCollector) Forget(id string) {
	c.batches.forget(id)
}
