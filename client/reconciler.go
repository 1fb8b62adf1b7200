// Package client implements the view-side half of review synchronization:
// a per-view cache of reviews kept consistent by merging facts from every
// source a view can hear about a change from. The direct response to a
// local write, the server's SSE stream, and the same-device fallback bus
// all feed the same idempotent Apply path, so late or duplicate delivery
// of a fact is absorbed rather than special-cased per source.
package client

import (
	"encoding/json/v2"
	"log/slog"
	"sync"

	"github.com/gutenbae/gutenbae-server/internal/domain"
	"github.com/gutenbae/gutenbae-server/internal/sse"
)

// Refetcher reloads a view's full review list from an authoritative read.
// The reconciler falls back to it when a fact cannot be trusted.
type Refetcher func() ([]*domain.Review, error)

// Reconciler maintains one view's in-memory review list. A view is either
// a single book's reviews (newest first) or a single user's reviews.
// All mutation flows through Apply; callers never touch the cache directly.
type Reconciler struct {
	mu     sync.Mutex
	byID   map[string]*domain.Review
	order  []string
	filter func(*domain.Review) bool

	refetch Refetcher
	logger  *slog.Logger

	done   chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// Options configures a Reconciler.
type Options struct {
	// Refetch is invoked when a malformed or unknown fact arrives.
	// Optional; without it such facts are dropped with a warning.
	Refetch Refetcher

	Logger *slog.Logger
}

func newReconciler(filter func(*domain.Review) bool, opts Options) *Reconciler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reconciler{
		byID:    make(map[string]*domain.Review),
		filter:  filter,
		refetch: opts.Refetch,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

// NewBookView creates a reconciler scoped to one book's reviews.
// Facts about other books are ignored, not errors.
func NewBookView(bookID int64, opts Options) *Reconciler {
	return newReconciler(func(r *domain.Review) bool {
		return r.BookID == bookID
	}, opts)
}

// NewUserView creates a reconciler scoped to one user's reviews,
// as shown on their dashboard.
func NewUserView(userID string, opts Options) *Reconciler {
	return newReconciler(func(r *domain.Review) bool {
		return r.UserID == userID
	}, opts)
}

// Seed replaces the entire cache with the result of an authoritative read.
// Input order is preserved; the server already returns newest first.
func (c *Reconciler) Seed(reviews []*domain.Review) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.byID = make(map[string]*domain.Review, len(reviews))
	c.order = c.order[:0]
	for _, review := range reviews {
		if !c.filter(review) {
			continue
		}
		if _, ok := c.byID[review.ID]; ok {
			continue
		}
		c.byID[review.ID] = review
		c.order = append(c.order, review.ID)
	}
}

// Apply merges one fact into the cache. It is idempotent: applying the
// same fact twice leaves the cache exactly as after the first application.
// Every source feeds this one method, whatever transport delivered the fact.
func (c *Reconciler) Apply(fact sse.Fact) {
	switch fact.Type {
	case sse.FactReviewUpdated:
		if fact.Review == nil || fact.Review.ID == "" {
			c.fallbackRefetch("updated fact without review payload")
			return
		}
		c.upsert(fact.Review)

	case sse.FactReviewDeleted:
		if fact.ReviewID == "" {
			c.fallbackRefetch("deleted fact without review id")
			return
		}
		c.remove(fact.ReviewID)

	case sse.FactHeartbeat:
		// Keepalive only, nothing to merge.

	default:
		c.fallbackRefetch("unknown fact type " + string(fact.Type))
	}
}

// ApplyEvent decodes a raw stream event and merges it. Undecodable data
// triggers a refetch rather than a partial mutation.
func (c *Reconciler) ApplyEvent(name string, data []byte) {
	if name == "connected" {
		// Stream greeting, carries no review state.
		return
	}

	var fact sse.Fact
	if err := json.Unmarshal(data, &fact); err != nil {
		c.fallbackRefetch("undecodable fact: " + err.Error())
		return
	}
	if fact.Type == "" {
		fact.Type = sse.FactType(name)
	}
	c.Apply(fact)
}

// upsert replaces a cached review in place, or prepends it so a freshly
// created review appears at the front of a newest-first list.
func (c *Reconciler) upsert(review *domain.Review) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if !c.filter(review) {
		return
	}

	if _, ok := c.byID[review.ID]; ok {
		c.byID[review.ID] = review
		return
	}

	c.byID[review.ID] = review
	c.order = append([]string{review.ID}, c.order...)
}

// remove drops a review by id. An absent id is a no-op.
func (c *Reconciler) remove(reviewID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if _, ok := c.byID[reviewID]; !ok {
		return
	}

	delete(c.byID, reviewID)
	for i, id := range c.order {
		if id == reviewID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// fallbackRefetch reloads the whole view instead of guessing at a merge.
func (c *Reconciler) fallbackRefetch(reason string) {
	c.logger.Warn("falling back to refetch", "reason", reason)
	if c.refetch == nil {
		return
	}

	reviews, err := c.refetch()
	if err != nil {
		// The cache keeps its last good state; the next fact or an
		// explicit reload will catch it up.
		c.logger.Warn("refetch failed", "error", err.Error())
		return
	}
	c.Seed(reviews)
}

// Reviews returns a snapshot of the cached reviews in view order.
func (c *Reconciler) Reviews() []*domain.Review {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*domain.Review, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// ReviewBy returns the cached review authored by the given user, if any.
// Book views use this to decide between create and edit affordances.
func (c *Reconciler) ReviewBy(userID string) (*domain.Review, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, review := range c.byID {
		if review.UserID == userID {
			return review, true
		}
	}
	return nil, false
}

// Len returns the number of cached reviews.
func (c *Reconciler) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byID)
}

// Subscribe consumes facts from a channel source until the source closes
// or the reconciler is closed. Both the SSE stream and the fallback bus
// attach through here; a reconciler may hold any number of subscriptions.
func (c *Reconciler) Subscribe(facts <-chan sse.Fact) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		for {
			select {
			case fact, ok := <-facts:
				if !ok {
					return
				}
				c.Apply(fact)
			case <-c.done:
				return
			}
		}
	}()
}

// Close tears the view down. After Close returns, no source mutates the
// cache again; late facts and in-flight subscriptions are discarded.
func (c *Reconciler) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.done)
	c.mu.Unlock()

	c.wg.Wait()
}
