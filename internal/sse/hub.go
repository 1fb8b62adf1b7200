package sse

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gutenbae/gutenbae-server/internal/id"
)

// Client represents a connected SSE client.
type Client struct {
	ConnectedAt time.Time
	FactChan    chan Fact
	Done        chan struct{}
	ID          string
}

// Hub fans broadcast facts out to connected SSE clients. Delivery is
// at-most-once: a slow client's facts are dropped, never queued behind a
// blocked send, and disconnected clients get no replay.
type Hub struct {
	clients           map[string]*Client
	facts             chan Fact
	logger            *slog.Logger
	wg                sync.WaitGroup
	heartbeatInterval time.Duration
	mu                sync.RWMutex

	// Shutdown state, protected by shutdownMu.
	shutdownMu sync.RWMutex
	shutdown   bool
}

// NewHub creates a new broadcast hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:           make(map[string]*Client),
		facts:             make(chan Fact, 1000),
		logger:            logger,
		heartbeatInterval: 30 * time.Second,
	}
}

// Start begins the broadcast loop.
// Call once at server startup in a goroutine.
func (h *Hub) Start(ctx context.Context) {
	h.wg.Add(1)
	defer h.wg.Done()

	h.logger.Info("SSE hub starting")

	heartbeatTicker := time.NewTicker(h.heartbeatInterval)
	defer heartbeatTicker.Stop()

	for {
		select {
		case fact, ok := <-h.facts:
			if !ok {
				// Shutdown closed the queue; everything buffered has
				// already been received and broadcast.
				h.logger.Info("SSE hub stopping")
				h.closeAllClients()
				return
			}
			h.broadcast(fact)

		case <-heartbeatTicker.C:
			h.broadcast(NewHeartbeatFact())

		case <-ctx.Done():
			h.logger.Info("SSE hub stopping")
			h.closeAllClients()
			return
		}
	}
}

// Shutdown gracefully shuts down the hub.
// It stops accepting new facts, lets the broadcast loop drain whatever is
// queued, and closes all clients.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.logger.Info("SSE hub shutdown initiated")

	// Mark as shutdown AND close the channel while holding the lock.
	// Emit() holds the read lock during its send, so this cannot race.
	h.shutdownMu.Lock()
	h.shutdown = true
	close(h.facts)
	h.shutdownMu.Unlock()

	// The broadcast loop keeps receiving until the closed queue is empty,
	// then closes all clients and exits. Wait for it with a timeout.
	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info("SSE facts drained successfully")
	case <-ctx.Done():
		h.logger.Warn("SSE fact drain timeout, some facts may be lost")
	}

	h.logger.Info("SSE hub shutdown complete")
	return nil
}

// broadcast sends a fact to every connected client.
func (h *Hub) broadcast(fact Fact) {
	var delivered, dropped int

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		// Non-blocking send; a stuck client loses this fact.
		select {
		case client.FactChan <- fact:
			delivered++
		default:
			dropped++
			h.logger.Warn("dropped fact for slow client",
				slog.String("client_id", client.ID),
				slog.String("fact_type", string(fact.Type)))
		}
	}

	if fact.Type != FactHeartbeat {
		h.logger.Debug("fact broadcast",
			slog.String("fact_type", string(fact.Type)),
			slog.Group("stats",
				slog.Int("delivered", delivered),
				slog.Int("dropped", dropped)))
	}
}

// Connect registers a new SSE client and returns the client object.
func (h *Hub) Connect() (*Client, error) {
	clientID, err := id.Generate("sse")
	if err != nil {
		return nil, err
	}

	client := &Client{
		ID:          clientID,
		FactChan:    make(chan Fact, 100),
		Done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}

	h.mu.Lock()
	h.clients[client.ID] = client
	totalClients := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("SSE client connected",
		slog.String("client_id", clientID),
		slog.Int("total_clients", totalClients))
	return client, nil
}

// Disconnect removes a client and closes its channels.
func (h *Hub) Disconnect(clientID string) {
	h.mu.Lock()
	client, ok := h.clients[clientID]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, clientID)
	totalClients := len(h.clients)
	h.mu.Unlock()

	close(client.Done)
	close(client.FactChan)

	h.logger.Info("SSE client disconnected",
		slog.String("client_id", clientID),
		slog.Duration("duration", time.Since(client.ConnectedAt)),
		slog.Int("total_clients", totalClients))
}

// Emit queues a fact for broadcasting to all clients.
// This implements the store.EventEmitter interface. Emit never blocks the
// caller: if the queue is full the fact is dropped with a log line.
func (h *Hub) Emit(event any) {
	fact, ok := event.(Fact)
	if !ok {
		h.logger.Error("invalid fact type emitted")
		return
	}

	// Hold the read lock through the send so Shutdown cannot close the
	// channel mid-send.
	h.shutdownMu.RLock()
	defer h.shutdownMu.RUnlock()

	if h.shutdown {
		// Expected during shutdown; drop silently.
		return
	}

	select {
	case h.facts <- fact:
	default:
		h.logger.Error("SSE fact channel full, dropping fact",
			slog.String("fact_type", string(fact.Type)))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// closeAllClients closes all client connections (used during shutdown).
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		close(client.Done)
		close(client.FactChan)
	}
	h.clients = make(map[string]*Client)

	h.logger.Info("all SSE clients disconnected")
}
