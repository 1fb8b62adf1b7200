package sse

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerStreamsFacts(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	hub := NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Start(ctx)

	ts := httptest.NewServer(NewHandler(hub, logger))
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.Emit(NewReviewDeletedFact(42, "rev-a"))

	// Read until the deleted fact has arrived.
	buf := make([]byte, 4096)
	var body strings.Builder
	deadline := time.Now().Add(3 * time.Second)
	for !strings.Contains(body.String(), "review.deleted") {
		require.True(t, time.Now().Before(deadline), "fact never arrived: %q", body.String())
		n, err := resp.Body.Read(buf)
		body.Write(buf[:n])
		if err != nil {
			break
		}
	}

	assert.Contains(t, body.String(), "event: connected")
	assert.Contains(t, body.String(), "event: review.deleted")
	assert.Contains(t, body.String(), `"review_id":"rev-a"`)
}

func TestHandlerEndsCleanlyOnHubShutdown(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	hub := NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Start(ctx)

	ts := httptest.NewServer(NewHandler(hub, logger))
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.Emit(NewReviewDeletedFact(42, "rev-final"))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	require.NoError(t, hub.Shutdown(shutdownCtx))

	// The response ends once the hub closes the client; everything queued
	// before shutdown is delivered, and the closed queue must not leak
	// zero-value facts as empty frames.
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	body := string(raw)
	assert.Contains(t, body, "rev-final")
	assert.NotContains(t, body, "event: \n")
}

func TestHandlerRejectsNonGET(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)
	hub := NewHub(logger)

	ts := httptest.NewServer(NewHandler(hub, logger))
	defer ts.Close()

	resp, err := http.Post(ts.URL, "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
