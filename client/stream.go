package client

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"
)

// StreamEvent is one decoded server-sent event: the event name and its
// raw data payload, before any fact-level interpretation.
type StreamEvent struct {
	Name string
	Data []byte
}

// Stream incrementally parses a text/event-stream body.
type Stream struct {
	scanner *bufio.Scanner
}

// NewStream wraps an SSE response body. The caller retains ownership of
// the reader and closes it to end the stream.
func NewStream(r io.Reader) *Stream {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)
	return &Stream{scanner: scanner}
}

// Next returns the next complete event. It blocks until an event arrives
// and returns io.EOF once the underlying reader is exhausted or closed.
func (s *Stream) Next() (StreamEvent, error) {
	var event StreamEvent
	var data bytes.Buffer

	for s.scanner.Scan() {
		line := s.scanner.Text()

		// Blank line dispatches the accumulated event.
		if line == "" {
			if event.Name != "" || data.Len() > 0 {
				event.Data = bytes.Clone(data.Bytes())
				return event, nil
			}
			continue
		}

		// Comment lines keep intermediaries from timing out the stream.
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			event.Name = value
		case "data":
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(value)
		default:
			// id and retry fields are not used by this protocol.
		}
	}

	if err := s.scanner.Err(); err != nil {
		return StreamEvent{}, err
	}
	return StreamEvent{}, io.EOF
}

// ConsumeStream feeds every event from an SSE body into the reconciler
// until the stream ends, the context is canceled, or the reconciler is
// closed. It returns the terminal stream error, or nil on clean EOF.
func (c *Reconciler) ConsumeStream(ctx context.Context, body io.Reader) error {
	stream := NewStream(body)
	for {
		event, err := stream.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		default:
		}

		c.ApplyEvent(event.Name, event.Data)
	}
}
