package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

const readBufferSize = 4096

// Handler receives the events of one streamed generation call. Exactly one
// of OnDone or OnError fires per call; OnChunk fires zero or more times
// before it, in arrival order. The consumer keeps no chunk history —
// concatenation is the caller's job.
type Handler struct {
	OnChunk func(text string)
	OnDone  func()
	OnError func(msg string)
}

// Consumer executes streamed POST requests against the backend and drives
// the frame decoder to completion. A single attempt is made per call;
// failures surface through the handler with no retry.
type Consumer struct {
	client *http.Client
	logger *zap.Logger
}

// NewConsumer wraps an http.Client. A nil client falls back to
// http.DefaultClient.
func NewConsumer(client *http.Client, logger *zap.Logger) *Consumer {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{client: client, logger: logger}
}

// Post sends body as JSON to url and consumes the streamed response.
//
// A frame carrying done terminates the call immediately; any bytes still
// buffered are discarded. A frame carrying an error message terminates the
// call through OnError. Non-2xx responses, network failures, and streams
// that end without a done frame are transport errors, also via OnError.
func (c *Consumer) Post(ctx context.Context, url string, body any, h Handler) {
	payload, err := json.Marshal(body)
	if err != nil {
		h.OnError(fmt.Sprintf("encode request: %v", err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		h.OnError(fmt.Sprintf("build request: %v", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		h.OnError(fmt.Sprintf("request failed: %v", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		h.OnError(fmt.Sprintf("backend returned status %d: %s", resp.StatusCode, bytes.TrimSpace(detail)))
		return
	}

	dec := NewDecoder()
	buf := make([]byte, readBufferSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, ev := range dec.Feed(buf[:n]) {
				switch {
				case ev.Error != "":
					h.OnError(ev.Error)
					return
				case ev.Done:
					if dec.Skipped() > 0 {
						c.logger.Debug("dropped malformed frames", zap.String("url", url), zap.Int("skipped", dec.Skipped()))
					}
					h.OnDone()
					return
				case ev.Chunk != "":
					h.OnChunk(ev.Chunk)
				}
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				h.OnError("stream ended without completion")
			} else {
				h.OnError(fmt.Sprintf("stream read failed: %v", readErr))
			}
			return
		}
	}
}
