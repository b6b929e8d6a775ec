// Package api builds the request payloads of the generation backend and
// dispatches them over the streaming consumer.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"clipforge/internal/content"
	"clipforge/internal/stream"
)

const (
	generatePathPrefix = "/api/generate/"
	continuePath       = "/api/chat/continue"
)

// GenerateRequest is the body of POST /api/generate/{stage}.
type GenerateRequest struct {
	UserID        string         `json:"user_id"`
	Platform      string         `json:"platform"`
	Niche         string         `json:"niche"`
	Goal          string         `json:"goal"`
	Personality   string         `json:"personality"`
	Audience      []string       `json:"audience"`
	ReferenceText string         `json:"reference_text,omitempty"`
	ContentType   string         `json:"content_type"`
	Options       map[string]any `json:"options"`
}

// HistoryMessage is one prior turn replayed to the continuation endpoint.
// Type carries the stage of assistant turns, when known.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Type    string `json:"type,omitempty"`
}

// ContinueRequest is the body of POST /api/chat/continue.
type ContinueRequest struct {
	UserID              string           `json:"user_id"`
	Platform            string           `json:"platform"`
	Niche               string           `json:"niche"`
	Goal                string           `json:"goal"`
	Personality         string           `json:"personality"`
	Audience            []string         `json:"audience"`
	ReferenceText       string           `json:"reference_text,omitempty"`
	ConversationHistory []HistoryMessage `json:"conversation_history"`
	UserMessage         string           `json:"user_message"`
	ContextContent      string           `json:"context_content,omitempty"`
}

// Client talks to one backend instance on behalf of one user.
type Client struct {
	baseURL  string
	userID   string
	consumer *stream.Consumer
	logger   *zap.Logger
}

// New creates a backend client. timeout bounds the whole streamed call,
// zero means no limit.
func New(baseURL, userID string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := &http.Client{Timeout: timeout}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		userID:   userID,
		consumer: stream.NewConsumer(httpClient, logger),
		logger:   logger,
	}
}

// UserID returns the user the client authenticates requests as.
func (c *Client) UserID() string {
	return c.userID
}

// Generate streams one stage generation. The stage's endpoint suffix comes
// from the closed stage mapping; an unmapped stage never reaches the wire.
func (c *Client) Generate(ctx context.Context, stage content.Stage, req GenerateRequest, h Handler) {
	suffix, err := stage.Endpoint()
	if err != nil {
		h.OnError(err.Error())
		return
	}
	req.UserID = c.userID
	req.ContentType = string(stage)
	if req.Options == nil {
		req.Options = map[string]any{}
	}
	c.logger.Debug("starting stage generation",
		zap.String("stage", string(stage)),
		zap.String("platform", req.Platform),
		zap.String("niche", req.Niche))
	c.consumer.Post(ctx, c.baseURL+generatePathPrefix+suffix, req, h)
}

// Handler aliases stream.Handler so orchestration code does not import the
// wire package directly.
type Handler = stream.Handler

// Continue streams one free-form follow-up turn.
func (c *Client) Continue(ctx context.Context, req ContinueRequest, h Handler) {
	req.UserID = c.userID
	if req.ConversationHistory == nil {
		req.ConversationHistory = []HistoryMessage{}
	}
	c.logger.Debug("starting continuation", zap.Int("history", len(req.ConversationHistory)))
	c.consumer.Post(ctx, c.baseURL+continuePath, req, h)
}
