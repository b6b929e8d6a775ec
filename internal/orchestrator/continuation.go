package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"clipforge/internal/api"
	"clipforge/internal/content"
)

// ErrNoHistory is returned when a continuation is requested before any
// turn exists to continue from.
var ErrNoHistory = errors.New("nothing to continue: no messages in this conversation yet")

// Continue extends the conversation with a free-form follow-up turn. The
// user message and an empty assistant placeholder are appended
// synchronously and the placeholder's index captured; each chunk patches
// that message by full-content replacement so the caller always sees the
// accumulated text. On error both appended messages are removed — the
// same rollback discipline as stage generation.
func (o *Orchestrator) Continue(ctx context.Context, userMessage string) error {
	if err := o.settings.Validate(); err != nil {
		return err
	}

	o.mu.Lock()
	if o.generating {
		o.mu.Unlock()
		return ErrGenerationInFlight
	}
	if len(o.conv.Messages) == 0 {
		o.mu.Unlock()
		return ErrNoHistory
	}
	o.generating = true
	o.current.Reset()

	req := o.continueRequest(userMessage)
	o.conv.Append(content.NewMessage(content.RoleUser, userMessage))
	o.conv.Append(content.NewMessage(content.RoleAssistant, ""))
	// Index captured before any further async mutation; chunks patch this
	// slot in place.
	placeholder := len(o.conv.Messages) - 1
	o.mu.Unlock()
	o.saver.Trigger()

	var genErr error
	o.client.Continue(ctx, req, api.Handler{
		OnChunk: func(text string) {
			o.patchPlaceholder(placeholder, text)
		},
		OnDone: func() {
			o.finishContinuation()
		},
		OnError: func(msg string) {
			o.rollbackStage(2)
			genErr = fmt.Errorf("continuation failed: %s", msg)
		},
	})
	return genErr
}

func (o *Orchestrator) patchPlaceholder(index int, chunk string) {
	o.mu.Lock()
	o.current.WriteString(chunk)
	accumulated := o.current.String()
	if index < len(o.conv.Messages) {
		o.conv.Messages[index].Content = accumulated
	}
	fn := o.onPartial
	o.mu.Unlock()
	if fn != nil {
		fn(accumulated)
	}
}

func (o *Orchestrator) finishContinuation() {
	o.mu.Lock()
	o.current.Reset()
	o.conv.Touch()
	o.generating = false
	o.mu.Unlock()
	o.saver.Trigger()
	o.logger.Info("continuation completed")
}

// continueRequest replays the prior transcript (everything before the two
// messages appended for this turn) plus the latest generated content as
// context. Callers hold o.mu.
func (o *Orchestrator) continueRequest(userMessage string) api.ContinueRequest {
	history := make([]api.HistoryMessage, 0, len(o.conv.Messages))
	var latest string
	for _, m := range o.conv.Messages {
		history = append(history, api.HistoryMessage{
			Role:    string(m.Role),
			Content: m.Content,
			Type:    string(m.StageType),
		})
		if m.Role == content.RoleAssistant && m.Content != "" {
			latest = m.Content
		}
	}
	return api.ContinueRequest{
		Platform:            o.settings.Platform,
		Niche:               o.settings.Niche,
		Goal:                o.settings.Goal,
		Personality:         o.settings.Personality,
		Audience:            o.settings.Audience,
		ReferenceText:       o.settings.ReferenceText,
		ConversationHistory: history,
		UserMessage:         userMessage,
		ContextContent:      latest,
	}
}
