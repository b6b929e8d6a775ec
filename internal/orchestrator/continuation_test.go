package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clipforge/internal/api"
	"clipforge/internal/content"
)

// seededConversation returns a conversation with one completed hooks stage.
func seededConversation() *content.Conversation {
	conv := content.NewConversation("tiktok", "cooking", "views", "friendly", []string{"gen_z"})
	conv.Append(content.NewMessage(content.RoleUser, "Generate viral hooks for tiktok content in the cooking niche"))
	msg := content.NewMessage(content.RoleAssistant, hooksOutput)
	msg.StageType = content.StageHooks
	conv.Append(msg)
	return conv
}

func TestContinue_NoHistory(t *testing.T) {
	o := New(nil, nil, validSettings(), zap.NewNop())
	defer o.Stop()

	assert.ErrorIs(t, o.Continue(context.Background(), "make it shorter"), ErrNoHistory)
}

func TestContinue_AppendsAndPatchesPlaceholder(t *testing.T) {
	var mu sync.Mutex
	var body api.ContinueRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat/continue", r.URL.Path)
		mu.Lock()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		mu.Unlock()
		fmt.Fprint(w, "data: {\"chunk\": \"Sure, \"}\n")
		fmt.Fprint(w, "data: {\"chunk\": \"here is a shorter cut.\"}\n")
		fmt.Fprint(w, "data: {\"done\": true}\n")
	}))
	defer server.Close()

	var partials []string
	o := New(newTestClient(server), nil, validSettings(), zap.NewNop(),
		WithConversation(seededConversation()),
		WithPartialHandler(func(text string) { partials = append(partials, text) }))
	defer o.Stop()

	require.NoError(t, o.Continue(context.Background(), "make it shorter"))

	conv := o.Conversation()
	require.Len(t, conv.Messages, 4)
	assert.Equal(t, content.RoleUser, conv.Messages[2].Role)
	assert.Equal(t, "make it shorter", conv.Messages[2].Content)
	assert.Equal(t, content.RoleAssistant, conv.Messages[3].Role)
	assert.Equal(t, "Sure, here is a shorter cut.", conv.Messages[3].Content)
	assert.Empty(t, conv.Messages[3].StageType, "continuation replies are not stage-typed")

	// Each chunk patches the placeholder with the full accumulated text.
	assert.Equal(t, []string{"Sure, ", "Sure, here is a shorter cut."}, partials)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "make it shorter", body.UserMessage)
	assert.Equal(t, "test-user", body.UserID)
	require.Len(t, body.ConversationHistory, 2, "history excludes the turn being generated")
	assert.Equal(t, "user", body.ConversationHistory[0].Role)
	assert.Equal(t, "hooks", body.ConversationHistory[1].Type)
	assert.Equal(t, hooksOutput, body.ContextContent, "latest generated content rides along as context")
}

func TestContinue_RollbackRemovesBothMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"chunk\": \"half a\"}\n")
		fmt.Fprint(w, "data: {\"error\": \"backend going away\"}\n")
	}))
	defer server.Close()

	o := New(newTestClient(server), nil, validSettings(), zap.NewNop(),
		WithConversation(seededConversation()))
	defer o.Stop()

	err := o.Continue(context.Background(), "make it shorter")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend going away")

	conv := o.Conversation()
	assert.Len(t, conv.Messages, 2, "user turn and placeholder must both be rolled back")
	assert.False(t, o.Generating())
}

func TestContinue_GuardAgainstOverlap(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var startedOnce sync.Once
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedOnce.Do(func() { close(started) })
		<-release
		fmt.Fprint(w, "data: {\"done\": true}\n")
	}))
	defer server.Close()

	o := New(newTestClient(server), nil, validSettings(), zap.NewNop(),
		WithConversation(seededConversation()))
	defer o.Stop()

	first := make(chan error, 1)
	go func() {
		first <- o.Continue(context.Background(), "first follow-up")
	}()
	<-started

	assert.ErrorIs(t, o.Continue(context.Background(), "second follow-up"), ErrGenerationInFlight)
	assert.ErrorIs(t, o.RunStage(context.Background(), content.StageScript), ErrGenerationInFlight)

	close(release)
	require.NoError(t, <-first)
}

func TestContinue_ValidationStillApplies(t *testing.T) {
	o := New(nil, nil, Settings{}, zap.NewNop(),
		WithConversation(seededConversation()))
	defer o.Stop()

	var verr *ValidationError
	assert.ErrorAs(t, o.Continue(context.Background(), "hi"), &verr)
}
