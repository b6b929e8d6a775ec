// Package orchestrator coordinates stage execution: it owns request
// construction, the single in-flight guard, chunk accumulation, optimistic
// turn rollback, and debounced persistence of the active conversation.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"clipforge/internal/api"
	"clipforge/internal/content"
	"clipforge/internal/store"
)

// ErrGenerationInFlight is returned when a stage (or continuation) is
// requested while another is still streaming for the same conversation.
// The request is a no-op: no message is appended, no call is made.
var ErrGenerationInFlight = errors.New("a generation is already in flight for this conversation")

// ValidationError reports required settings that are missing. It is
// raised before any network call; no conversation state is mutated.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required settings: " + strings.Join(e.Missing, ", ")
}

// Settings are the creator profile applied to every request of one
// conversation.
type Settings struct {
	Platform      string
	Niche         string
	Goal          string
	Personality   string
	Audience      []string
	ReferenceText string
}

// Validate checks the preconditions for any generation call: platform,
// niche, personality, and at least one audience entry.
func (s Settings) Validate() error {
	var missing []string
	if s.Platform == "" {
		missing = append(missing, "platform")
	}
	if s.Niche == "" {
		missing = append(missing, "niche")
	}
	if s.Personality == "" {
		missing = append(missing, "personality")
	}
	if len(s.Audience) == 0 {
		missing = append(missing, "audience")
	}
	if len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}
	return nil
}

// Orchestrator drives the stage workflow for a single conversation. At
// most one generation is in flight at a time; concurrent conversations
// each get their own Orchestrator and do not share state beyond the store.
type Orchestrator struct {
	client *api.Client
	store  *store.Store
	logger *zap.Logger

	mu           sync.Mutex
	conv         *content.Conversation
	settings     Settings
	generating   bool
	current      strings.Builder
	selectedHook string
	hooks        []content.HookCandidate
	outputs      map[content.Stage]string

	saver     *store.Debouncer
	onPartial func(text string)
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithConversation resumes an existing conversation instead of starting a
// fresh one.
func WithConversation(conv *content.Conversation) Option {
	return func(o *Orchestrator) { o.conv = conv }
}

// WithDebounce overrides the save quiet period.
func WithDebounce(d time.Duration) Option {
	return func(o *Orchestrator) { o.saver = store.NewDebouncer(d, o.persist) }
}

// WithPartialHandler registers a callback invoked with the accumulated
// text after every received chunk, for live rendering.
func WithPartialHandler(fn func(text string)) Option {
	return func(o *Orchestrator) { o.onPartial = fn }
}

// New creates an orchestrator for a fresh conversation built from the
// given settings. st may be nil, in which case nothing is persisted.
func New(client *api.Client, st *store.Store, settings Settings, logger *zap.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Orchestrator{
		client:   client,
		store:    st,
		logger:   logger,
		settings: settings,
		outputs:  make(map[content.Stage]string),
	}
	o.saver = store.NewDebouncer(store.DefaultDebounce, o.persist)
	for _, opt := range opts {
		opt(o)
	}
	if o.conv == nil {
		o.conv = content.NewConversation(settings.Platform, settings.Niche, settings.Goal, settings.Personality, settings.Audience)
	}
	o.saver.Start()
	return o
}

// Stop flushes any pending save and disables further persistence. Call it
// on teardown; it is the deterministic replacement for lifecycle-driven
// timers.
func (o *Orchestrator) Stop() {
	o.saver.Stop()
}

// RunStage executes one stage generation end to end. It validates
// settings synchronously, appends an optimistic user turn, streams the
// backend response into a transient buffer, and on completion promotes the
// buffer to an assistant message tagged with the stage. On any transport
// or protocol error the optimistic turn is rolled back and the error
// returned; no partial assistant message survives.
func (o *Orchestrator) RunStage(ctx context.Context, stage content.Stage) error {
	if !stage.Valid() {
		return fmt.Errorf("unknown stage %q", string(stage))
	}
	if err := o.settings.Validate(); err != nil {
		return err
	}

	o.mu.Lock()
	if o.generating {
		o.mu.Unlock()
		o.logger.Debug("stage request rejected, generation in flight", zap.String("stage", string(stage)))
		return ErrGenerationInFlight
	}
	o.generating = true
	o.current.Reset()
	o.conv.Append(content.NewMessage(content.RoleUser, o.requestSummary(stage)))
	req := o.generateRequest(stage)
	o.mu.Unlock()
	o.saver.Trigger()

	var genErr error
	o.client.Generate(ctx, stage, req, api.Handler{
		OnChunk: o.accumulate,
		OnDone: func() {
			o.finishStage(stage)
		},
		OnError: func(msg string) {
			o.rollbackStage(1)
			genErr = fmt.Errorf("%s generation failed: %s", stage, msg)
		},
	})
	return genErr
}

// UseForNext feeds a completed stage's output into the next logical stage
// and starts it immediately. Only hooks→script is wired; every stage can
// still be run independently through RunStage.
func (o *Orchestrator) UseForNext(ctx context.Context, text string, from content.Stage) error {
	if from != content.StageHooks {
		return fmt.Errorf("no follow-on stage wired for %s", string(from))
	}
	o.mu.Lock()
	o.selectedHook = text
	o.mu.Unlock()
	return o.RunStage(ctx, content.StageScript)
}

// SelectHook records the user's hook choice for injection into later
// stages.
func (o *Orchestrator) SelectHook(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.selectedHook = text
}

// SelectedHook returns the current hook selection, which may be the
// parser's default.
func (o *Orchestrator) SelectedHook() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.selectedHook
}

// Hooks returns the candidates parsed from the last hooks generation.
func (o *Orchestrator) Hooks() []content.HookCandidate {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]content.HookCandidate(nil), o.hooks...)
}

// Generating reports whether a stream is in flight.
func (o *Orchestrator) Generating() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.generating
}

// Conversation returns a snapshot of the active conversation.
func (o *Orchestrator) Conversation() *content.Conversation {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.conv.Clone()
}

func (o *Orchestrator) accumulate(text string) {
	o.mu.Lock()
	o.current.WriteString(text)
	partial := o.current.String()
	fn := o.onPartial
	o.mu.Unlock()
	if fn != nil {
		fn(partial)
	}
}

func (o *Orchestrator) finishStage(stage content.Stage) {
	o.mu.Lock()
	text := o.current.String()
	o.current.Reset()

	msg := content.NewMessage(content.RoleAssistant, text)
	msg.StageType = stage
	o.conv.Append(msg)
	o.outputs[stage] = text

	if stage == content.StageHooks {
		candidates, skipped := content.ParseHooks(text)
		o.hooks = candidates
		if o.selectedHook == "" && len(candidates) > 0 {
			o.selectedHook = candidates[0].Text
		}
		if skipped > 0 {
			o.logger.Debug("hook parser skipped lines", zap.Int("skipped", skipped))
		}
	}
	o.generating = false
	o.mu.Unlock()

	o.saver.Trigger()
	o.logger.Info("stage completed", zap.String("stage", string(stage)), zap.Int("chars", len(text)))
}

// rollbackStage removes the last n optimistically appended messages and
// returns the orchestrator to idle.
func (o *Orchestrator) rollbackStage(n int) {
	o.mu.Lock()
	if len(o.conv.Messages) >= n {
		o.conv.Messages = o.conv.Messages[:len(o.conv.Messages)-n]
	}
	o.conv.Touch()
	o.current.Reset()
	o.generating = false
	o.mu.Unlock()
	o.saver.Trigger()
}

func (o *Orchestrator) persist() {
	if o.store == nil {
		return
	}
	o.mu.Lock()
	snap := o.conv.Clone()
	o.mu.Unlock()
	o.store.Save(snap)
}

// requestSummary is the transcript-facing description of a stage request,
// not the literal backend prompt.
func (o *Orchestrator) requestSummary(stage content.Stage) string {
	return fmt.Sprintf("Generate %s for %s content in the %s niche", stage.Label(), o.settings.Platform, o.settings.Niche)
}

// generateRequest builds the stage payload, injecting whichever
// cross-stage dependencies are currently known. Callers hold o.mu.
func (o *Orchestrator) generateRequest(stage content.Stage) api.GenerateRequest {
	return api.GenerateRequest{
		Platform:      o.settings.Platform,
		Niche:         o.settings.Niche,
		Goal:          o.settings.Goal,
		Personality:   o.settings.Personality,
		Audience:      o.settings.Audience,
		ReferenceText: o.settings.ReferenceText,
		Options:       o.stageOptions(stage),
	}
}

// stageOptions applies the per-stage dependency table: which earlier
// outputs each stage consumes. Unknown values are omitted and the backend
// falls back to its own defaults.
func (o *Orchestrator) stageOptions(stage content.Stage) map[string]any {
	opts := map[string]any{}
	hook := o.selectedHook
	script := o.outputs[content.StageScript]
	title := o.outputs[content.StageTitles]

	switch stage {
	case content.StageScript:
		if hook != "" {
			opts["chosen_hook"] = hook
		}
	case content.StageShotlist, content.StageMusic:
		if script != "" {
			opts["script"] = script
		}
	case content.StageTitles:
		if hook != "" {
			opts["hook"] = hook
		}
		if script != "" {
			opts["script"] = script
		}
	case content.StageDescription, content.StageTags:
		if title != "" {
			opts["title"] = title
		}
		if script != "" {
			opts["script"] = script
		}
	case content.StageThumbnails:
		if title != "" {
			opts["title"] = title
		}
		if hook != "" {
			opts["hook"] = hook
		}
	case content.StageBeatmap:
		if script != "" {
			opts["script"] = script
		}
		if hook != "" {
			opts["hook"] = hook
		}
	case content.StageCTA:
		if script != "" {
			opts["script"] = script
		}
	}
	return opts
}
