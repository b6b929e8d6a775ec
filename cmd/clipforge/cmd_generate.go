package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"clipforge/internal/api"
	"clipforge/internal/content"
	"clipforge/internal/orchestrator"
	"clipforge/internal/store"
)

var (
	flagPlatform    string
	flagNiche       string
	flagGoal        string
	flagPersonality string
	flagAudience    []string
	flagReference   string
	flagConvID      string
	flagHook        string
	flagThenScript  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [stage]",
	Short: "Generate one content stage (hooks, script, shotlist, ...)",
	Long: `Runs a single generation stage and streams the result to stdout.

With --conversation the stage extends an existing conversation; otherwise
a fresh one is created from the settings flags. After a hooks run,
--then-script chains straight into script generation using the first
parsed hook (or the one passed with --hook).

Example:
  clipforge generate hooks --platform tiktok --niche cooking --goal views \
    --personality friendly --audience gen_z --then-script`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	addSettingsFlags(generateCmd)
	generateCmd.Flags().StringVar(&flagHook, "hook", "", "hook text to inject into script generation")
	generateCmd.Flags().BoolVar(&flagThenScript, "then-script", false, "after hooks, immediately generate the script from the selected hook")
}

func addSettingsFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagPlatform, "platform", "", "target platform (tiktok, reels, shorts)")
	cmd.Flags().StringVar(&flagNiche, "niche", "", "content niche")
	cmd.Flags().StringVar(&flagGoal, "goal", "", "content goal")
	cmd.Flags().StringVar(&flagPersonality, "personality", "friendly", "creator personality")
	cmd.Flags().StringSliceVar(&flagAudience, "audience", []string{"gen_z"}, "target audience segments")
	cmd.Flags().StringVar(&flagReference, "reference", "", "free-text reference material")
	cmd.Flags().StringVar(&flagConvID, "conversation", "", "continue an existing conversation by id")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	stage, err := content.ParseStage(args[0])
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	orch, err := buildOrchestrator(cmd, st)
	if err != nil {
		return err
	}
	defer orch.Stop()

	if flagHook != "" {
		orch.SelectHook(flagHook)
	}

	if err := orch.RunStage(context.Background(), stage); err != nil {
		return err
	}
	fmt.Println()

	if stage == content.StageHooks {
		hooks := orch.Hooks()
		if len(hooks) > 0 {
			fmt.Fprintf(os.Stderr, "\nParsed %d hook candidates; selected: %q\n", len(hooks), orch.SelectedHook())
		}
		if flagThenScript {
			if orch.SelectedHook() == "" {
				return fmt.Errorf("no hook candidate to chain into script generation")
			}
			if err := orch.UseForNext(context.Background(), orch.SelectedHook(), content.StageHooks); err != nil {
				return err
			}
			fmt.Println()
		}
	}

	fmt.Fprintf(os.Stderr, "\nConversation: %s\n", orch.Conversation().ID)
	return nil
}

// buildOrchestrator wires the backend client, store, and settings, either
// resuming the conversation named by --conversation or starting fresh.
func buildOrchestrator(cmd *cobra.Command, st *store.Store, opts ...orchestrator.Option) (*orchestrator.Orchestrator, error) {
	client := api.New(cfg.Backend.BaseURL, cfg.Backend.UserID, cfg.Backend.TimeoutDuration(), logger)

	settings := orchestrator.Settings{
		Platform:      flagPlatform,
		Niche:         flagNiche,
		Goal:          flagGoal,
		Personality:   flagPersonality,
		Audience:      flagAudience,
		ReferenceText: flagReference,
	}

	var last string
	opts = append(opts,
		orchestrator.WithDebounce(cfg.Store.DebounceDuration()),
		orchestrator.WithPartialHandler(func(partial string) {
			// Print only the new suffix; the handler receives the full
			// accumulated text each time.
			fmt.Print(strings.TrimPrefix(partial, last))
			last = partial
		}),
	)

	if flagConvID != "" {
		conv, ok := st.GetByID(flagConvID)
		if !ok {
			return nil, fmt.Errorf("conversation %q not found", flagConvID)
		}
		settings = settingsFromConversation(cmd, conv, settings)
		opts = append(opts, orchestrator.WithConversation(conv))
	}

	return orchestrator.New(client, st, settings, logger, opts...), nil
}

// settingsFromConversation prefers the stored conversation's settings;
// only flags the user explicitly set override individual fields.
func settingsFromConversation(cmd *cobra.Command, conv *content.Conversation, flags orchestrator.Settings) orchestrator.Settings {
	out := orchestrator.Settings{
		Platform:      conv.Platform,
		Niche:         conv.Niche,
		Goal:          conv.Goal,
		Personality:   conv.Personality,
		Audience:      conv.Audience,
		ReferenceText: flags.ReferenceText,
	}
	if cmd.Flags().Changed("platform") {
		out.Platform = flags.Platform
	}
	if cmd.Flags().Changed("niche") {
		out.Niche = flags.Niche
	}
	if cmd.Flags().Changed("goal") {
		out.Goal = flags.Goal
	}
	if cmd.Flags().Changed("personality") {
		out.Personality = flags.Personality
	}
	if cmd.Flags().Changed("audience") {
		out.Audience = flags.Audience
	}
	return out
}
