package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"clipforge/internal/store"
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Continue a conversation with a free-form follow-up message",
	Long: `Sends a follow-up message in an existing conversation and streams the
reply. Without --conversation the most recently updated conversation is
continued.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

func init() {
	addSettingsFlags(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	message := strings.Join(args, " ")

	st, err := store.Open(cfg.Store.Path, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if flagConvID == "" {
		all := st.GetAll()
		if len(all) == 0 {
			return fmt.Errorf("no stored conversations; run a generation stage first")
		}
		flagConvID = all[0].ID
	}

	orch, err := buildOrchestrator(cmd, st)
	if err != nil {
		return err
	}
	defer orch.Stop()

	if err := orch.Continue(context.Background(), message); err != nil {
		return err
	}
	fmt.Println()
	return nil
}
