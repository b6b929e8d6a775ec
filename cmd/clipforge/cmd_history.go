package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"clipforge/internal/content"
	"clipforge/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect and manage stored conversations",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored conversations, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cfg.Store.Path, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		for _, conv := range st.GetAll() {
			updated := time.UnixMilli(conv.UpdatedAt).Format("2006-01-02 15:04")
			title := conv.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Printf("%s  %s  [%s/%s]  %d messages  %s\n",
				conv.ID, updated, conv.Platform, conv.Niche, len(conv.Messages), title)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Render one conversation transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cfg.Store.Path, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		conv, ok := st.GetByID(args[0])
		if !ok {
			return fmt.Errorf("conversation %q not found", args[0])
		}

		renderer, _ := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(100),
		)

		for _, msg := range conv.Messages {
			switch msg.Role {
			case content.RoleUser:
				fmt.Printf("> %s\n\n", msg.Content)
			case content.RoleAssistant:
				label := string(msg.StageType)
				if label == "" {
					label = "reply"
				}
				fmt.Printf("[%s]\n", label)
				if renderer != nil {
					if out, err := renderer.Render(msg.Content); err == nil {
						fmt.Print(out)
						continue
					}
				}
				fmt.Println(msg.Content)
			}
		}
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete one conversation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cfg.Store.Path, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		st.Delete(args[0])
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all stored conversations",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(cfg.Store.Path, logger)
		if err != nil {
			return err
		}
		defer st.Close()

		st.Clear()
		return nil
	},
}

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
	historyCmd.AddCommand(historyClearCmd)
}
