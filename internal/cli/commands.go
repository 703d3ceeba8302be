package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"finrag/internal/config"
	"finrag/internal/helper"
	"finrag/internal/models"
	"finrag/internal/session"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>",
	Short: "Index a report into the persisted vector store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, _, err := buildSession(cmd.Context())
		if err != nil {
			return err
		}
		n, err := sess.Upload(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Indexed %s (%d chunks).\n", args[0], n)
		return nil
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a single question against the persisted index",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, _, err := buildSession(ctx)
		if err != nil {
			return err
		}
		if err := sess.Restore(ctx); err != nil {
			return err
		}

		question := strings.Join(args, " ")
		ans, err := sess.Ask(ctx, question)
		if err != nil {
			if errors.Is(err, session.ErrNoDocument) {
				fmt.Println(err.Error())
				return nil
			}
			return err
		}

		for frag := range ans.Stream.Fragments() {
			fmt.Print(frag)
		}
		fmt.Println()
		if err := ans.Stream.Err(); err != nil {
			return models.GenerationError(err)
		}
		printCitations(ans.Citations)
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the index, its persisted copy and the chat history",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, _, err := buildSession(cmd.Context())
		if err != nil {
			return err
		}
		sess.Reset(cmd.Context())
		fmt.Println("Reset complete.")
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		redacted := *cfg
		redacted.LLM.Key = "<redacted>"
		helper.PrettyPrint(redacted)
		return nil
	},
}
