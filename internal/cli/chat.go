package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"finrag/internal/models"
	"finrag/internal/session"
)

var (
	promptColor    = color.New(color.FgGreen, color.Bold)
	assistantColor = color.New(color.FgCyan, color.Bold)
	errorColor     = color.New(color.FgRed)
	noticeColor    = color.New(color.FgYellow)
	sourceColor    = color.New(color.Faint)
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat over an uploaded report",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, _, err := buildSession(ctx)
		if err != nil {
			return err
		}
		if err := sess.Restore(ctx); err != nil {
			noticeColor.Printf("could not restore persisted index: %v\n", err)
		}

		printBanner(sess.Indexed())

		scanner := bufio.NewScanner(os.Stdin)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for {
			promptColor.Print("you> ")
			if !scanner.Scan() {
				fmt.Println()
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			switch {
			case line == "":
			case line == "/quit" || line == "/exit":
				return nil
			case line == "/reset":
				sess.Reset(ctx)
				noticeColor.Println("Session reset. Upload a new report with /upload <path>.")
			case strings.HasPrefix(line, "/upload"):
				path := strings.TrimSpace(strings.TrimPrefix(line, "/upload"))
				if path == "" {
					noticeColor.Println("usage: /upload <path-to-report>")
					continue
				}
				n, err := sess.Upload(ctx, path)
				if err != nil {
					errorColor.Println(err)
					continue
				}
				noticeColor.Printf("Report indexed successfully (%d chunks).\n", n)
			case strings.HasPrefix(line, "/"):
				noticeColor.Println("commands: /upload <path>, /reset, /quit")
			default:
				askQuestion(ctx, sess, line)
			}
		}
	},
}

func askQuestion(ctx context.Context, sess *session.Session, question string) {
	ans, err := sess.Ask(ctx, question)
	if err != nil {
		if errors.Is(err, session.ErrNoDocument) {
			noticeColor.Println(err.Error())
			return
		}
		errorColor.Println(err)
		return
	}

	assistantColor.Print("analyst> ")
	var full strings.Builder
	for frag := range ans.Stream.Fragments() {
		fmt.Print(frag)
		full.WriteString(frag)
	}
	fmt.Println()

	if err := ans.Stream.Err(); err != nil {
		// a cut-off answer is never presented as a complete one
		errorColor.Printf("[answer incomplete] %v\n", models.GenerationError(err))
		return
	}
	sess.RecordExchange(question, full.String())
	printCitations(ans.Citations)
}

func printCitations(citations []models.Citation) {
	if len(citations) == 0 {
		return
	}
	sourceColor.Println("sources:")
	for _, c := range citations {
		sourceColor.Printf("  [%d] page %s: %s\n", c.Index, c.Page, oneLine(c.Excerpt))
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func printBanner(indexed bool) {
	assistantColor.Println("Annual Report Analyst")
	fmt.Println("Try asking:")
	fmt.Println("  - What is the standalone vs consolidated revenue?")
	fmt.Println("  - What are the key regulatory risks?")
	fmt.Println("  - Summarize related party transactions")
	fmt.Println("  - Any red flags mentioned by auditors?")
	fmt.Println("  - What dividend has been declared and why?")
	if indexed {
		noticeColor.Println("A persisted index was found; ask away, or /upload to replace it.")
	} else {
		noticeColor.Println("Start with /upload <path-to-report>.")
	}
	fmt.Println()
}
