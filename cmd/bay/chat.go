package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/aviation-bay/internal/chat"
	"github.com/Veraticus/aviation-bay/internal/cli"
	"github.com/Veraticus/aviation-bay/internal/config"
	"github.com/Veraticus/aviation-bay/internal/tui"
	"github.com/Veraticus/aviation-bay/internal/tui/themes"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

func chatCmd() *cobra.Command {
	var (
		plain bool
		theme string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the aviation assistant",
		Long: `Chat with an AI assistant that answers questions about aircraft and jet
spotting. Runs a full-screen interface in a terminal and a line-based prompt
otherwise.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			ai, err := newAIService(ctx)
			if err != nil {
				return err
			}
			session := chat.NewSession(ai, config.ChatHistory(), nil, slog.Default())

			if !plain && isTerminal(os.Stdin) && isTerminal(os.Stdout) {
				if theme == "" {
					theme = viper.GetString("chat.theme")
				}
				return tui.RunChat(ctx, session, tui.WithTheme(themes.ByName(theme)))
			}

			return runLineChat(ctx, session, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "use the line-based prompt even in a terminal")
	cmd.Flags().StringVar(&theme, "theme", "", "color theme (default, catppuccin-mocha)")

	return cmd
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd())) // #nosec G115
}

// runLineChat reads one message per line until end of input, "/quit", or an
// interrupt. "/clear" forgets the conversation.
func runLineChat(ctx context.Context, session *chat.Session, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	handler := cli.NewInterruptHandler(out)
	ctx = handler.HandleInterrupts(ctx, "")

	fmt.Fprintln(out, cli.FormatTitle(cli.ChatIcon+" Aviation Bay Assistant"))
	fmt.Fprintln(out, cli.SubtleStyle.Render("Ask about aircraft, jets and spotting. /clear resets, /quit exits."))

	reader := cli.NewNonBlockingReader(in)
	for {
		fmt.Fprint(out, cli.FormatPrompt("You"))
		line, err := reader.ReadLine(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, cli.ErrInputCancelled) || handler.WasInterrupted() {
				fmt.Fprintln(out)
				return nil
			}
			return err
		}

		switch text := strings.TrimSpace(line); text {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/clear":
			session.Clear()
			fmt.Fprintln(out, cli.FormatInfo("Conversation cleared"))
		default:
			reply, sendErr := session.Send(ctx, text)
			if sendErr != nil {
				fmt.Fprintln(out, cli.FormatWarning(sendErr.Error()))
				continue
			}
			fmt.Fprintln(out, cli.RenderTurn(reply))
		}
	}
}
