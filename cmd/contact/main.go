package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/portfolio/internal/contactform"
	"github.com/dukerupert/portfolio/internal/tui"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	url     string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "contact",
		Short:         "Send a message through the portfolio contact form",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.url, "url", "u", envOr("CONTACT_URL", "http://localhost:3000/api/contact"), "contact endpoint")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", contactform.DefaultTimeout, "request timeout")

	rootCmd.AddCommand(newSendCmd(opts))
	rootCmd.AddCommand(newFormCmd(opts))
	return rootCmd
}

func (o *options) view() *contactform.View {
	return contactform.NewView(contactform.NewClient(o.url, &http.Client{Timeout: o.timeout}))
}

func newSendCmd(opts *options) *cobra.Command {
	var email, name, message string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one message non-interactively",
		Long: `Send validates the fields the same way the web form does and posts them.
Use --message - to read the message from standard input.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if message == "-" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read message: %w", err)
				}
				message = strings.TrimRight(string(b), "\n")
			}

			view := opts.view()
			view.Email.Change(email)
			view.Name.Change(name)
			view.Message.Change(message)

			if !view.Validate() {
				var msgs []string
				for _, f := range view.All() {
					if f.Invalid() {
						msgs = append(msgs, f.Error())
					}
				}
				return errors.New(strings.Join(msgs, "; "))
			}

			if err := view.Submit(cmd.Context()); err != nil {
				return errors.New(contactform.Message(err))
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Successfully sent your submission!")
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "your email address")
	cmd.Flags().StringVarP(&name, "name", "n", "", "your name")
	cmd.Flags().StringVarP(&message, "message", "m", "", "your message, or - for stdin")
	return cmd
}

func newFormCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "form",
		Short: "Fill in the contact form interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(cmd.Context(), opts.view())
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
