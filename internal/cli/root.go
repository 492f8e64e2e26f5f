// Package cli holds the cobra commands of the inbox terminal client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/welldanyogia/seatea-inbox/internal/badge"
	"github.com/welldanyogia/seatea-inbox/internal/client"
	"github.com/welldanyogia/seatea-inbox/internal/inbox"
	"github.com/welldanyogia/seatea-inbox/internal/logger"
	"github.com/welldanyogia/seatea-inbox/internal/tui"
)

var (
	version = "dev"
	commit  = "unknown"
)

const (
	defaultAPIURL       = "http://localhost:8080"
	defaultPollInterval = 30 * time.Second
)

type rootOptions struct {
	apiURL       string
	token        string
	partnerID    uint
	partnerName  string
	partnerEmail string
	partnerRole  string
	logFile      string
	logLevel     string
	pollInterval time.Duration
}

// NewRootCommand builds the inbox command tree
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Sea & Tea inbox in your terminal",
		Long: `inbox shows your Sea & Tea conversations, lets you read and answer
them, and keeps the unread badge up to date.

Pass --partner-id to open a conversation straight away, the way the
"Message guide" button does on the website.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInbox(cmd.Context(), opts)
		},
	}
	cmd.CompletionOptions.DisableDefaultCmd = true

	flags := cmd.Flags()
	flags.StringVar(&opts.apiURL, "api-url", envOr("INBOX_API_URL", defaultAPIURL), "inbox API base URL (env INBOX_API_URL)")
	flags.StringVar(&opts.token, "token", os.Getenv("INBOX_TOKEN"), "bearer token (env INBOX_TOKEN)")
	flags.UintVar(&opts.partnerID, "partner-id", 0, "open the conversation with this user")
	flags.StringVar(&opts.partnerName, "partner-name", "", "display name used until the conversation exists")
	flags.StringVar(&opts.partnerEmail, "partner-email", "", "partner email used until the conversation exists")
	flags.StringVar(&opts.partnerRole, "partner-role", "", "partner role, e.g. GUIDE")
	flags.StringVar(&opts.logFile, "log-file", filepath.Join(os.TempDir(), "seatea-inbox.log"), "log file path")
	flags.StringVar(&opts.logLevel, "log-level", envOr("LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	flags.DurationVar(&opts.pollInterval, "poll-interval", defaultPollInterval, "unread badge poll interval")

	cmd.AddCommand(newTokenCommand())
	return cmd
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runInbox(ctx context.Context, opts *rootOptions) error {
	if opts.token == "" {
		return errors.New("a token is required: pass --token or set INBOX_TOKEN (see `inbox token`)")
	}

	api, err := client.New(client.Config{BaseURL: opts.apiURL, Token: opts.token})
	if err != nil {
		return err
	}

	f, err := os.OpenFile(opts.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	log := logger.New(f, opts.logLevel)

	var start *inbox.StartConversation
	if opts.partnerID != 0 {
		start = &inbox.StartConversation{
			PartnerID:    opts.partnerID,
			PartnerName:  opts.partnerName,
			PartnerEmail: opts.partnerEmail,
			PartnerRole:  opts.partnerRole,
		}
	}

	log.Info("inbox starting", "api_url", opts.apiURL, "deep_link", start != nil)

	return tui.Run(ctx, tui.Options{
		Controller: inbox.NewController(api, inbox.Options{Logger: log}),
		Navigation: inbox.NewNavigation(start),
		Badge:      badge.NewPoller(api, opts.pollInterval, log),
		Logger:     log,
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
