// Package cli implements the photostory command line.
package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

// DefaultServerURL is where client commands look for a running server.
const DefaultServerURL = "http://localhost:8080"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Server  string
	Format  string // "json" | "text"
	Verbose bool
	Timeout time.Duration
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{string(OutputText), string(OutputJSON)}

// ServeFunc runs the HTTP server until ctx is cancelled.
type ServeFunc func(ctx context.Context, configPath string, debug bool) error

// NewRootCommand creates the root command. serve backs the server subcommand.
func NewRootCommand(version string, serve ServeFunc) *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "photostory",
		Short:         "photostory turns photos into an evolving story",
		Long:          "Upload photos one at a time; each becomes the next chapter of a story written by an AI vision model.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Server, "server", DefaultServerURL, "photostory server URL")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", string(OutputText), "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().DurationVar(&opts.Timeout, "timeout", 3*time.Minute, "request timeout")

	cmd.AddCommand(NewServerCommand(serve))
	cmd.AddCommand(NewChaptersCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewVersionCommand(version))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) client() *Client {
	return NewClient(o.Server, &http.Client{Timeout: o.Timeout})
}

func (o *RootOptions) formatter(cmd *cobra.Command) *Formatter {
	return &Formatter{Format: OutputFormat(o.Format), Writer: cmd.OutOrStdout()}
}
