package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hyperjump/photostory/internal/export"
)

// DefaultConfigPath is where the server looks for its config file.
const DefaultConfigPath = "/usr/local/etc/photostory/config.yaml"

// NewServerCommand runs the HTTP server until SIGINT or SIGTERM.
func NewServerCommand(serve ServeFunc) *cobra.Command {
	var configPath string
	var debug bool
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := serve(ctx, configPath, debug); err != nil {
				return WrapExitError(ExitFailure, "server failed", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", DefaultConfigPath, "config file path")
	cmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
	return cmd
}

// NewChaptersCommand groups the chapter subcommands.
func NewChaptersCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "chapters",
		Aliases: []string{"ch"},
		Short:   "List, show, and add chapters",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every chapter in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			chapters, err := opts.client().ListChapters(cmd.Context())
			if err != nil {
				return requestError("list chapters", err)
			}
			return opts.formatter(cmd).Chapters(chapters)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one chapter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chapter, err := opts.client().GetChapter(cmd.Context(), args[0])
			if err != nil {
				return requestError("get chapter", err)
			}
			return opts.formatter(cmd).Chapter(chapter)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <image>...",
		Short: "Upload image files as the next chapters, in argument order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := opts.client()
			f := opts.formatter(cmd)
			for _, path := range args {
				if opts.Verbose {
					fmt.Fprintf(cmd.ErrOrStderr(), "uploading %s\n", path)
				}
				chapter, err := client.AnalyzeImage(cmd.Context(), path)
				if err != nil {
					return requestError("add "+path, err)
				}
				if err := f.Chapter(chapter); err != nil {
					return err
				}
			}
			return nil
		},
	})

	var base64Image string
	addURL := &cobra.Command{
		Use:   "add-url <image-url>",
		Short: "Create the next chapter from an image URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			chapter, err := opts.client().CreateChapter(cmd.Context(), args[0], base64Image)
			if err != nil {
				return requestError("add chapter from URL", err)
			}
			return opts.formatter(cmd).Chapter(chapter)
		},
	}
	addURL.Flags().StringVar(&base64Image, "base64", "", "image bytes, base64 encoded, used instead of downloading the URL")
	cmd.AddCommand(addURL)
	return cmd
}

// NewExportCommand downloads the story document.
func NewExportCommand(opts *RootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the story as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			story, err := opts.client().Export(cmd.Context())
			if err != nil {
				return requestError("export", err)
			}
			if output == "" {
				return opts.formatter(cmd).Story(story)
			}
			if output == "auto" {
				output = export.Filename(story.CreatedAt)
			}
			data, err := json.MarshalIndent(story, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return WrapExitError(ExitCommandError, "write export", err)
			}
			return opts.formatter(cmd).Message(fmt.Sprintf("Wrote %d chapters to %s", len(story.Chapters), output))
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", `write the export to this file ("auto" names it visual-story-<millis>.json)`)
	return cmd
}

// NewResetCommand deletes every chapter.
func NewResetCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete every chapter and start a new story",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := opts.client().Reset(cmd.Context())
			if err != nil {
				return requestError("reset", err)
			}
			return opts.formatter(cmd).Message(msg)
		},
	}
}

// NewSearchCommand searches chapter narratives and tags.
func NewSearchCommand(opts *RootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Keyword search over narratives, tags, and connections",
		Long:  "Query is all remaining arguments joined by spaces, so quoting is optional.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := buildSearchQuery(args)
			if query == "" {
				return NewExitError(ExitCommandError, "search query is empty")
			}
			chapters, err := opts.client().Search(cmd.Context(), query, limit)
			if err != nil {
				return requestError("search", err)
			}
			return opts.formatter(cmd).Chapters(chapters)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum number of results (0 = server default)")
	return cmd
}

// NewVersionCommand prints the build version.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "photostory version %s\n", version)
		},
	}
}

// buildSearchQuery joins args so multi-word queries work with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// Execute runs the root command with ctx and returns the process exit code.
func Execute(ctx context.Context, cmd *cobra.Command) int {
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return GetExitCode(err)
	}
	return ExitSuccess
}
