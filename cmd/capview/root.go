package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

// viewOptions holds the viewer flags
type viewOptions struct {
	dirname     string
	filename    string
	begin       bool
	ignoreMark  bool
	bookmark    string
	noMarking   bool
	markingFile string
	config      string
}

// markingPath is where the final position is written
func (o *viewOptions) markingPath() string {
	if o.markingFile != "" {
		return o.markingFile
	}
	return o.bookmark
}

func newRootCommand() *cobra.Command {
	opts := &viewOptions{}

	rootCmd := &cobra.Command{
		Use:           "capview",
		Short:         "View collections of images, videos and captions",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.filename != "" && opts.begin {
				return errors.New("--filename and --begin are incompatible")
			}
			return runViewer(cmd.Context(), opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVar(&opts.filename, "filename", "", "The file to view first (relative to dirname, can't be in a subdirectory)")
	flags.BoolVar(&opts.begin, "begin", false, "Start at the first file in dirname, alphabetically")
	flags.BoolVar(&opts.ignoreMark, "ignore-mark", false, "Ignore the bookmark file; --filename and --begin imply it")
	flags.StringVar(&opts.bookmark, "bookmark", "bookmark.txt", "Bookmark file that decides the starting file; random when absent")
	flags.BoolVar(&opts.noMarking, "no-marking", false, "Do not write the final position to the bookmark")
	flags.StringVar(&opts.markingFile, "marking-file", "", "File to write the final position to (default: --bookmark)")
	rootCmd.PersistentFlags().StringVar(&opts.dirname, "dirname", ".", "The directory to be opened")
	rootCmd.PersistentFlags().StringVarP(&opts.config, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newListCommand(opts))

	return rootCmd
}

// runViewer runs the application graph until the shell quits or a signal arrives
func runViewer(parent context.Context, opts *viewOptions) error {
	if parent == nil {
		parent = context.Background()
	}

	app := fx.New(appOptions(opts))
	if err := app.Err(); err != nil {
		return err
	}

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
	case <-app.Wait():
	}

	return app.Stop(context.Background())
}
