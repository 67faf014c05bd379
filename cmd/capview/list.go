package main

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/genricoloni/capview/internal/archive"
	"github.com/genricoloni/capview/internal/domain"
	"github.com/genricoloni/capview/internal/media"
	"github.com/genricoloni/capview/internal/navigator"
	"github.com/genricoloni/capview/internal/resolver"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newListCommand(opts *viewOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the entries of --dirname in navigation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			rows, err := listEntries(logger, opts.dirname)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderListing(rows))
			return nil
		},
	}
}

// listing is one row of the list command
type listing struct {
	Name    string
	Kind    resolver.EntryKind
	Members int
	Media   string
}

// listEntries describes every entry of dir without extracting archives
func listEntries(logger *zap.Logger, dir string) ([]listing, error) {
	files, err := navigator.ListDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	arc := archive.NewZip(logger)
	classifier := media.NewClassifier(logger)

	rows := make([]listing, 0, len(files))
	for _, path := range files {
		kind, members, err := resolver.Inspect(arc, path)
		if err != nil {
			return nil, fmt.Errorf("inspect %s: %w", filepath.Base(path), err)
		}

		row := listing{Name: filepath.Base(path), Kind: kind, Members: members}
		if kind == resolver.KindMedia {
			mk, err := classifier.Classify(path)
			if err != nil {
				return nil, err
			}
			row.Media = string(mk)
			if mk == domain.KindUnknown {
				row.Media += " (placeholder)"
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// renderListing lays rows out in navigation order; counts are right aligned
func renderListing(rows []listing) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Name", "Kind", "Members", "Media"})

	for i, r := range rows {
		var members any = ""
		if r.Members > 0 {
			members = r.Members
		}
		tw.AppendRow(table.Row{i, r.Name, r.Kind, members, r.Media})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "#", Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Name: "Members", Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
