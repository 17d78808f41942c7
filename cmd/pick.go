package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"log/slog"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"github.com/sst/modforge/internal/catalog"
	"github.com/sst/modforge/internal/config"
	"github.com/sst/modforge/internal/format"
	"github.com/sst/modforge/internal/tui/page"
)

type pickOptions struct {
	multi        bool
	freeSolo     bool
	groupBy      string
	searchFields []string
	fuzzy        bool
}

var pickCmd = &cobra.Command{
	Use:   "pick --catalog FILE",
	Short: "Pick options from a single catalog and print them",
	Long: `pick opens one typeahead field over a catalog file and prints the chosen
option. In single mode it exits as soon as an option is chosen; with --multi
it exits on ctrl+s.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFormatStr, _ := cmd.Flags().GetString("output-format")
		outputFormat, err := format.Parse(outputFormatStr)
		if err != nil {
			return err
		}

		path, _ := cmd.Flags().GetString("catalog")
		var opts pickOptions
		opts.multi, _ = cmd.Flags().GetBool("multi")
		opts.freeSolo, _ = cmd.Flags().GetBool("free-solo")
		opts.groupBy, _ = cmd.Flags().GetString("group-by")
		opts.searchFields, _ = cmd.Flags().GetStringSlice("search-fields")
		opts.fuzzy, _ = cmd.Flags().GetBool("fuzzy")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if !filepath.IsAbs(path) && !catalog.IsURL(path) {
			path = filepath.Join(cfg.WorkingDir, path)
		}

		logs, closeLogs, err := setupLogging(cfg)
		if err != nil {
			return err
		}
		defer closeLogs()
		applyTheme(cfg)

		name := catalogName(path)
		paths := map[string]string{name: path}
		catalogs, err := catalog.LoadAll(cmd.Context(), paths)
		if err != nil {
			return err
		}

		field := newPickField(name, opts)
		editorOpts := append(editorOptions(cfg), page.WithTitle(fmt.Sprintf("Pick from %s", name)))
		if !opts.multi {
			editorOpts = append(editorOpts, page.WithSubmitOnSelect())
		}
		editor := page.NewEditorPage([]config.Field{field}, catalogs, editorOpts...)

		model, err := runForm(cmd.Context(), editor, logs, paths)
		if err != nil {
			return err
		}
		if !model.Submitted() {
			slog.Info("pick cancelled")
			return nil
		}
		return printSelection(cmd.OutOrStdout(), model.Values(), outputFormat)
	},
}

// catalogName names a catalog after its file, without the extension. A glob
// is named after the directory it starts from.
func catalogName(path string) string {
	if catalog.IsPattern(path) {
		dir, _ := doublestar.SplitPattern(filepath.ToSlash(path))
		return strings.ToLower(filepath.Base(filepath.FromSlash(dir)))
	}
	base := filepath.Base(path)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

func newPickField(name string, opts pickOptions) config.Field {
	match := "substring"
	if opts.fuzzy {
		match = "fuzzy"
	}
	return config.Field{
		Name:         name,
		Label:        name,
		Catalog:      name,
		Multiselect:  opts.multi,
		FreeSolo:     opts.freeSolo,
		GroupBy:      opts.groupBy,
		SearchFields: opts.searchFields,
		Match:        match,
	}
}

func init() {
	pickCmd.Flags().String("catalog", "", "Catalog to pick from: a JSON file, a glob of files or a blob URL")
	pickCmd.Flags().Bool("multi", false, "Allow several options")
	pickCmd.Flags().Bool("free-solo", false, "Accept typed text that matches no option")
	pickCmd.Flags().String("group-by", "", "Option field to group the list by")
	pickCmd.Flags().StringSlice("search-fields", nil, "Option fields matched against the query (comma-separated list)")
	pickCmd.Flags().Bool("fuzzy", false, "Use fuzzy matching instead of substring matching")
	pickCmd.MarkFlagRequired("catalog")
}
