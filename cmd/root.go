package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"log/slog"

	"github.com/spf13/cobra"
	"github.com/sst/modforge/internal/catalog"
	"github.com/sst/modforge/internal/config"
	"github.com/sst/modforge/internal/format"
	"github.com/sst/modforge/internal/tui/page"
	"github.com/sst/modforge/internal/version"
)

// ErrNoFields is returned when the configuration declares nothing to edit.
var ErrNoFields = errors.New("no fields configured")

var rootCmd = &cobra.Command{
	Use:   "modforge",
	Short: "Fill in a form of typeahead fields from JSON catalogs",
	Long: `modforge shows a terminal form whose fields are typeahead comboboxes.
Each field draws its options from a JSON catalog declared in .modforge.json.
Catalog files are watched while the form is open. On submit the chosen values
are printed to stdout as text or JSON.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// If the help flag is set, show the help message
		if cmd.Flag("help").Changed {
			cmd.Help()
			return nil
		}
		if cmd.Flag("version").Changed {
			fmt.Fprintln(cmd.OutOrStdout(), version.Version)
			return nil
		}

		outputFormatStr, _ := cmd.Flags().GetString("output-format")
		outputFormat, err := format.Parse(outputFormatStr)
		if err != nil {
			return err
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if len(cfg.Fields) == 0 {
			return fmt.Errorf("%w: add fields to %s", ErrNoFields, ".modforge.json")
		}

		logs, closeLogs, err := setupLogging(cfg)
		if err != nil {
			return err
		}
		defer closeLogs()
		applyTheme(cfg)

		ctx := cmd.Context()
		catalogs, err := catalog.LoadAll(ctx, cfg.Catalogs)
		if err != nil {
			return err
		}

		title, _ := cmd.Flags().GetString("title")
		opts := editorOptions(cfg)
		if title != "" {
			opts = append(opts, page.WithTitle(title))
		}
		editor := page.NewEditorPage(cfg.Fields, catalogs, opts...)

		model, err := runForm(ctx, editor, logs, cfg.Catalogs)
		if err != nil {
			return err
		}
		if !model.Submitted() {
			slog.Info("form cancelled")
			return nil
		}
		return printValues(cmd.OutOrStdout(), model.Values(), outputFormat)
	},
}

// loadConfig resolves the working directory from --cwd and loads the
// configuration found there.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		err := os.Chdir(cwd)
		if err != nil {
			return nil, fmt.Errorf("failed to change directory: %v", err)
		}
	}
	if cwd == "" {
		c, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current working directory: %v", err)
		}
		cwd = c
	}
	return config.Load(cwd, debug)
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.PersistentFlags().StringP("output-format", "f", "text", "Output format for the chosen values (text, json)")

	rootCmd.Flags().BoolP("help", "h", false, "Help")
	rootCmd.Flags().BoolP("version", "v", false, "Version")
	rootCmd.Flags().StringP("title", "t", "", "Title shown above the form")

	rootCmd.AddCommand(pickCmd)
}
