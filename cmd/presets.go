package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/livability-map/internal/scorer"
	"github.com/sells-group/livability-map/internal/store"
)

var (
	presetWeights     string
	presetDescription string
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "Manage named weight presets",
}

var presetsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored presets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withStore(cmd.Context(), func(st store.Store) error {
			presets, err := st.ListPresets(cmd.Context())
			if err != nil {
				return err
			}
			printPresets(cmd.OutOrStdout(), presets)
			return nil
		})
	},
}

var presetsSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save a preset from --weights (missing components use the configured defaults)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := scorer.ParseWeights(presetWeights, configWeights(cfg.Scoring.Weights))
		if err != nil {
			return err
		}
		p := scorer.Preset{Name: args[0], Description: presetDescription, Weights: w}
		return withStore(cmd.Context(), func(st store.Store) error {
			if err := st.SavePreset(cmd.Context(), p); err != nil {
				return err
			}
			zap.L().Info("preset saved", zap.String("name", p.Name))
			return nil
		})
	},
}

var presetsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a stored preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd.Context(), func(st store.Store) error {
			return st.DeletePreset(cmd.Context(), args[0])
		})
	},
}

var presetsImportCmd = &cobra.Command{
	Use:   "import [presets.yaml]",
	Short: "Load presets from a YAML file into the store",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfg.Scoring.PresetsFile
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			return eris.New("presets file is required (argument or scoring.presets_file)")
		}
		presets, err := scorer.LoadPresets(path)
		if err != nil {
			return err
		}
		return withStore(cmd.Context(), func(st store.Store) error {
			n, err := importPresets(cmd.Context(), st, presets)
			if err != nil {
				return err
			}
			zap.L().Info("presets imported", zap.String("file", path), zap.Int64("rows", n))
			return nil
		})
	},
}

// importPresets bulk-loads into postgres and saves one by one elsewhere.
func importPresets(ctx context.Context, st store.Store, presets []scorer.Preset) (int64, error) {
	if pg, ok := st.(*store.PostgresStore); ok {
		return pg.ImportPresets(ctx, presets)
	}
	for _, p := range presets {
		if err := st.SavePreset(ctx, p); err != nil {
			return 0, err
		}
	}
	return int64(len(presets)), nil
}

func withStore(ctx context.Context, fn func(store.Store) error) error {
	if err := cfg.Validate("store"); err != nil {
		return err
	}
	st, err := initStore(ctx)
	if err != nil {
		return eris.Wrap(err, "init store")
	}
	defer st.Close() //nolint:errcheck
	return fn(st)
}

func printPresets(out io.Writer, presets []scorer.Preset) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tSAFETY\tPARKS\tTRANSIT\tPARKING\tDESCRIPTION")
	_, _ = fmt.Fprintln(w, "----\t------\t-----\t-------\t-------\t-----------")
	for _, p := range presets {
		_, _ = fmt.Fprintf(w, "%s\t%g\t%g\t%g\t%g\t%s\n",
			p.Name, p.Weights.Safety, p.Weights.Parks, p.Weights.Transit, p.Weights.Parking, p.Description)
	}
	_ = w.Flush()
}

func init() {
	presetsSaveCmd.Flags().StringVar(&presetWeights, "weights", "", "weights, e.g. safety=40,parks=30")
	presetsSaveCmd.Flags().StringVar(&presetDescription, "description", "", "preset description")
	_ = presetsSaveCmd.MarkFlagRequired("weights")

	presetsCmd.AddCommand(presetsListCmd, presetsSaveCmd, presetsDeleteCmd, presetsImportCmd)
	rootCmd.AddCommand(presetsCmd)
}
