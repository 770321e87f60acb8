package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/livability-map/internal/dataset"
	"github.com/sells-group/livability-map/internal/mapview"
	"github.com/sells-group/livability-map/internal/scorer"
)

type scoreOptions struct {
	weights  string
	preset   string
	property string
	top      int
	out      string
	xlsx     string
}

var scoreOpts scoreOptions

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score the dataset and print the legend and top areas",
	Long:  "Loads the configured dataset, applies weights and the active property, prints the legend and ranking, and optionally exports scored GeoJSON and an XLSX ranking.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("score"); err != nil {
			return err
		}
		return runScore(cmd.Context(), cmd.OutOrStdout(), newCoordinator(), scoreOpts)
	},
}

func runScore(ctx context.Context, out io.Writer, coord *mapview.Coordinator, opts scoreOptions) error {
	if _, err := coord.Reload(ctx); err != nil {
		return eris.Wrap(err, "score: load dataset")
	}

	weights := coord.State().Weights
	if opts.preset != "" {
		p, err := lookupPreset(ctx, opts.preset)
		if err != nil {
			return err
		}
		if p == nil {
			return eris.Errorf("score: unknown preset %q", opts.preset)
		}
		weights = p.Weights
	}
	if opts.weights != "" {
		w, err := scorer.ParseWeights(opts.weights, weights)
		if err != nil {
			return err
		}
		weights = w
	}
	if opts.preset != "" || opts.weights != "" {
		if _, err := coord.Dispatch(mapview.Action{Kind: mapview.ChangeWeights, Weights: weights}); err != nil {
			return err
		}
	}
	if opts.property != "" {
		if _, err := coord.Dispatch(mapview.Action{Kind: mapview.SelectProperty, Property: opts.property}); err != nil {
			return err
		}
	}

	st, fr := coord.Snapshot()
	if opts.top > 0 {
		fr.Top = mapview.TopN(st.Features, fr.Property, opts.top)
	}
	printFrame(out, fr)

	if opts.out != "" {
		if err := dataset.WriteFile(opts.out, mapview.Annotate(st, fr)); err != nil {
			return err
		}
		zap.L().Info("wrote scored GeoJSON", zap.String("path", opts.out), zap.Int("features", st.Features.Len()))
	}
	if opts.xlsx != "" {
		if err := mapview.WriteXLSX(opts.xlsx, fr); err != nil {
			return err
		}
		zap.L().Info("wrote ranking workbook", zap.String("path", opts.xlsx))
	}
	return nil
}

func printFrame(out io.Writer, fr mapview.Frame) {
	n := fr.Normalized
	_, _ = fmt.Fprintf(out, "Weights: safety %.0f%%  parks %.0f%%  transit %.0f%%  parking %.0f%%\n\n",
		n.Safety*100, n.Parks*100, n.Transit*100, n.Parking*100)

	_, _ = fmt.Fprintln(out, fr.Legend.Title)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, e := range fr.Legend.Entries {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", e.Color, e.Label)
	}
	_ = w.Flush()

	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RANK\tFSA\tSCORE")
	_, _ = fmt.Fprintln(w, "----\t---\t-----")
	for i, e := range fr.Top {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, e.ID, e.Label)
	}
	_ = w.Flush()
}

func init() {
	f := scoreCmd.Flags()
	f.StringVar(&scoreOpts.weights, "weights", "", "weights override, e.g. safety=40,parks=30,transit=20,parking=10")
	f.StringVar(&scoreOpts.preset, "preset", "", "apply a named preset from the presets file")
	f.StringVar(&scoreOpts.property, "property", "", "property to classify and rank (default from config)")
	f.IntVar(&scoreOpts.top, "top", 0, "number of areas to list (default from config)")
	f.StringVar(&scoreOpts.out, "out", "", "write scored GeoJSON to this path")
	f.StringVar(&scoreOpts.xlsx, "xlsx", "", "write the ranking workbook to this path")
	rootCmd.AddCommand(scoreCmd)
}
