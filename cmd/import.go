package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/livability-map/internal/dataset"
)

type importOptions struct {
	join     string
	out      string
	charset  string
	fields   []string
	simplify float64
}

var importOpts importOptions

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Build the GeoJSON dataset from source files",
}

var importShapefileCmd = &cobra.Command{
	Use:   "shapefile <path.shp>",
	Short: "Convert an FSA boundary shapefile to GeoJSON, joining score attributes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := importOpts
		if !cmd.Flags().Changed("charset") {
			opts.charset = cfg.Dataset.DBFCharset
		}
		if !cmd.Flags().Changed("simplify") {
			opts.simplify = cfg.Dataset.Simplify
		}
		coll, err := buildDataset(cmd, args[0], opts)
		if err != nil {
			return err
		}
		if err := dataset.WriteFile(opts.out, coll); err != nil {
			return err
		}
		zap.L().Info("import complete",
			zap.String("shapefile", args[0]),
			zap.String("out", opts.out),
			zap.Int("features", coll.Len()),
		)
		return nil
	},
}

func buildDataset(cmd *cobra.Command, path string, opts importOptions) (*dataset.Collection, error) {
	coll, err := dataset.ImportShapefile(path, dataset.ImportOptions{
		Charset: opts.charset,
		Fields:  opts.fields,
	})
	if err != nil {
		return nil, eris.Wrap(err, "import shapefile")
	}

	if opts.join != "" {
		attrs, err := newLoader().Load(cmd.Context(), opts.join)
		if err != nil {
			return nil, eris.Wrap(err, "import: load join attributes")
		}
		matched := dataset.Join(coll, attrs)
		zap.L().Info("joined attributes",
			zap.String("source", opts.join),
			zap.Int("matched", matched),
			zap.Int("features", coll.Len()),
		)
		if matched < coll.Len() {
			zap.L().Warn("some areas have no joined attributes",
				zap.Int("unmatched", coll.Len()-matched),
			)
		}
	}

	return dataset.Simplify(coll, opts.simplify), nil
}

func init() {
	f := importShapefileCmd.Flags()
	f.StringVar(&importOpts.join, "join", "", "GeoJSON file or URL whose properties are joined by FSA code")
	f.StringVar(&importOpts.out, "out", "fsa.geojson", "output GeoJSON path")
	f.StringVar(&importOpts.charset, "charset", "", "DBF attribute charset (default from config)")
	f.StringSliceVar(&importOpts.fields, "fields", nil, "attribute columns to keep (default all)")
	f.Float64Var(&importOpts.simplify, "simplify", 0, "Douglas-Peucker tolerance in degrees (default from config)")
	importCmd.AddCommand(importShapefileCmd)
	rootCmd.AddCommand(importCmd)
}
