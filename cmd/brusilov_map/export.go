package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/brusilov1916/brusilov-map/internal/capture"
	"github.com/brusilov1916/brusilov-map/internal/config"
	"github.com/brusilov1916/brusilov-map/internal/export"
	"github.com/brusilov1916/brusilov-map/internal/geo"
	"github.com/brusilov1916/brusilov-map/internal/layers"
	"github.com/brusilov1916/brusilov-map/internal/phase"
	"github.com/brusilov1916/brusilov-map/internal/storage"
	"github.com/brusilov1916/brusilov-map/pkg/core"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the composed layers of a phase to a GeoJSON file",
	Long: `Writes brusilov_<phase>.geojson into the output directory. Without
--phase the all-phases view is written; --every writes every phase.`,
	RunE: runExport,
}

var (
	exportPhase   string
	exportEvery   bool
	exportOut     string
	exportGzip    bool
	exportCRS     int
	exportHistory bool
)

func init() {
	exportCmd.Flags().StringVar(&exportPhase, "phase", "", "phase id (default: all phases)")
	exportCmd.Flags().BoolVar(&exportEvery, "every", false, "export every phase and the all-phases view")
	exportCmd.Flags().StringVar(&exportOut, "out", ".", "output directory")
	exportCmd.Flags().BoolVar(&exportGzip, "gzip", false, "gzip the output")
	exportCmd.Flags().IntVar(&exportCRS, "crs", int(geo.CRS4326), "output CRS, 4326 or 3857")
	exportCmd.Flags().BoolVar(&exportHistory, "history", false, "list earlier exports of the phase instead")
}

func runExport(cmd *cobra.Command, args []string) error {
	p, err := phase.Parse(exportPhase)
	if err != nil {
		return err
	}
	crs := geo.CRS(exportCRS)
	if crs != geo.CRS4326 && crs != geo.CRS3857 {
		return fmt.Errorf("unsupported crs %d", exportCRS)
	}

	backend, err := storage.NewBackend(config.GetStorageConfig(), Logger)
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return err
	}
	defer func() {
		if err := backend.Close(); err != nil {
			Logger.Error("Failed to close storage", "error", err)
		}
	}()
	history, _ := backend.(storage.ExportLog)

	if exportHistory {
		if history == nil {
			return fmt.Errorf("storage type %q keeps no export history", config.GetStorageConfig().Type)
		}
		recs, err := history.Exports(p)
		if err != nil {
			return err
		}
		return printExports(recs)
	}

	ds, err := loadDataset()
	if err != nil {
		return err
	}
	exporter := export.New(layers.NewComposer(ds, capture.Default()), history, Logger)
	opts := export.Options{OutputDir: exportOut, CompressOutput: exportGzip, CRS: crs}

	var recs []core.ExportRecord
	if exportEvery {
		recs, err = exporter.ExportAll(opts)
	} else {
		var rec core.ExportRecord
		rec, err = exporter.Export(p, opts)
		recs = append(recs, rec)
	}
	if err != nil {
		return err
	}
	return printExports(recs)
}

func printExports(recs []core.ExportRecord) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PHASE\tCRS\tFEATURES\tDATASET\tCREATED\tPATH")
	for _, r := range recs {
		name := string(r.Phase)
		if name == "" {
			name = "all"
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\n", name, r.CRS, r.Features, r.Dataset,
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.Path)
	}
	return w.Flush()
}
