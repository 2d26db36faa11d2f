// Package export writes composed layers to GeoJSON files.
package export

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/brusilov1916/brusilov-map/internal/geo"
	"github.com/brusilov1916/brusilov-map/internal/layers"
	"github.com/brusilov1916/brusilov-map/internal/storage"
	"github.com/brusilov1916/brusilov-map/pkg/core"
)

// Options controls where and how a phase is written.
type Options struct {
	OutputDir      string
	CompressOutput bool
	CRS            geo.CRS
}

// FileName returns brusilov_<phase>.geojson[.gz]; the all-phases view is "all".
func FileName(p core.Phase, compress bool) string {
	name := string(p)
	if name == "" {
		name = "all"
	}
	if compress {
		return fmt.Sprintf("brusilov_%s.geojson.gz", name)
	}
	return fmt.Sprintf("brusilov_%s.geojson", name)
}

// Encode writes l as a GeoJSON FeatureCollection and returns the feature count.
func Encode(w io.Writer, l *layers.Layers, crs geo.CRS) (int, error) {
	fc := l.FeatureCollection(crs)
	enc := json.NewEncoder(w)
	if err := enc.Encode(fc); err != nil {
		return 0, fmt.Errorf("failed to encode feature collection: %w", err)
	}
	return len(fc), nil
}

// Exporter composes and writes phases, recording each file in an optional
// export history.
type Exporter struct {
	composer *layers.Composer
	history  storage.ExportLog
	logger   *slog.Logger
}

// New creates an exporter. history may be nil.
func New(composer *layers.Composer, history storage.ExportLog, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{composer: composer, history: history, logger: logger}
}

// Export writes the layers for phase p and returns what was written.
func (e *Exporter) Export(p core.Phase, opts Options) (core.ExportRecord, error) {
	if opts.CRS == 0 {
		opts.CRS = geo.CRS4326
	}
	l, err := e.composer.Compose(layers.Selection{Phase: p})
	if err != nil {
		return core.ExportRecord{}, err
	}

	// Ensure output directory exists
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return core.ExportRecord{}, fmt.Errorf("failed to create output directory: %w", err)
	}
	outputPath := filepath.Join(opts.OutputDir, FileName(p, opts.CompressOutput))

	n, err := writeFile(outputPath, l, opts)
	if err != nil {
		return core.ExportRecord{}, err
	}

	rec := core.ExportRecord{
		Phase:     p,
		CRS:       int(opts.CRS),
		Path:      outputPath,
		Features:  n,
		Dataset:   e.composer.Dataset().Version,
		CreatedAt: time.Now().UTC(),
	}
	if e.history != nil {
		if err := e.history.RecordExport(rec); err != nil {
			e.logger.Warn("Failed to record export", "path", outputPath, "error", err)
		}
	}
	e.logger.Info("Exported layers", "phase", string(p), "path", outputPath, "features", n)
	return rec, nil
}

// ExportAll writes every phase including the all-phases view.
func (e *Exporter) ExportAll(opts Options) ([]core.ExportRecord, error) {
	phases := append([]core.Phase{core.PhaseAll}, core.Phases...)
	out := make([]core.ExportRecord, 0, len(phases))
	for _, p := range phases {
		rec, err := e.Export(p, opts)
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func writeFile(path string, l *layers.Layers, opts Options) (n int, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close output file: %w", cerr)
		}
	}()

	if !opts.CompressOutput {
		return Encode(f, l, opts.CRS)
	}

	gw := gzip.NewWriter(f)
	n, err = Encode(gw, l, opts.CRS)
	if err != nil {
		return 0, err
	}
	if err := gw.Close(); err != nil {
		return 0, fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return n, nil
}
