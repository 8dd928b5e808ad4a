// Package dataprep loads transaction spreadsheets and cleans them into
// records ready for basket construction.
package dataprep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"golang.org/x/sync/errgroup"

	"basket-rules/internal/models"
)

const (
	batchSize  = 10000
	maxWorkers = 10
)

type Options struct {
	// Root, when set, confines source paths to this directory. Relative
	// paths are resolved against it.
	Root     string
	CacheDir string
	Workers  int
}

type Loader struct {
	root    string
	cache   *cache
	workers int
	logger  *slog.Logger
}

func NewLoader(opts Options, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Workers
	if workers < 1 || workers > maxWorkers {
		workers = maxWorkers
	}

	l := &Loader{
		workers: workers,
		logger:  logger,
	}
	if opts.Root != "" {
		l.root = filepath.Clean(opts.Root)
	}
	if opts.CacheDir != "" {
		l.cache = newCache(opts.CacheDir)
	}
	return l
}

// Request names a source file and the columns to map from it.
type Request struct {
	Path    string
	Sheet   string
	Columns models.Columns
}

// Load reads the source file, maps the requested columns and returns the
// cleaned record set. Failures to read or map the file are *DataLoadError.
func (l *Loader) Load(ctx context.Context, req Request) ([]models.Record, error) {
	path, err := l.ResolvePath(req.Path)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, &DataLoadError{Path: req.Path, Err: err}
	}
	if info.IsDir() {
		return nil, &DataLoadError{Path: req.Path, Err: fmt.Errorf("%w: is a directory", ErrUnsupportedFormat)}
	}

	key := cacheKey{Path: path, Sheet: req.Sheet, Columns: req.Columns}
	if l.cache != nil {
		if records, ok := l.cache.load(key, info); ok {
			l.logger.Info("loaded records from cache", "path", path, "records", len(records))
			return records, nil
		}
	}

	start := time.Now()
	records, err := l.readRecords(ctx, path, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var dle *DataLoadError
		if errors.As(err, &dle) {
			return nil, dle
		}
		return nil, &DataLoadError{Path: req.Path, Err: err}
	}

	cleaned := Clean(records)

	l.logger.Info("source file prepared",
		"path", path,
		"rows", len(records),
		"records", len(cleaned),
		"dropped", len(records)-len(cleaned),
		"duration", time.Since(start),
	)

	if l.cache != nil {
		if err := l.cache.save(key, info, cleaned); err != nil {
			l.logger.Warn("failed to save cache", "path", path, "error", err)
		}
	}

	return cleaned, nil
}

// ResolvePath applies the data root policy to a caller-supplied path.
// Symlinks are followed, so a link inside the root that points elsewhere is
// rejected.
func (l *Loader) ResolvePath(p string) (string, error) {
	if l.root == "" {
		return filepath.Clean(p), nil
	}

	root, err := filepath.Abs(l.root)
	if err != nil {
		return "", fmt.Errorf("resolve data root: %w", err)
	}
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", fmt.Errorf("resolve data root: %w", err)
	}

	if !filepath.IsAbs(p) {
		p = filepath.Join(realRoot, p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOutsideRoot, err)
	}

	target, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// nothing to follow; the stat in Load reports the failure
		if within(root, abs) || within(realRoot, abs) {
			return abs, nil
		}
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, p)
	}
	if !within(realRoot, target) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, p)
	}
	return target, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (l *Loader) readRecords(ctx context.Context, path string, req Request) ([]models.Record, error) {
	tbl, err := readTable(path, req.Sheet)
	if err != nil {
		return nil, err
	}

	idx, err := tbl.columnIndex(req.Columns.Invoice, req.Columns.Item, req.Columns.Country, req.Columns.Quantity)
	if err != nil {
		return nil, err
	}

	batches := (len(tbl.rows) + batchSize - 1) / batchSize
	results := make([][]models.Record, batches)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)

	for b := 0; b < batches; b++ {
		start := b * batchSize
		end := min(start+batchSize, len(tbl.rows))

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out := make([]models.Record, 0, end-start)
			for i := start; i < end; i++ {
				rec, err := parseRow(tbl.rows[i], idx)
				if err != nil {
					// +2: one for the header, one for 1-based rows
					return &DataLoadError{Path: req.Path, Row: i + 2, Err: err}
				}
				out = append(out, rec)
			}
			results[b] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]models.Record, 0, len(tbl.rows))
	for _, part := range results {
		records = append(records, part...)
	}
	return records, nil
}

func parseRow(row []string, idx []int) (models.Record, error) {
	invoice := cell(row, idx[0])
	if strings.TrimSpace(invoice) == "" {
		// dropped by Clean; the quantity is never read
		return models.Record{}, nil
	}

	qty, err := canonicalQuantity(cell(row, idx[3]))
	if err != nil {
		return models.Record{}, err
	}
	return models.Record{
		Invoice:  invoice,
		Item:     cell(row, idx[1]),
		Country:  cell(row, idx[2]),
		Quantity: qty,
	}, nil
}

func canonicalQuantity(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	d, _, err := apd.NewFromString(s)
	if err != nil || d.Form != apd.Finite {
		return "", fmt.Errorf("%w: %q", ErrInvalidQuantity, s)
	}
	return d.String(), nil
}
