package sink

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/webdriftlab/ecom-scraper/internal/models"
)

// CSVSink writes the two record streams as self-describing CSV files under
// one session directory named <platform>-<domain>-<timestamp>. Every append
// opens the file, writes one row, flushes and fsyncs before returning, so a
// crash between appends never touches already-written rows.
type CSVSink struct {
	dir          string
	productsPath string
	variantsPath string
	logger       *slog.Logger
}

// SessionDirName builds the session directory name for one target.
func SessionDirName(platformID, domain string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s", platformID, domain, now.Format("2006-01-02--15-04-05"))
}

// NewCSVSink creates (or reopens) the session directory under root and
// initializes both stream files with their header rows. Reopening an
// existing directory is the resume path: headers are only written to new
// files and existing rows are preserved.
func NewCSVSink(root, sessionName string) (*CSVSink, error) {
	dir := filepath.Join(root, sessionName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating session dir: %v", ErrWriteFailed, err)
	}

	s := &CSVSink{
		dir:          dir,
		productsPath: filepath.Join(dir, fmt.Sprintf("Product-%s.csv", sessionName)),
		variantsPath: filepath.Join(dir, fmt.Sprintf("Variant-%s.csv", sessionName)),
		logger:       slog.Default().With("component", "csv_sink"),
	}

	for path, header := range map[string][]string{
		s.productsPath: models.ProductColumns(),
		s.variantsPath: models.VariantColumns(),
	} {
		if err := s.repairTail(path); err != nil {
			return nil, err
		}
		if err := s.ensureHeader(path, header); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// repairTail truncates a trailing partial line left by a crash mid-append.
// A row is only durable once its newline hit the disk, so bytes after the
// last newline were never acknowledged and must not swallow the next append.
func (s *CSVSink) repairTail(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("%w: reading %s: %v", ErrWriteFailed, path, err)
	}
	if len(data) == 0 || data[len(data)-1] == '\n' {
		return nil
	}

	keep := int64(bytes.LastIndexByte(data, '\n') + 1)
	s.logger.Warn("truncating torn trailing row",
		"path", path,
		"discarded_bytes", int64(len(data))-keep)

	f, err := os.OpenFile(path, os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: opening %s for repair: %v", ErrWriteFailed, path, err)
	}
	defer f.Close()

	if err := f.Truncate(keep); err != nil {
		return fmt.Errorf("%w: truncating %s: %v", ErrWriteFailed, path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: syncing %s: %v", ErrWriteFailed, path, err)
	}
	return nil
}

func (s *CSVSink) AppendProduct(ctx context.Context, p *models.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.appendRow(s.productsPath, p.Row())
}

func (s *CSVSink) AppendVariant(ctx context.Context, v *models.Variant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.appendRow(s.variantsPath, v.Row())
}

// ExistingProductURLs reads back the product stream's URL column. Rows that
// fail to parse (for example a torn row from a crash mid-append) are
// skipped, not fatal: the stream stays readable up to and including the
// last durable append.
func (s *CSVSink) ExistingProductURLs(ctx context.Context) (map[string]struct{}, error) {
	f, err := os.Open(s.productsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("failed to open product stream: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	urls := make(map[string]struct{})
	first := true
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.logger.Warn("skipping unreadable row in product stream", "error", err)
			continue
		}
		if first {
			first = false
			continue
		}
		if len(rec) > 0 && rec[0] != "" {
			urls[rec[0]] = struct{}{}
		}
	}

	return urls, nil
}

func (s *CSVSink) Location() string {
	return s.dir
}

func (s *CSVSink) Close() error {
	return nil
}

// ensureHeader writes the header row to a stream file that does not exist
// or is empty.
func (s *CSVSink) ensureHeader(path string, header []string) error {
	if info, err := os.Stat(path); err == nil && info.Size() > 0 {
		return nil
	}
	return s.appendRow(path, header)
}

// appendRow is the scoped-acquisition write: open append-only, write one
// row, flush, fsync, close. Every exit path leaves prior rows intact.
func (s *CSVSink) appendRow(path string, row []string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", ErrWriteFailed, path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		return fmt.Errorf("%w: writing row: %v", ErrWriteFailed, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: flushing row: %v", ErrWriteFailed, err)
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("%w: syncing %s: %v", ErrWriteFailed, path, err)
	}

	return nil
}
