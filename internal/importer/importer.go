package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/phrazzld/kanji-api/internal/domain"
	"github.com/phrazzld/kanji-api/internal/platform/logger"
	"github.com/phrazzld/kanji-api/internal/store"
)

// maxUpdateAttempts bounds retries when a concurrent review bumps the
// version of an item being refreshed by an import.
const maxUpdateAttempts = 3

// Report summarises the import of one file.
type Report struct {
	Path    string   `json:"path"`
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// Importer loads kanji data files into a store.
type Importer struct {
	kanji  store.KanjiStore
	uow    store.UnitOfWork
	clock  func() time.Time
	logger *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithClock sets the time source used for new items.
func WithClock(clock func() time.Time) Option {
	return func(i *Importer) {
		i.clock = clock
	}
}

// NewImporter creates an Importer. uow decides the transactional scope of a
// file; pass store.DirectUnitOfWork for stores without transactions.
func NewImporter(kanji store.KanjiStore, uow store.UnitOfWork, logger *slog.Logger, opts ...Option) *Importer {
	if kanji == nil || uow == nil {
		panic("kanji store and unit of work cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	i := &Importer{
		kanji:  kanji,
		uow:    uow,
		clock:  time.Now,
		logger: logger.With(slog.String("component", "importer")),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ImportFile parses path and writes every record inside one unit of work.
// Invalid records are counted as skipped and listed in the report; they do
// not abort the file. Any store failure rolls the whole file back.
func (i *Importer) ImportFile(ctx context.Context, path string) (*Report, error) {
	log := logger.FromContextOrDefault(ctx, i.logger)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	records, err := Parse(path, f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var report *Report
	err = i.uow(ctx, func(ctx context.Context, s store.KanjiStore) error {
		report = &Report{Path: path}
		for _, rec := range records {
			if err := i.importRecord(ctx, s, rec, report); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Error("import failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to import %s: %w", path, err)
	}

	log.Info("imported data file",
		slog.String("path", path),
		slog.Int("created", report.Created),
		slog.Int("updated", report.Updated),
		slog.Int("skipped", report.Skipped))
	return report, nil
}

func (i *Importer) importRecord(ctx context.Context, s store.KanjiStore, rec Record, report *Report) error {
	character := strings.TrimSpace(rec.Character)
	if err := domain.ValidateCharacter(character); err != nil {
		report.skip(character, err)
		return nil
	}

	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		existing, err := s.GetByCharacter(ctx, character)
		switch {
		case errors.Is(err, store.ErrKanjiNotFound):
			item, err := domain.NewKanjiItem(rec.Params(), i.clock())
			if err != nil {
				report.skip(character, err)
				return nil
			}
			if err := s.Create(ctx, item); err != nil {
				return fmt.Errorf("failed to create %s: %w", character, err)
			}
			report.Created++
			return nil

		case err != nil:
			return fmt.Errorf("failed to look up %s: %w", character, err)
		}

		updated, err := refresh(existing, rec, i.clock())
		if err != nil {
			report.skip(character, err)
			return nil
		}
		err = s.Update(ctx, updated)
		if store.IsConflictError(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to update %s: %w", character, err)
		}
		report.Updated++
		return nil
	}
	return fmt.Errorf("failed to update %s: %w", character, store.ErrVersionConflict)
}

// refresh copies the descriptive fields of rec onto a copy of item.
// Scheduling state is left untouched.
func refresh(item *domain.KanjiItem, rec Record, now time.Time) (*domain.KanjiItem, error) {
	p := rec.Params()
	fresh, err := domain.NewKanjiItem(p, now)
	if err != nil {
		return nil, err
	}

	out := item.Clone()
	out.Meaning = fresh.Meaning
	out.Onyomi = fresh.Onyomi
	out.Kunyomi = fresh.Kunyomi
	out.Examples = fresh.Examples
	if rec.GradeClass != nil {
		out.GradeClass = fresh.GradeClass
	}
	if strings.TrimSpace(rec.Difficulty) != "" {
		out.Difficulty = fresh.Difficulty
	}
	out.UpdatedAt = now.UTC()
	return out, nil
}

func (r *Report) skip(character string, err error) {
	r.Skipped++
	label := character
	if label == "" {
		label = "(empty)"
	}
	r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", label, err))
}

// DataFiles lists the importable files directly under dir in name order.
func DataFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !IsDataFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// ImportDir imports every data file in dir. A failing file is logged and
// recorded in its report; the remaining files are still imported.
func (i *Importer) ImportDir(ctx context.Context, dir string) ([]*Report, error) {
	files, err := DataFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list data directory %s: %w", dir, err)
	}

	reports := make([]*Report, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := i.ImportFile(ctx, path)
		if err != nil {
			report = &Report{Path: path, Errors: []string{err.Error()}}
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// AutoImport imports dir only when the store is empty and dir exists. It
// reports whether an import ran.
func (i *Importer) AutoImport(ctx context.Context, dir string) (bool, []*Report, error) {
	log := logger.FromContextOrDefault(ctx, i.logger)

	n, err := i.kanji.Count(ctx)
	if err != nil {
		return false, nil, fmt.Errorf("failed to count kanji: %w", err)
	}
	if n > 0 {
		log.Debug("store not empty, skipping auto-import", slog.Int("count", n))
		return false, nil, nil
	}

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		log.Warn("data directory not found, skipping auto-import", slog.String("dir", dir))
		return false, nil, nil
	}

	reports, err := i.ImportDir(ctx, dir)
	return true, reports, err
}
