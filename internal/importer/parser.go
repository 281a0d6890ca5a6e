package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/phrazzld/kanji-api/internal/domain"
	"gopkg.in/yaml.v3"
)

// Record is one parsed row of a data file.
type Record struct {
	Character  string           `yaml:"character"`
	Meaning    string           `yaml:"meaning"`
	GradeClass *int             `yaml:"grade_class"`
	Difficulty string           `yaml:"difficulty"`
	Onyomi     []string         `yaml:"onyomi"`
	Kunyomi    []string         `yaml:"kunyomi"`
	Examples   []domain.Example `yaml:"examples"`
}

// Params converts the record into creation parameters.
func (r Record) Params() domain.NewKanjiParams {
	return domain.NewKanjiParams{
		Character:  r.Character,
		Meaning:    r.Meaning,
		GradeClass: r.GradeClass,
		Difficulty: domain.Difficulty(r.Difficulty),
		Onyomi:     r.Onyomi,
		Kunyomi:    r.Kunyomi,
		Examples:   r.Examples,
	}
}

// ErrUnsupportedFormat is returned for files that are neither CSV nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported data file format")

var classFilePattern = regexp.MustCompile(`^kanji_class_(\d+)\.csv$`)

// IsDataFile reports whether path names a file the importer understands.
func IsDataFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// ClassFromFilename extracts N from a kanji_class_N.csv file name.
func ClassFromFilename(path string) (int, bool) {
	m := classFilePattern.FindStringSubmatch(strings.ToLower(filepath.Base(path)))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// Parse decodes r according to the extension of path.
func Parse(path string, r io.Reader) ([]Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		var class *int
		if n, ok := ClassFromFilename(path); ok {
			class = &n
		}
		return ParseCSV(r, class)
	case ".yaml", ".yml":
		return ParseYAML(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
}

// ParseCSV reads a headed CSV file. Rows without a character are dropped.
// class applies to every row that does not carry its own grade_class column.
func ParseCSV(r io.Reader, class *int) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		cols[h] = i
	}
	if _, ok := cols["character"]; !ok {
		return nil, errors.New("csv header has no character column")
	}

	var records []Record
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// *csv.ParseError carries the line number.
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}

		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		character := get("character")
		if character == "" {
			continue
		}

		rec := Record{
			Character:  character,
			Meaning:    get("meaning"),
			GradeClass: class,
			Difficulty: get("difficulty"),
			Onyomi:     splitReadings(get("onyomi")),
			Kunyomi:    splitReadings(get("kunyomi")),
			Examples:   parseExamples(get("example")),
		}
		if v := get("grade_class"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				line, _ := cr.FieldPos(0)
				return nil, fmt.Errorf("csv line %d: invalid grade_class %q", line, v)
			}
			rec.GradeClass = &n
		}
		if jp, meaning := get("example_japanese"), get("example_meaning"); jp != "" && meaning != "" {
			rec.Examples = append(rec.Examples, domain.Example{
				Japanese: jp,
				Reading:  get("example_reading"),
				Meaning:  meaning,
			})
		}
		rec.Examples = dedupeExamples(rec.Examples)
		records = append(records, rec)
	}
	return records, nil
}

// ParseYAML reads a YAML list of records.
func ParseYAML(r io.Reader) ([]Record, error) {
	var records []Record
	if err := yaml.NewDecoder(r).Decode(&records); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode yaml: %w", err)
	}

	out := records[:0]
	for _, rec := range records {
		if strings.TrimSpace(rec.Character) == "" {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// dedupeExamples keeps the first example for each Japanese text.
func dedupeExamples(in []domain.Example) []domain.Example {
	if len(in) < 2 {
		return in
	}
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, ex := range in {
		if _, ok := seen[ex.Japanese]; ok {
			continue
		}
		seen[ex.Japanese] = struct{}{}
		out = append(out, ex)
	}
	return out
}

func splitReadings(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '・' || r == ',' || r == '、'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseExamples decodes "japanese::reading::meaning" entries joined by "||".
// Entries missing either the Japanese text or the meaning are dropped.
func parseExamples(s string) []domain.Example {
	var out []domain.Example
	for _, entry := range strings.Split(s, "||") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, "::")
		if len(parts) < 2 {
			continue
		}
		ex := domain.Example{
			Japanese: strings.TrimSpace(parts[0]),
			Reading:  strings.TrimSpace(parts[1]),
		}
		if len(parts) > 2 {
			ex.Meaning = strings.TrimSpace(parts[2])
		}
		if ex.Japanese == "" || ex.Meaning == "" {
			continue
		}
		out = append(out, ex)
	}
	return out
}
