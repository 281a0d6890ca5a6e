package domain

import (
	"errors"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/rivo/uniseg"
)

// Mastery bounds and grade range for kanji items.
const (
	MinMasteryLevel = 0
	MaxMasteryLevel = 5

	MinGradeClass = 1
	MaxGradeClass = 6
)

// Difficulty is an informational label attached to an item. It does not
// affect scheduling.
type Difficulty string

// Possible difficulty values
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Example is a usage sample for a kanji: a word or phrase, its optional
// reading and its meaning.
type Example struct {
	Japanese string `json:"japanese"`
	Reading  string `json:"reading,omitempty"`
	Meaning  string `json:"meaning"`
}

// Validate checks that the example carries both the Japanese text and a meaning.
func (e Example) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Japanese, validation.Required),
		validation.Field(&e.Meaning, validation.Required),
	)
}

// KanjiItem is the only persistent entity of the engine. Scheduling fields
// (MasteryLevel, ReviewCount, CorrectCount, LastReviewedAt, NextReviewAt)
// are mutated only by the mastery scheduler.
type KanjiItem struct {
	ID             uuid.UUID  `json:"id"`
	Character      string     `json:"character"`
	Meaning        string     `json:"meaning"`
	GradeClass     *int       `json:"grade_class,omitempty"`
	Difficulty     Difficulty `json:"difficulty"`
	Onyomi         []string   `json:"onyomi"`
	Kunyomi        []string   `json:"kunyomi"`
	Examples       []Example  `json:"examples"`
	MasteryLevel   int        `json:"mastery_level"`
	ReviewCount    int        `json:"review_count"`
	CorrectCount   int        `json:"correct_count"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
	NextReviewAt   time.Time  `json:"next_review_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	// Version is the optimistic concurrency token checked by store updates.
	Version int `json:"-"`
}

// NewKanjiParams holds the caller-supplied fields of a new item.
type NewKanjiParams struct {
	Character  string
	Meaning    string
	GradeClass *int
	Difficulty Difficulty
	Onyomi     []string
	Kunyomi    []string
	Examples   []Example
}

// NewKanjiItem validates params and returns a new item at mastery level 0,
// due immediately at now.
func NewKanjiItem(params NewKanjiParams, now time.Time) (*KanjiItem, error) {
	now = now.UTC()
	difficulty := Difficulty(strings.ToLower(strings.TrimSpace(string(params.Difficulty))))
	if difficulty == "" {
		difficulty = DifficultyMedium
	}

	item := &KanjiItem{
		ID:           uuid.New(),
		Character:    strings.TrimSpace(params.Character),
		Meaning:      strings.TrimSpace(params.Meaning),
		GradeClass:   copyIntPtr(params.GradeClass),
		Difficulty:   difficulty,
		Onyomi:       normalizeReadings(params.Onyomi),
		Kunyomi:      normalizeReadings(params.Kunyomi),
		Examples:     normalizeExamples(params.Examples),
		MasteryLevel: MinMasteryLevel,
		NextReviewAt: now,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}
	return item, nil
}

// itemFieldOrder fixes which field is reported first when several fail.
var itemFieldOrder = []string{
	"id", "character", "meaning", "grade_class", "difficulty", "onyomi", "kunyomi",
	"examples", "mastery_level", "review_count", "correct_count", "next_review_at",
}

// Validate checks every invariant of the item and returns a *ValidationError
// for the first offending field.
func (k *KanjiItem) Validate() error {
	err := validation.ValidateStruct(k,
		validation.Field(&k.ID, validation.By(requireUUID)),
		validation.Field(&k.Character, validation.Required.Error("is required"), validation.By(singleGrapheme)),
		validation.Field(&k.Meaning, validation.Required.Error("is required")),
		validation.Field(&k.GradeClass, validation.By(gradeClassRule)),
		validation.Field(&k.Difficulty, validation.Required,
			validation.In(DifficultyEasy, DifficultyMedium, DifficultyHard).Error("must be easy, medium or hard")),
		validation.Field(&k.Onyomi, validation.Each(validation.Required)),
		validation.Field(&k.Kunyomi, validation.Each(validation.Required)),
		validation.Field(&k.Examples),
		validation.Field(&k.MasteryLevel, validation.Min(MinMasteryLevel), validation.Max(MaxMasteryLevel)),
		validation.Field(&k.ReviewCount, validation.Min(0)),
		validation.Field(&k.CorrectCount, validation.Min(0), validation.Max(k.ReviewCount).Error("cannot exceed review_count")),
		validation.Field(&k.NextReviewAt, validation.Required),
	)
	return toValidationError(err, itemFieldOrder)
}

// IsDue reports whether the item is due for review at now.
func (k *KanjiItem) IsDue(now time.Time) bool {
	return !k.NextReviewAt.After(now)
}

// Clone returns a deep copy of the item.
func (k *KanjiItem) Clone() *KanjiItem {
	if k == nil {
		return nil
	}
	c := *k
	c.GradeClass = copyIntPtr(k.GradeClass)
	if k.LastReviewedAt != nil {
		t := *k.LastReviewedAt
		c.LastReviewedAt = &t
	}
	c.Onyomi = cloneSlice(k.Onyomi)
	c.Kunyomi = cloneSlice(k.Kunyomi)
	c.Examples = cloneSlice(k.Examples)
	return &c
}

// ValidateCharacter checks that s is exactly one grapheme.
func ValidateCharacter(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return NewValidationError("character", "is required", ErrInvalidCharacter)
	}
	if err := singleGrapheme(s); err != nil {
		return NewValidationError("character", err.Error(), ErrInvalidCharacter)
	}
	return nil
}

// ValidateGradeClass checks that a grade class is within [1,6].
func ValidateGradeClass(class int) error {
	if class < MinGradeClass || class > MaxGradeClass {
		return NewValidationError("grade_class", "must be between 1 and 6", nil)
	}
	return nil
}

func requireUUID(value interface{}) error {
	id, _ := value.(uuid.UUID)
	if id == uuid.Nil {
		return ErrInvalidID
	}
	return nil
}

func singleGrapheme(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if uniseg.GraphemeClusterCount(s) != 1 {
		return ErrInvalidCharacter
	}
	return nil
}

func gradeClassRule(value interface{}) error {
	class, _ := value.(*int)
	if class == nil {
		return nil
	}
	if *class < MinGradeClass || *class > MaxGradeClass {
		return errors.New("must be between 1 and 6")
	}
	return nil
}

// toValidationError converts ozzo's field map into a single ValidationError.
func toValidationError(err error, order []string) error {
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if !errors.As(err, &fieldErrs) {
		var internal validation.InternalError
		if errors.As(err, &internal) {
			return err
		}
		return NewValidationError("", err.Error(), nil)
	}

	for _, field := range order {
		if fe, ok := fieldErrs[field]; ok {
			return NewValidationError(field, fe.Error(), causeFor(field, fe))
		}
	}

	// Fall back to a stable order for fields missing from the order list.
	fields := make([]string, 0, len(fieldErrs))
	for f := range fieldErrs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return NewValidationError(fields[0], fieldErrs[fields[0]].Error(), nil)
}

func causeFor(field string, err error) error {
	switch {
	case errors.Is(err, ErrInvalidCharacter), field == "character":
		return ErrInvalidCharacter
	case errors.Is(err, ErrInvalidID):
		return ErrInvalidID
	default:
		return nil
	}
}

func normalizeReadings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, r := range in {
		out = append(out, strings.TrimSpace(r))
	}
	return out
}

func normalizeExamples(in []Example) []Example {
	out := make([]Example, 0, len(in))
	for _, e := range in {
		out = append(out, Example{
			Japanese: strings.TrimSpace(e.Japanese),
			Reading:  strings.TrimSpace(e.Reading),
			Meaning:  strings.TrimSpace(e.Meaning),
		})
	}
	return out
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
