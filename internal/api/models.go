package api

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/kanji-api/internal/domain"
)

// ExamplePayload is one example word in requests and responses.
type ExamplePayload struct {
	Japanese string `json:"japanese" validate:"required"`
	Reading  string `json:"reading,omitempty"`
	Meaning  string `json:"meaning"  validate:"required"`
}

func (e ExamplePayload) blank() bool {
	return strings.TrimSpace(e.Japanese) == "" &&
		strings.TrimSpace(e.Reading) == "" &&
		strings.TrimSpace(e.Meaning) == ""
}

// CreateKanjiRequest defines the payload for POST /api/kanji.
//
// The React client sends examples as example_data; both names are accepted
// and concatenated in that order.
type CreateKanjiRequest struct {
	Character   string           `json:"character"    validate:"required"`
	Meaning     string           `json:"meaning"      validate:"required"`
	GradeClass  *int             `json:"grade_class"  validate:"omitempty,min=1,max=6"`
	Difficulty  string           `json:"difficulty"`
	Onyomi      []string         `json:"onyomi"`
	Kunyomi     []string         `json:"kunyomi"`
	Examples    []ExamplePayload `json:"examples"     validate:"omitempty,dive"`
	ExampleData []ExamplePayload `json:"example_data" validate:"omitempty,dive"`
}

// normalize drops the empty example rows left behind by client forms, before
// validation sees them.
func (req *CreateKanjiRequest) normalize() {
	req.Examples = dropBlankExamples(req.Examples)
	req.ExampleData = dropBlankExamples(req.ExampleData)
}

func dropBlankExamples(in []ExamplePayload) []ExamplePayload {
	out := in[:0]
	for _, e := range in {
		if !e.blank() {
			out = append(out, e)
		}
	}
	return out
}

// Params converts the request to domain parameters.
func (req *CreateKanjiRequest) Params() domain.NewKanjiParams {
	examples := make([]domain.Example, 0, len(req.Examples)+len(req.ExampleData))
	for _, list := range [][]ExamplePayload{req.Examples, req.ExampleData} {
		for _, e := range list {
			examples = append(examples, domain.Example{
				Japanese: e.Japanese,
				Reading:  e.Reading,
				Meaning:  e.Meaning,
			})
		}
	}
	return domain.NewKanjiParams{
		Character:  req.Character,
		Meaning:    req.Meaning,
		GradeClass: req.GradeClass,
		Difficulty: domain.Difficulty(req.Difficulty),
		Onyomi:     req.Onyomi,
		Kunyomi:    req.Kunyomi,
		Examples:   examples,
	}
}

// SubmitReviewRequest defines the payload for POST /api/review.
type SubmitReviewRequest struct {
	KanjiID string `json:"kanji_id" validate:"required,uuid"`
	Result  string `json:"result"   validate:"required"`
}

// ReadingsResponse groups an item's readings the way the client renders them.
type ReadingsResponse struct {
	Onyomi  []string `json:"onyomi"`
	Kunyomi []string `json:"kunyomi"`
}

// KanjiResponse is the JSON shape of a kanji item.
type KanjiResponse struct {
	ID             uuid.UUID        `json:"id"`
	Character      string           `json:"character"`
	Meaning        string           `json:"meaning"`
	GradeClass     *int             `json:"grade_class"`
	Difficulty     string           `json:"difficulty"`
	Readings       ReadingsResponse `json:"readings"`
	Examples       []ExamplePayload `json:"examples"`
	MasteryLevel   int              `json:"mastery_level"`
	ReviewCount    int              `json:"review_count"`
	CorrectCount   int              `json:"correct_count"`
	LastReviewedAt *time.Time       `json:"last_reviewed_at"`
	NextReviewAt   time.Time        `json:"next_review_at"`
	CreatedAt      time.Time        `json:"created_at"`
}

// ReviewEventResponse is one entry of an item's review history.
type ReviewEventResponse struct {
	ID            uuid.UUID `json:"id"`
	Result        string    `json:"result"`
	PreviousLevel int       `json:"previous_level"`
	NewLevel      int       `json:"new_level"`
	ReviewedAt    time.Time `json:"reviewed_at"`
	NextReviewAt  time.Time `json:"next_review_at"`
}

// ImportResponse acknowledges an accepted import request.
type ImportResponse struct {
	Files []string `json:"files"`
}

// kanjiToResponse converts a domain.KanjiItem to a KanjiResponse.
func kanjiToResponse(item *domain.KanjiItem) KanjiResponse {
	examples := make([]ExamplePayload, 0, len(item.Examples))
	for _, e := range item.Examples {
		examples = append(examples, ExamplePayload{Japanese: e.Japanese, Reading: e.Reading, Meaning: e.Meaning})
	}
	return KanjiResponse{
		ID:         item.ID,
		Character:  item.Character,
		Meaning:    item.Meaning,
		GradeClass: item.GradeClass,
		Difficulty: string(item.Difficulty),
		Readings: ReadingsResponse{
			Onyomi:  nonNil(item.Onyomi),
			Kunyomi: nonNil(item.Kunyomi),
		},
		Examples:       examples,
		MasteryLevel:   item.MasteryLevel,
		ReviewCount:    item.ReviewCount,
		CorrectCount:   item.CorrectCount,
		LastReviewedAt: item.LastReviewedAt,
		NextReviewAt:   item.NextReviewAt,
		CreatedAt:      item.CreatedAt,
	}
}

func kanjiListToResponse(items []*domain.KanjiItem) []KanjiResponse {
	out := make([]KanjiResponse, 0, len(items))
	for _, item := range items {
		out = append(out, kanjiToResponse(item))
	}
	return out
}

func reviewEventsToResponse(events []*domain.ReviewEvent) []ReviewEventResponse {
	out := make([]ReviewEventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, ReviewEventResponse{
			ID:            ev.ID,
			Result:        string(ev.Result),
			PreviousLevel: ev.PreviousLevel,
			NewLevel:      ev.NewLevel,
			ReviewedAt:    ev.ReviewedAt,
			NextReviewAt:  ev.NextReviewAt,
		})
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
