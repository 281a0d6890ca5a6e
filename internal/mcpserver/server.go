// Package mcpserver exposes the kanji engine as MCP (Model Context Protocol)
// tools over stdio, so an LLM client can add items and drive review sessions.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/phrazzld/kanji-api/internal/domain"
	"github.com/phrazzld/kanji-api/internal/service"
	"github.com/phrazzld/kanji-api/internal/service/kanji_review"
	"github.com/phrazzld/kanji-api/internal/store"
)

// Server wraps the MCP server with the kanji tools.
type Server struct {
	mcp     *server.MCPServer
	kanji   service.KanjiService
	reviews kanji_review.ReviewService
	stats   service.StatsService
	logger  *slog.Logger
}

// New creates a new MCP server with all kanji tools registered.
func New(
	kanji service.KanjiService,
	reviews kanji_review.ReviewService,
	stats service.StatsService,
	version string,
	logger *slog.Logger,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		kanji:   kanji,
		reviews: reviews,
		stats:   stats,
		logger:  logger.With(slog.String("component", "mcp_server")),
	}

	s.mcp = server.NewMCPServer(
		"kanji-api",
		version,
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool("add_kanji",
		mcp.WithDescription("Add a kanji to the study set. It starts at mastery level 0 and is due immediately."),
		mcp.WithString("character", mcp.Required(), mcp.Description("A single kanji character")),
		mcp.WithString("meaning", mcp.Required(), mcp.Description("English meaning")),
		mcp.WithNumber("grade_class", mcp.Description("School grade class, 1 to 6")),
		mcp.WithString("difficulty", mcp.Description("easy, medium or hard (default medium)"),
			mcp.Enum(string(domain.DifficultyEasy), string(domain.DifficultyMedium), string(domain.DifficultyHard))),
		mcp.WithArray("onyomi", mcp.Description("On readings"), mcp.WithStringItems()),
		mcp.WithArray("kunyomi", mcp.Description("Kun readings"), mcp.WithStringItems()),
		mcp.WithArray("examples", mcp.Description("Usage examples: objects with japanese, reading and meaning")),
	), s.addKanji)

	s.mcp.AddTool(mcp.NewTool("next_review",
		mcp.WithDescription("Get the kanji to review next. Optionally restrict to one mastery level or one grade class, not both."),
		mcp.WithNumber("level", mcp.Description("Mastery level, 0 to 5")),
		mcp.WithNumber("class", mcp.Description("Grade class, 1 to 6")),
	), s.nextReview)

	s.mcp.AddTool(mcp.NewTool("submit_review",
		mcp.WithDescription("Record the result of reviewing a kanji and reschedule it."),
		mcp.WithString("kanji_id", mcp.Required(), mcp.Description("Item id returned by next_review")),
		mcp.WithString("result", mcp.Required(), mcp.Description("Review outcome"),
			mcp.Enum(string(domain.ReviewCorrect), string(domain.ReviewHard), string(domain.ReviewIncorrect))),
	), s.submitReview)

	s.mcp.AddTool(mcp.NewTool("get_stats",
		mcp.WithDescription("Summary of progress: totals, items due, per-level breakdown and daily streak."),
	), s.getStats)

	s.mcp.AddTool(mcp.NewTool("list_kanji",
		mcp.WithDescription("List kanji in the study set, optionally for one grade class."),
		mcp.WithNumber("class", mcp.Description("Grade class, 1 to 6")),
	), s.listKanji)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type exampleArg struct {
	Japanese string `json:"japanese"`
	Reading  string `json:"reading"`
	Meaning  string `json:"meaning"`
}

func (s *Server) addKanji(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	character, err := req.RequireString("character")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	meaning, err := req.RequireString("meaning")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	class, err := optionalInt(req, "grade_class")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var examples []exampleArg
	if raw, ok := req.GetArguments()["examples"]; ok && raw != nil {
		if err := remarshal(raw, &examples); err != nil {
			return mcp.NewToolResultError("examples must be a list of {japanese, reading, meaning} objects"), nil
		}
	}
	params := domain.NewKanjiParams{
		Character:  character,
		Meaning:    meaning,
		GradeClass: class,
		Difficulty: domain.Difficulty(req.GetString("difficulty", "")),
		Onyomi:     req.GetStringSlice("onyomi", nil),
		Kunyomi:    req.GetStringSlice("kunyomi", nil),
	}
	for _, e := range examples {
		params.Examples = append(params.Examples, domain.Example(e))
	}

	item, err := s.kanji.CreateKanji(ctx, params)
	if err != nil {
		return s.toolError("add_kanji", err), nil
	}
	return jsonResult(item)
}

func (s *Server) nextReview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	level, err := optionalInt(req, "level")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	class, err := optionalInt(req, "class")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	item, err := s.reviews.NextDue(ctx, domain.ReviewFilter{MasteryLevel: level, GradeClass: class})
	if errors.Is(err, kanji_review.ErrNoItemsDue) {
		return mcp.NewToolResultText("no kanji due for review"), nil
	}
	if err != nil {
		return s.toolError("next_review", err), nil
	}
	return jsonResult(item)
}

func (s *Server) submitReview(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawID, err := req.RequireString("kanji_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid kanji_id %q", rawID)), nil
	}
	rawResult, err := req.RequireString("result")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	item, err := s.reviews.SubmitReview(ctx, id, domain.ReviewResult(rawResult))
	if err != nil {
		return s.toolError("submit_review", err), nil
	}
	return jsonResult(item)
}

func (s *Server) getStats(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.stats.Stats(ctx)
	if err != nil {
		return s.toolError("get_stats", err), nil
	}
	return jsonResult(stats)
}

func (s *Server) listKanji(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	class, err := optionalInt(req, "class")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := s.kanji.ListKanji(ctx, class)
	if err != nil {
		return s.toolError("list_kanji", err), nil
	}
	return jsonResult(items)
}

// toolError turns a service error into a tool-level error result. Input and
// lookup errors are shown as-is; anything else is logged and summarised.
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		return mcp.NewToolResultError(vErr.Error())
	case errors.Is(err, store.ErrNotFound):
		return mcp.NewToolResultError("kanji not found")
	case errors.Is(err, kanji_review.ErrStoreContention):
		return mcp.NewToolResultError("kanji is busy, try again")
	default:
		s.logger.Error("tool failed", slog.String("tool", tool), slog.String("error", err.Error()))
		return mcp.NewToolResultError("internal error")
	}
}

// optionalInt reads a numeric argument, returning nil when it is absent.
// JSON numbers arrive as float64.
func optionalInt(req mcp.CallToolRequest, key string) (*int, error) {
	raw, ok := req.GetArguments()[key]
	if !ok || raw == nil {
		return nil, nil
	}
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	default:
		return nil, fmt.Errorf("%s must be a number", key)
	}
	n := int(f)
	if float64(n) != f {
		return nil, fmt.Errorf("%s must be a whole number", key)
	}
	return &n, nil
}

func remarshal(in any, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(out)), nil
}
