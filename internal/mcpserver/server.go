// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the mood journal to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/maeum/internal/apperr"
	"github.com/starford/maeum/internal/attachment"
	"github.com/starford/maeum/internal/entrystore"
	"github.com/starford/maeum/internal/journal"
	"github.com/starford/maeum/internal/lock"
	"github.com/starford/maeum/internal/models"
)

const (
	taxonomyURI    = "maeum://taxonomy"
	entryGuideURI  = "maeum://entry-guide"
	defaultListMax = 20
)

// Server wraps the MCP server with journal tools.
type Server struct {
	mcp    *server.MCPServer
	svc    *journal.Service
	gate   *lock.Gate
	images *attachment.Store
	tools  map[string]server.ToolHandlerFunc
}

// New creates a new MCP server with all journal tools registered.
// dataRoot is where attach_image stores images.
func New(svc *journal.Service, gate *lock.Gate, dataRoot string) *Server {
	s := &Server{
		svc:    svc,
		gate:   gate,
		images: attachment.New(dataRoot),
		tools:  map[string]server.ToolHandlerFunc{},
	}

	s.mcp = server.NewMCPServer(
		"Maeum",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.addTool(mcp.NewTool("unlock",
		mcp.WithDescription("Open a PIN-protected journal for the rest of this session."),
		mcp.WithString("pin", mcp.Required(), mcp.Description("Four-digit PIN")),
	), s.unlock, false)

	logMood := []mcp.ToolOption{
		mcp.WithDescription("Record how the user feels right now. " +
			"Read the maeum://entry-guide resource for mood ids and nuance poles."),
		mcp.WithString("mood", mcp.Required(), mcp.Description("Mood id"), mcp.Enum(moodIDs()...)),
		mcp.WithString("note", mcp.Description("Free-text note; #words become tags")),
		mcp.WithString("image", mcp.Description("Image path returned by attach_image")),
	}
	for _, sc := range models.ScaleInfos() {
		logMood = append(logMood, mcp.WithString(string(sc.Key),
			mcp.Description(fmt.Sprintf("Optional nuance: %s or %s", sc.Negative, sc.Positive)),
			mcp.Enum(sc.Negative, sc.Positive),
		))
	}
	s.addTool(mcp.NewTool("log_mood", logMood...), s.logMood, true)

	s.addTool(mcp.NewTool("list_entries",
		mcp.WithDescription("List journal entries, newest first."),
		mcp.WithNumber("limit", mcp.Description("Page size (default 20)"), mcp.Min(1)),
		mcp.WithNumber("offset", mcp.Description("Entries to skip"), mcp.Min(0)),
	), s.listEntries, true)

	s.addTool(mcp.NewTool("delete_entry",
		mcp.WithDescription("Delete one entry by id. Deleting an absent id succeeds."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Entry id")),
	), s.deleteEntry, true)

	s.addTool(mcp.NewTool("delete_range",
		mcp.WithDescription("Delete every entry recorded between two days, inclusive. "+
			"Without confirm=yes it only reports how many entries would be removed."),
		mcp.WithString("from", mcp.Required(), mcp.Description("First day, YYYY-MM-DD")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Last day, YYYY-MM-DD")),
		mcp.WithString("confirm", mcp.Description("Set to yes to delete"), mcp.Enum("yes", "no")),
	), s.deleteRange, true)

	s.addTool(mcp.NewTool("latest_day_average",
		mcp.WithDescription("Average mood of the most recent day with entries."),
	), s.latestDay, true)

	s.addTool(mcp.NewTool("mood_calendar",
		mcp.WithDescription("Mood glyph per day for one month."),
		mcp.WithString("month", mcp.Description("Month as YYYY-MM (default: current month)")),
	), s.moodCalendar, true)

	s.addTool(mcp.NewTool("nuance_balance",
		mcp.WithDescription("How often each nuance pole was chosen, per scale."),
	), s.nuanceBalance, true)

	s.addTool(mcp.NewTool("frequency_ranking",
		mcp.WithDescription("Moods ranked by how often they were recorded."),
	), s.frequencyRanking, true)

	s.addTool(mcp.NewTool("notes_by_mood",
		mcp.WithDescription("Recent notes grouped by mood."),
		mcp.WithNumber("max", mcp.Description("Notes per mood"), mcp.Min(1)),
	), s.notesByMood, true)

	s.addTool(mcp.NewTool("pattern_analysis",
		mcp.WithDescription("Situation and mood patterns found across the journal."),
	), s.patternAnalysis, true)

	s.addTool(mcp.NewTool("search_entries",
		mcp.WithDescription("Full-text search through notes, tags and nuances."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Max results"), mcp.Min(1)),
	), s.searchEntries, true)

	s.addTool(mcp.NewTool("attach_image",
		mcp.WithDescription("Store an image for a later log_mood call. Accepts an http(s) URL or a base64 data URI."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data:image/...;base64,... URI")),
	), s.attachImage, true)

	s.mcp.AddResource(
		mcp.NewResource(taxonomyURI, "Mood Taxonomy",
			mcp.WithResourceDescription("Mood categories and nuance scales in registry order."),
			mcp.WithMIMEType("application/json"),
		),
		s.readTaxonomy,
	)
	s.mcp.AddResource(
		mcp.NewResource(entryGuideURI, "Entry Guide",
			mcp.WithResourceDescription("How to record moods, nuances, notes and images."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readEntryGuide,
	)

	return s
}

// addTool registers h under the tool's name. Gated tools fail while the
// journal is locked.
func (s *Server) addTool(tool mcp.Tool, h server.ToolHandlerFunc, gated bool) {
	if gated {
		inner := h
		h = func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			if s.gate.Locked() {
				return mcp.NewToolResultError("journal is locked; call unlock with the PIN first"), nil
			}
			return inner(ctx, req)
		}
	}
	s.tools[tool.Name] = h
	s.mcp.AddTool(tool, h)
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func moodIDs() []string {
	moods := models.Moods()
	out := make([]string, len(moods))
	for i, m := range moods {
		out[i] = string(m)
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func toolError(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("not found")
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) unlock(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pin, err := req.RequireString("pin")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.gate.Unlock(pin); err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText("unlocked"), nil
}

func (s *Server) logMood(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	mood, err := req.RequireString("mood")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	in := entrystore.NewEntry{
		Mood:  models.Mood(strings.ToUpper(strings.TrimSpace(mood))),
		Note:  req.GetString("note", ""),
		Image: req.GetString("image", ""),
	}
	for _, sc := range models.Scales() {
		if v := strings.TrimSpace(req.GetString(string(sc), "")); v != "" {
			if in.Nuances == nil {
				in.Nuances = map[models.Scale]string{}
			}
			in.Nuances[sc] = v
		}
	}
	e, err := s.svc.CreateEntry(ctx, in)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(e)
}

func (s *Server) listEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, total := s.svc.ListEntries(ctx, req.GetInt("limit", defaultListMax), req.GetInt("offset", 0))
	return jsonResult(map[string]any{"entries": entries, "total": total})
}

func (s *Server) deleteEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	removed, err := s.svc.DeleteEntry(ctx, id)
	if err != nil {
		return toolError(err), nil
	}
	if !removed {
		return mcp.NewToolResultText(fmt.Sprintf("no entry %s", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) deleteRange(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var days [2]models.Day
	for i, key := range []string{"from", "to"} {
		raw, err := req.RequireString(key)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if days[i], err = models.ParseDay(strings.TrimSpace(raw)); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s must be YYYY-MM-DD", key)), nil
		}
	}
	if req.GetString("confirm", "no") != "yes" {
		return jsonResult(s.svc.PreviewRange(ctx, days[0], days[1]))
	}
	n, err := s.svc.DeleteRange(ctx, days[0], days[1])
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted %d entries", n)), nil
}

func (s *Server) latestDay(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	avg, ok := s.svc.LatestDay(ctx)
	if !ok {
		return mcp.NewToolResultText("no entries yet"), nil
	}
	return jsonResult(avg)
}

func (s *Server) moodCalendar(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	month := strings.TrimSpace(req.GetString("month", ""))
	t := time.Now()
	if month != "" {
		var err error
		if t, err = time.ParseInLocation("2006-01", month, time.Local); err != nil {
			return mcp.NewToolResultError("month must be YYYY-MM"), nil
		}
	}
	return jsonResult(map[string]any{
		"month": t.Format("2006-01"),
		"days":  s.svc.Calendar(ctx, t.Year(), t.Month()),
	})
}

func (s *Server) nuanceBalance(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Nuances(ctx))
}

func (s *Server) frequencyRanking(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Frequency(ctx))
}

func (s *Server) notesByMood(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.NotesByMood(ctx, req.GetInt("max", 0)))
}

func (s *Server) patternAnalysis(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := s.svc.Analysis(ctx)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(res)
}

func (s *Server) searchEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, req.GetInt("limit", defaultListMax))
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(results)
}

func (s *Server) readTaxonomy(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(s.svc.Taxonomy(), "", "  ")
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      taxonomyURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) readEntryGuide(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      entryGuideURI,
			MIMEType: "text/markdown",
			Text:     EntryGuide(),
		},
	}, nil
}
