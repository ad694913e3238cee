package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/jonathansantilli/freemad/internal/transcript"
	"github.com/jonathansantilli/freemad/internal/transcripts"
)

// ListRuns lists persisted runs, newest first, with page/limit
// pagination.
// GET /api/runs
func (h *Handler) ListRuns(c echo.Context) error {
	summaries, err := h.transcripts.List()
	if err != nil {
		log.Printf("ERROR: failed to list runs: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to list runs"})
	}

	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	total := len(summaries)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"items": summaries[start:end],
		"page":  page,
		"limit": limit,
		"total": total,
	})
}

// GetRun loads one persisted run with its reconstructed transcript,
// scores, and selection explanation.
// GET /api/runs/:file
func (h *Handler) GetRun(c echo.Context) error {
	file := c.Param("file")

	rec, err := h.transcripts.Load(file)
	if err != nil {
		return runError(c, file, err)
	}

	bundle := transcript.FromRecord(rec)

	// Older transcripts carry the final answer id but not the winners.
	winners := rec.WinningAgents
	if len(winners) == 0 && rec.FinalAnswerID != "" {
		winners = bundle.AnswerHolders[rec.FinalAnswerID]
	}
	if winners == nil {
		winners = []string{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"file":                  file,
		"final_solution":        rec.FinalSolution,
		"final_answer_id":       rec.FinalAnswerID,
		"winning_agents":        winners,
		"scores":                rec.Scores,
		"selection_explanation": transcripts.ExplainSelection(rec),
		"replay":                bundle,
	})
}

// DeleteRun removes one persisted run file.
// DELETE /api/runs/:file
func (h *Handler) DeleteRun(c echo.Context) error {
	file := c.Param("file")

	if err := h.transcripts.Delete(file); err != nil {
		return runError(c, file, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"ok": true})
}

func runError(c echo.Context, file string, err error) error {
	switch {
	case errors.Is(err, transcripts.ErrInvalidFilename):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid run file name"})
	case errors.Is(err, transcripts.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "run not found"})
	default:
		log.Printf("ERROR: failed to access run %s: %v", file, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to access run"})
	}
}

func queryInt(c echo.Context, name string, defaultVal int) int {
	if raw := c.QueryParam(name); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return defaultVal
}
