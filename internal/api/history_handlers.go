package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/seoscout/seoscout/internal/history"
)

const historyPageSize = 50

func (s *Server) historyPage(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.List(r.Context(), historyPageSize)
	if err != nil {
		s.logger.Error("list history failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.logger.Error("load stats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	var out strings.Builder
	err = historyTmpl.Execute(&out, map[string]any{
		"Stats":     stats,
		"Summaries": summaries,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render history")
		return
	}
	writeHTML(w, http.StatusOK, out.String())
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.logger.Error("load stats failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) deleteHistory(w http.ResponseWriter, r *http.Request) {
	analysisID := chi.URLParam(r, "analysis_id")
	err := s.store.Delete(r.Context(), analysisID)
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, "analysis not found")
		return
	}
	if err != nil {
		s.logger.Error("delete analysis failed", zap.String("analysis_id", analysisID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete analysis")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "analysis deleted"})
}

func (s *Server) clearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteAll(r.Context()); err != nil {
		s.logger.Error("clear history failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to clear history")
		return
	}
	http.Redirect(w, r, "/history", http.StatusSeeOther)
}

func (s *Server) reportPage(w http.ResponseWriter, r *http.Request) {
	analysisID := chi.URLParam(r, "analysis_id")
	record, err := s.store.Get(r.Context(), analysisID)
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, "analysis not found")
		return
	}
	if err != nil {
		s.logger.Error("load analysis failed", zap.String("analysis_id", analysisID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load analysis")
		return
	}

	html, err := s.renderer.Render(record)
	if err != nil {
		s.logger.Error("render report failed", zap.String("analysis_id", analysisID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}
	writeHTML(w, http.StatusOK, html)
}

func (s *Server) downloadReport(w http.ResponseWriter, r *http.Request) {
	analysisID := chi.URLParam(r, "analysis_id")
	record, err := s.store.Get(r.Context(), analysisID)
	if errors.Is(err, history.ErrNotFound) {
		writeError(w, http.StatusNotFound, "analysis not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load analysis")
		return
	}

	html, err := s.renderer.Render(record)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render report")
		return
	}
	if _, err := s.files.Put(analysisID, html); err != nil {
		s.logger.Warn("store report file failed", zap.String("analysis_id", analysisID), zap.Error(err))
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="seo_report_%s.html"`, analysisID))
	writeHTML(w, http.StatusOK, html)
}

func (s *Server) batchReport(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("ids")
	if strings.TrimSpace(raw) == "" {
		writeError(w, http.StatusBadRequest, "ids query parameter is required")
		return
	}

	var records []history.AnalysisRecord
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		record, err := s.store.Get(r.Context(), id)
		if errors.Is(err, history.ErrNotFound) {
			continue
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load analyses")
			return
		}
		records = append(records, record)
	}
	if len(records) == 0 {
		writeError(w, http.StatusNotFound, "no analyses found for the given ids")
		return
	}

	html, err := s.renderer.RenderBatch(records)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to render batch report")
		return
	}
	writeHTML(w, http.StatusOK, html)
}
