package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/seoscout/seoscout/internal/tasks"
)

func (s *Server) taskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")
	view, ok := s.registry.ViewTask(taskID)
	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// taskResult returns the finished result, persisting it on first retrieval.
// Every successful retrieval carries the same analysis_id, no matter how
// many times or how concurrently the endpoint is polled.
func (s *Server) taskResult(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "task_id")
	task, ok := s.registry.GetTask(taskID)
	if !ok {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	switch task.Status {
	case tasks.StatusCompleted:
		analysisID, err := s.registry.PersistResult(r.Context(), taskID, s.store)
		if err != nil {
			s.logger.Error("persist task result failed", zap.String("task_id", taskID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to save analysis result")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"task_id":     taskID,
			"result":      task.Result,
			"analysis_id": analysisID,
		})
	case tasks.StatusFailed:
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":    task.Error,
			"status":   task.Status,
			"progress": task.Progress,
		})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":    "task has not completed",
			"status":   task.Status,
			"progress": task.Progress,
		})
	}
}
