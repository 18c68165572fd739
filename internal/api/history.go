package api

import (
	"net/http"
	"strconv"

	"github.com/taskgate/taskgate/internal/history"
)

// handleHistory lists recorded executions, newest first.
//
// Query parameters:
//   - action: only executions of this action
//   - identity: only executions invoked by this identity
//   - limit: page size (store default when omitted)
//   - offset: pagination offset
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := history.Filter{
		Action:   q.Get("action"),
		Identity: q.Get("identity"),
	}

	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
		filter.Limit = n
	}

	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "offset must be an integer")
			return
		}
		filter.Offset = n
	}

	result, err := s.history.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list executions", "error", err)
		writeInternalError(w, "failed to list executions")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
