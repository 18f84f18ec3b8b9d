package transport

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rpggio/riskdraft/internal/domain/activity"
	"github.com/rpggio/riskdraft/internal/domain/table"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleListProcesses(w http.ResponseWriter, r *http.Request) {
	list, err := s.archive.Summaries(r.Context())
	if err != nil {
		s.fail(w, r, "list_processes", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetProcess(w http.ResponseWriter, r *http.Request) {
	proc, err := s.archive.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, "get_process", err)
		return
	}
	writeJSON(w, http.StatusOK, proc)
}

func (s *Server) handleEditProcess(w http.ResponseWriter, r *http.Request) {
	snap, err := s.workspace.Edit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, "edit_process", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDeleteProcess(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusBadRequest, ErrorResponse{
			Code:    "CONFIRMATION_REQUIRED",
			Message: "pass confirm=true to delete a process",
		})
		return
	}
	if err := s.archive.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, "delete_process", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveProcess(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	dir, err := table.ParseDirection(req.Direction)
	if err != nil {
		s.fail(w, r, "move_process", err)
		return
	}
	if err := s.archive.Move(r.Context(), req.Index, dir); err != nil {
		s.fail(w, r, "move_process", err)
		return
	}
	s.handleListProcesses(w, r)
}

// handleExport renders into memory first so a failure still produces a
// JSON error instead of a truncated download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	name, err := s.archive.Export(r.Context(), &buf)
	if err != nil {
		s.fail(w, r, "export", err)
		return
	}
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	opts := activity.ListOptions{}
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			badRequest(w, "invalid limit")
			return
		}
		opts.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			badRequest(w, "invalid offset")
			return
		}
		opts.Offset = offset
	}
	if v := q.Get("type"); v != "" {
		typ := activity.Type(v)
		opts.Type = &typ
	}
	if v := q.Get("process_id"); v != "" {
		opts.ProcessID = &v
	}

	entries, err := s.activity.GetRecentActivity(r.Context(), opts)
	if err != nil {
		s.fail(w, r, "activity", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
