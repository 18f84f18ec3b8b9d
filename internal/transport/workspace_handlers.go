package transport

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rpggio/riskdraft/internal/domain/archive"
	"github.com/rpggio/riskdraft/internal/domain/table"
	"github.com/rpggio/riskdraft/internal/domain/workspace"
)

const maxMultipartMemory = 32 << 20

type valueRequest struct {
	Value string `json:"value"`
}

type moveRequest struct {
	Index     int    `json:"index"`
	Direction string `json:"direction"`
}

type updateRowRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type pasteRequest struct {
	Text string `json:"text"`
}

type pasteResponse struct {
	Intercepted bool               `json:"intercepted"`
	Workspace   workspace.Snapshot `json:"workspace"`
}

type saveResponse struct {
	Process   *archive.Process   `json:"process"`
	Workspace workspace.Snapshot `json:"workspace"`
}

func (s *Server) handleGetWorkspace(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.workspace.Snapshot())
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.workspace.Reset())
}

func (s *Server) handleSetTitle(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.workspace.SetTitle(req.Value))
}

func (s *Server) handleSetProcedure(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.workspace.SetProcedure(req.Value))
}

// handleSetImage accepts either a raw image body or a multipart form with an
// "image" file field.
func (s *Server) handleSetImage(w http.ResponseWriter, r *http.Request) {
	var (
		data     []byte
		mimeType string
	)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			badRequest(w, "invalid multipart form")
			return
		}
		file, header, err := r.FormFile("image")
		if err != nil {
			badRequest(w, "missing image field")
			return
		}
		defer file.Close()
		data, err = io.ReadAll(file)
		if err != nil {
			badRequest(w, "failed to read image")
			return
		}
		mimeType = header.Header.Get("Content-Type")
	} else {
		var err error
		data, err = io.ReadAll(r.Body)
		if err != nil {
			badRequest(w, "failed to read image")
			return
		}
		mimeType = contentType
	}

	if !strings.HasPrefix(mimeType, "image/") {
		writeError(w, http.StatusUnsupportedMediaType, ErrorResponse{
			Code:    "UNSUPPORTED_MEDIA_TYPE",
			Message: "an image/* content type is required",
		})
		return
	}
	if len(data) == 0 {
		badRequest(w, "empty image")
		return
	}
	writeJSON(w, http.StatusOK, s.workspace.SetImage(workspace.Image{Data: data, MIMEType: mimeType}))
}

func (s *Server) handleClearImage(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.workspace.ClearImage())
}

func (s *Server) handleAddRow(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.workspace.AddRow())
}

func (s *Server) handleRemoveRow(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.workspace.RemoveRow(chi.URLParam(r, "id")))
}

func (s *Server) handleMoveRow(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	dir, err := table.ParseDirection(req.Direction)
	if err != nil {
		s.fail(w, r, "move_row", err)
		return
	}
	writeJSON(w, http.StatusOK, s.workspace.MoveRow(req.Index, dir))
}

func (s *Server) handleUpdateRow(w http.ResponseWriter, r *http.Request) {
	var req updateRowRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	field, err := table.ParseField(req.Field)
	if err != nil {
		s.fail(w, r, "update_row", err)
		return
	}
	writeJSON(w, http.StatusOK, s.workspace.UpdateField(chi.URLParam(r, "id"), field, req.Value))
}

func (s *Server) handlePaste(w http.ResponseWriter, r *http.Request) {
	var req pasteRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	snap, ok := s.workspace.Paste(req.Text)
	writeJSON(w, http.StatusOK, pasteResponse{Intercepted: ok, Workspace: snap})
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	snap, err := s.workspace.Draft(r.Context())
	if err != nil {
		s.fail(w, r, "draft", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSupplement(w http.ResponseWriter, r *http.Request) {
	snap, err := s.workspace.Supplement(r.Context())
	if err != nil {
		s.fail(w, r, "supplement", err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	proc, err := s.workspace.Save(r.Context())
	if err != nil {
		s.fail(w, r, "save", err)
		return
	}
	writeJSON(w, http.StatusOK, saveResponse{Process: proc, Workspace: s.workspace.Snapshot()})
}
