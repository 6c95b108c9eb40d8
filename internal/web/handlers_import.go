package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/returnsdesk/internal/schema"
	"github.com/JonMunkholm/returnsdesk/internal/session"
	"github.com/JonMunkholm/returnsdesk/internal/sheet"
	"github.com/JonMunkholm/returnsdesk/internal/store"
	"github.com/JonMunkholm/returnsdesk/internal/web/templates"
)

// multipartOverhead is allowed on top of the file size for form boundaries
// and the other fields.
const multipartOverhead = 1 << 20

// handleCreateImport starts a session from an uploaded file.
// Form fields: file (required), mode (smart|strict, default smart).
//
// A file that cannot be read still creates a session, which is returned in
// the failed stage so the client can show the mapped error.
func (s *Server) handleCreateImport(w http.ResponseWriter, r *http.Request) {
	rt := schema.RecordType(chi.URLParam(r, "recordType"))

	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			respondError(w, r, fmt.Errorf("%w: exceeds %d bytes", sheet.ErrFileTooLarge, maxSize))
			return
		}
		respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	mode, ok := session.ParseMode(r.FormValue("mode"))
	if !ok {
		respondError(w, r, fmt.Errorf("%w: mode %q", errBadRequest, r.FormValue("mode")))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, r, sheet.ErrNoFile)
		return
	}
	defer file.Close()

	sess, err := s.sessions.Create(rt, mode)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.sessions.Upload(r.Context(), sess, header.Filename, file); err != nil {
		if sess.Stage() != session.StageFailed {
			// Never got a parse slot; nothing worth keeping.
			_ = s.sessions.Discard(sess.ID)
			respondError(w, r, err)
			return
		}
		writeJSON(w, statusFor(err), newSessionView(sess))
		return
	}

	writeJSON(w, http.StatusCreated, newSessionView(sess))
}

func (s *Server) handleGetImport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) handleDiscardImport(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Discard(chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// mappingRequest is the body of PUT /mappings. An empty field name ignores
// the column.
type mappingRequest struct {
	Mappings map[string]string `json:"mappings"`
}

func (s *Server) handleUpdateMappings(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var req mappingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if err := sess.ApplyMappings(req.Mappings); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

// handlePreview validates every row under the current mapping.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	if err := sess.Commit(r.Context()); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

func (s *Server) handleRemap(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	if err := sess.Remap(); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

// handleConfirm persists the valid records of a previewed session.
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	ctx := withRequestMetadata(r.Context(), r)
	ctx = store.WithSource(ctx, store.Source{SessionID: sess.ID, FileName: sess.FileName()})

	if _, err := sess.Confirm(ctx, s.persister); err != nil {
		if sess.Stage() == session.StageFailed {
			writeJSON(w, statusFor(err), newSessionView(sess))
			return
		}
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionView(sess))
}

// handleReport renders the validation report as an HTML fragment.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	result := sess.Result()
	if result == nil {
		respondError(w, r, fmt.Errorf("%w: cannot report from %s", session.ErrInvalidTransition, sess.Stage()))
		return
	}

	report := templates.Report{
		SessionID: sess.ID,
		FileName:  sess.FileName(),
		Label:     sess.Schema().Label,
		Stage:     string(sess.Stage()),
		Summary:   result.Summary(),
		Rows:      result.IssuesByRow(),
		Steps:     sess.Progress(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ImportReport(report).Render(r.Context(), w); err != nil {
		respondError(w, r, fmt.Errorf("render report: %w", err))
	}
}

// handleInvalidRows downloads the rejected rows with their error messages.
// ?format=csv|xlsx.
func (s *Server) handleInvalidRows(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	result := sess.Result()
	if result == nil {
		respondError(w, r, fmt.Errorf("%w: no validation result in %s", session.ErrInvalidTransition, sess.Stage()))
		return
	}
	format, err := sheet.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := sheet.WriteInvalidRows(&buf, format, sess.Headers(), result); err != nil {
		respondError(w, r, fmt.Errorf("write invalid rows: %w", err))
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s_invalid_rows.%s"`, sess.RecordType, format))
	_, _ = buf.WriteTo(w)
}

// lookupSession resolves the {id} URL parameter, writing the error response when
// the session does not exist.
func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return nil, false
	}
	return sess, true
}
