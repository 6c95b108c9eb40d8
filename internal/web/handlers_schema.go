package web

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/returnsdesk/internal/schema"
	"github.com/JonMunkholm/returnsdesk/internal/sheet"
)

func (s *Server) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	all := schema.All()
	views := make([]schemaView, len(all))
	for i, sc := range all {
		views[i] = newSchemaView(sc)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	sc, err := schema.Lookup(schema.RecordType(chi.URLParam(r, "recordType")))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSchemaView(sc))
}

// handleDownloadTemplate serves a starter spreadsheet. ?format=csv|xlsx.
func (s *Server) handleDownloadTemplate(w http.ResponseWriter, r *http.Request) {
	sc, err := schema.Lookup(schema.RecordType(chi.URLParam(r, "recordType")))
	if err != nil {
		respondError(w, r, err)
		return
	}
	format, err := sheet.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, r, err)
		return
	}

	// Buffered so a write failure can still produce an error status.
	var buf bytes.Buffer
	if err := sheet.WriteTemplate(&buf, format, sc); err != nil {
		respondError(w, r, fmt.Errorf("write %s template: %w", sc.Type, err))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="%s_template.%s"`, sc.Type, format))
	_, _ = buf.WriteTo(w)
}
