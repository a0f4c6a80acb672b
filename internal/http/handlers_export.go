package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"strings"

	"fintrack/internal/export"
	"fintrack/internal/session"
)

// handleExport serves the ExportData view: the owner's snapshot as a
// CSV or PDF download, chosen by the format query parameter.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, sess sessionState) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	s.setView(sess, session.ViewExportData)

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "csv"
	}

	snapshot, err := s.store.List(r.Context(), sess.owner)
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	// Build the file fully before sending headers, so an exporter
	// failure can still produce a JSON error.
	var buf bytes.Buffer
	var contentType, filename string
	switch format {
	case "csv":
		contentType = "text/csv; charset=utf-8"
		filename = export.CSVFilename
		err = export.WriteCSV(&buf, snapshot)
	case "pdf":
		contentType = "application/pdf"
		filename = export.PDFFilename
		err = export.WritePDF(&buf, snapshot)
	default:
		respondError(w, http.StatusBadRequest, "format must be csv or pdf")
		return
	}
	if err != nil {
		respondDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "Export generated",
		"owner", sess.owner, "format", format, "transactions", len(snapshot), "bytes", buf.Len())

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
