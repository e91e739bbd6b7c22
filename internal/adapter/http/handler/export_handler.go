package handler

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
)

// Exporter writes the ledger as a spreadsheet file.
type Exporter interface {
	Export(ctx context.Context, w io.Writer) error
}

// ExportHandler serves the CSV download.
type ExportHandler struct {
	exporter Exporter
	filename string
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(exporter Exporter, filename string) *ExportHandler {
	if filename == "" {
		filename = "wedding_list_final.csv"
	}
	return &ExportHandler{exporter: exporter, filename: filename}
}

// Download renders the export into memory first so a failure still yields a
// proper JSON error instead of a truncated file.
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := h.exporter.Export(r.Context(), &buf); err != nil {
		writeDomainError(w, "failed to export entries", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": h.filename}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("failed to write export body")
	}
}
