package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"path"
	"strings"
)

// maxImportBytes caps an uploaded export.
const maxImportBytes = 32 << 20

// ImportHandler accepts broker exports over HTTP.
type ImportHandler struct {
	importer Importer
	logger   *slog.Logger
}

func NewImportHandler(importer Importer, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{importer: importer, logger: logHandler(logger, "imports")}
}

// Create imports the CSV request body. The file name comes from ?name= or
// the X-Filename header.
// POST /api/imports
func (h *ImportHandler) Create(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		name = r.Header.Get("X-Filename")
	}
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" {
		name = "upload.csv"
	}

	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	res, err := h.importer.ImportFile(r.Context(), name, body)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "import file too large")
			return
		}
		writeServiceError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
