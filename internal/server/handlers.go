package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/joseph-ayodele/receipt-parser/constants"
	"github.com/joseph-ayodele/receipt-parser/internal/export"
	"github.com/joseph-ayodele/receipt-parser/internal/extract"
	"github.com/joseph-ayodele/receipt-parser/internal/parse"
	"github.com/joseph-ayodele/receipt-parser/internal/store"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// queryOptions builds store filters from request query parameters.
// Sort field and order are validated against the allow-list; anything else
// is rejected.
func queryOptions(r *http.Request) (store.QueryOptions, error) {
	q := r.URL.Query()
	opts := store.QueryOptions{
		VendorSubstr: q.Get("q"),
		Categories:   q["category"],
		DateFrom:     q.Get("from"),
		DateTo:       q.Get("to"),
	}
	if v := q.Get("sort"); v != "" {
		field, err := store.ParseSortField(v)
		if err != nil {
			return opts, err
		}
		opts.SortField = field
		order, err := store.ParseSortOrder(q.Get("order"))
		if err != nil {
			return opts, err
		}
		opts.SortOrder = order
	}
	return opts, nil
}

// handleList serves the dashboard query surface: vendor substring search,
// category multi-select, inclusive date range, and allow-listed sort.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	opts, err := queryOptions(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	recs, err := s.store.Query(r.Context(), opts)
	if err != nil {
		s.logger.Error("list receipts failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if recs == nil {
		recs = []store.Receipt{}
	}
	s.writeJSON(w, http.StatusOK, recs)
}

// handleUpload accepts a single receipt file, stores it, extracts text and
// returns the proposed fields for confirmation. Nothing is persisted yet.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.cfg.MaxUploadSize); err != nil {
		s.writeError(w, http.StatusBadRequest, "error parsing form")
		return
	}
	f, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer f.Close()

	name := filepath.Base(header.Filename)
	if !constants.IsAllowedExt(filepath.Ext(name)) {
		s.writeError(w, http.StatusBadRequest,
			fmt.Sprintf("invalid file type %q; allowed: jpg, png, pdf, txt", filepath.Ext(name)))
		return
	}

	dup, err := s.ingest.IsDuplicate(r.Context(), name)
	if err != nil {
		s.logger.Error("duplicate check failed", "filename", name, "error", err)
		s.writeError(w, http.StatusInternalServerError, "duplicate check failed")
		return
	}
	if dup {
		s.writeError(w, http.StatusConflict,
			fmt.Sprintf("file %q already exists; rename or upload a different file", name))
		return
	}

	if _, err := s.ingest.SaveUpload(name, f); err != nil {
		s.logger.Error("save upload failed", "filename", name, "error", err)
		s.writeError(w, http.StatusInternalServerError, "save upload failed")
		return
	}

	preview, err := s.ingest.ParseUpload(r.Context(), name)
	if err != nil {
		if errors.Is(err, extract.ErrUnsupportedType) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("extraction failed: %v", err))
		return
	}
	s.writeJSON(w, http.StatusOK, preview)
}

// handleUploadZip ingests a zip archive of receipts and reports per-file
// outcomes.
func (s *Server) handleUploadZip(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.cfg.MaxUploadSize); err != nil {
		s.writeError(w, http.StatusBadRequest, "error parsing form")
		return
	}
	f, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer f.Close()

	reports, stats, err := s.ingest.IngestZip(r.Context(), f, header.Size)
	if err != nil {
		s.logger.Error("zip ingest failed", "filename", header.Filename, "error", err)
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("zip ingest failed: %v", err))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"statistics": stats,
		"results":    reports,
	})
}

type saveRequest struct {
	Filename string   `json:"filename"`
	Vendor   *string  `json:"vendor"`
	Date     *string  `json:"date"`
	Amount   *float64 `json:"amount"`
	Category *string  `json:"category"`
}

// handleSave persists a confirmed (possibly user-edited) record.
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "read body failed")
		return
	}
	var req saveRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Filename == "" {
		s.writeError(w, http.StatusBadRequest, "filename is required")
		return
	}

	rec, err := s.ingest.Save(r.Context(), req.Filename, parse.Fields{
		Vendor:   req.Vendor,
		Date:     req.Date,
		Amount:   req.Amount,
		Category: req.Category,
	})
	if err != nil {
		s.logger.Error("save receipt failed", "filename", req.Filename, "error", err)
		s.writeError(w, http.StatusInternalServerError, "save failed")
		return
	}
	s.writeJSON(w, http.StatusCreated, rec)
}

// handleDelete removes a record by id. Unknown ids are a no-op.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "id must be an integer")
		return
	}
	if err := s.store.Delete(r.Context(), id); err != nil {
		s.writeError(w, http.StatusInternalServerError, "delete failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStats serves aggregate spend statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Summarize(r.Context())
	if err != nil {
		s.logger.Error("summarize failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "stats failed")
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

// exportRecords applies the same filters as handleList, so exports cover
// exactly what the dashboard shows.
func (s *Server) exportRecords(w http.ResponseWriter, r *http.Request) ([]store.Receipt, bool) {
	opts, err := queryOptions(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	recs, err := s.store.Query(r.Context(), opts)
	if err != nil {
		s.logger.Error("export query failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "query failed")
		return nil, false
	}
	return recs, true
}

func (s *Server) serveAttachment(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write(data); err != nil {
		s.logger.Error("write attachment failed", "filename", filename, "error", err)
	}
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	recs, ok := s.exportRecords(w, r)
	if !ok {
		return
	}
	data, err := export.CSV(recs)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "csv export failed")
		return
	}
	s.serveAttachment(w, "text/csv; charset=utf-8", "receipts.csv", data)
}

func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	recs, ok := s.exportRecords(w, r)
	if !ok {
		return
	}
	data, err := export.JSON(recs)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "json export failed")
		return
	}
	s.serveAttachment(w, "application/json", "receipts.json", data)
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	recs, ok := s.exportRecords(w, r)
	if !ok {
		return
	}
	data, err := export.PDF(recs)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "pdf export failed")
		return
	}
	s.serveAttachment(w, "application/pdf", "receipt_summary.pdf", data)
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	recs, ok := s.exportRecords(w, r)
	if !ok {
		return
	}
	data, err := export.XLSX(recs)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "xlsx export failed")
		return
	}
	s.serveAttachment(w,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"receipts.xlsx", data)
}
