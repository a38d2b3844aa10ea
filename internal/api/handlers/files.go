package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "arc-go/internal/api/errors"
	"arc-go/internal/arc"
)

const (
	// multipartOverhead is allowed on top of the payload cap for form
	// boundaries and the other fields.
	multipartOverhead = 1 << 20

	// multipartMemory is the part of a form kept in memory before spilling
	// to temp files.
	multipartMemory = 32 << 20
)

type statusResponse struct {
	Status string `json:"status"`
}

type checkResponse struct {
	Flagged []int64 `json:"flagged"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

// ListFiles handles GET /files.
// Query: order=asc|desc, filterParam=id|size, author, filename, searchType=substring|exact.
func (h *APIHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	files, err := h.store.ListFiles(r.Context(), arc.ListQuery{
		Order:    arc.SortOrder(q.Get("order")),
		SortKey:  arc.SortKey(q.Get("filterParam")),
		Author:   q.Get("author"),
		Filename: q.Get("filename"),
		Match:    arc.MatchMode(q.Get("searchType")),
	})
	if err != nil {
		h.fail(w, r, "listing files failed", err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

// Upload handles POST /upload with multipart fields file and username.
func (h *APIHandler) Upload(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	summary, err := h.store.CreateFile(r.Context(), r.FormValue("username"), filename, data)
	if err != nil {
		h.fail(w, r, "upload failed", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// Replace handles POST /replace with multipart fields file and oldId.
func (h *APIHandler) Replace(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	oldID, valid := parseID(r.FormValue("oldId"))
	if !valid {
		apierrors.ValidationError(w, "oldId must be a positive integer")
		return
	}

	res, err := h.store.ReplaceFile(r.Context(), oldID, filename, data)
	if err != nil {
		h.fail(w, r, "replace failed", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// readUpload parses the multipart body and returns the uploaded file.
// On failure the error response has already been written.
func (h *APIHandler) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.store.MaxPayloadSize()+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			apierrors.PayloadTooLarge(w, "request body too large")
			return "", nil, false
		}
		apierrors.ValidationError(w, "expected a multipart form")
		return "", nil, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, "no file uploaded")
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.fail(w, r, "reading upload failed", err)
		return "", nil, false
	}

	filename := header.Filename
	if h.sanitize {
		filename = sanitizeFilename(filename)
	}
	return filename, data, true
}

// Delete handles DELETE /delete/{id}.
func (h *APIHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		apierrors.ValidationError(w, "id must be a positive integer")
		return
	}

	if err := h.store.DeleteFile(r.Context(), id); err != nil {
		h.fail(w, r, "delete failed", err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

// Download handles GET /download/{id}. Files in any state can be downloaded.
func (h *APIHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		apierrors.ValidationError(w, "id must be a positive integer")
		return
	}

	d, err := h.store.DownloadFile(r.Context(), id)
	if err != nil {
		h.fail(w, r, "download failed", err)
		return
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": d.Filename})
	if disposition == "" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Length", strconv.Itoa(len(d.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(d.Data)
}

// Metadata handles GET /metadata/{id}.
func (h *APIHandler) Metadata(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		apierrors.ValidationError(w, "id must be a positive integer")
		return
	}

	rec, err := h.store.GetMetadata(r.Context(), id)
	if err != nil {
		h.fail(w, r, "metadata lookup failed", err)
		return
	}
	if rec.RelatedFiles == nil {
		rec.RelatedFiles = []int64{}
	}
	writeJSON(w, http.StatusOK, rec)
}

// CheckFiles handles POST /check-files.
func (h *APIHandler) CheckFiles(w http.ResponseWriter, r *http.Request) {
	ids, err := h.store.ReanimateCheck(r.Context())
	if err != nil {
		h.fail(w, r, "file check failed", err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	writeJSON(w, http.StatusOK, checkResponse{Flagged: ids})
}

// ListTrash handles GET /trash.
func (h *APIHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	rows, err := h.store.ListTrash(r.Context())
	if err != nil {
		h.fail(w, r, "listing trash failed", err)
		return
	}
	if rows == nil {
		rows = []*arc.TrashRecord{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// EmptyTrash handles POST /empty-trash. The count is the number of purged files.
func (h *APIHandler) EmptyTrash(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.EmptyTrash(r.Context())
	if err != nil {
		h.fail(w, r, "emptying trash failed", err)
		return
	}
	writeJSON(w, http.StatusOK, countResponse{Count: n})
}
