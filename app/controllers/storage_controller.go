package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/storefront/pkg/logger"
	"github.com/shashiranjanraj/storefront/pkg/response"
	"github.com/shashiranjanraj/storefront/pkg/storage"
)

// ObjectServer serves public objects of the configured bucket at
// /storage/v1/object/public/{bucket}/{key}, the address image URLs point to.
type ObjectServer struct {
	disk storage.Disk
}

func NewObjectServer(disk storage.Disk) *ObjectServer {
	return &ObjectServer{disk: disk}
}

func (s *ObjectServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		response.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if chi.URLParam(r, "bucket") != s.disk.Bucket() {
		response.Error(w, http.StatusNotFound, "Bucket not found")
		return
	}

	rc, obj, err := s.disk.Open(r.Context(), chi.URLParam(r, "*"))
	if errors.Is(err, storage.ErrNotExist) {
		response.Error(w, http.StatusNotFound, "Object not found")
		return
	}
	if err != nil {
		logger.WithCtx(r.Context()).Error("storage: open failed", "path", r.URL.Path, "error", err)
		response.Error(w, http.StatusBadGateway, "Storage unavailable")
		return
	}
	defer rc.Close()

	h := w.Header()
	h.Set("Content-Type", obj.ContentType)
	h.Set("Cache-Control", "public, max-age=3600")
	if obj.Size > 0 {
		h.Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	if !obj.LastModified.IsZero() {
		h.Set("Last-Modified", obj.LastModified.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.Copy(w, rc); err != nil {
		logger.WithCtx(r.Context()).Debug("storage: copy interrupted", "error", err)
	}
}
