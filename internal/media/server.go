// Package media serves objects from the object store over HTTP, either
// through a signed, expiring link or from a bucket marked public.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"jamsocial/internal/common"
	"jamsocial/internal/dbmongo"
)

type ObjectReader interface {
	Download(ctx context.Context, bucket, path string) (io.ReadCloser, *common.ObjectInfo, error)
}

type TokenVerifier interface {
	Verify(token, bucket, path string) error
}

type HTTPServer struct {
	storage       ObjectReader
	verifier      TokenVerifier
	publicBuckets map[string]bool
	log           *slog.Logger
	router        *mux.Router
}

func NewHTTPServer(storage ObjectReader, verifier TokenVerifier, log *slog.Logger, publicBuckets ...string) *HTTPServer {
	s := &HTTPServer{
		storage:       storage,
		verifier:      verifier,
		publicBuckets: make(map[string]bool, len(publicBuckets)),
		log:           log,
		router:        mux.NewRouter(),
	}
	for _, b := range publicBuckets {
		s.publicBuckets[b] = true
	}

	s.router.HandleFunc("/object/sign/{bucket}/{path:.+}", s.serveSigned).Methods(http.MethodGet, http.MethodHead)
	s.router.HandleFunc("/object/public/{bucket}/{path:.+}", s.servePublic).Methods(http.MethodGet, http.MethodHead)
	s.router.HandleFunc("/health", s.health).Methods(http.MethodGet)
	return s
}

func (s *HTTPServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *HTTPServer) serveSigned(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bucket, path := vars["bucket"], vars["path"]

	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusBadRequest)
		return
	}
	if err := s.verifier.Verify(token, bucket, path); err != nil {
		s.log.Debug("rejected signed url", "bucket", bucket, "path", path, "error", err)
		http.Error(w, "invalid or expired token", http.StatusForbidden)
		return
	}

	// Signed links must not outlive their token in shared caches.
	s.stream(w, r, bucket, path, "private, no-store")
}

func (s *HTTPServer) servePublic(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	bucket, path := vars["bucket"], vars["path"]

	if !s.publicBuckets[bucket] {
		http.Error(w, "bucket is not public", http.StatusForbidden)
		return
	}
	s.stream(w, r, bucket, path, "")
}

func (s *HTTPServer) stream(w http.ResponseWriter, r *http.Request, bucket, path, cacheControl string) {
	reader, info, err := s.storage.Download(r.Context(), bucket, path)
	if err != nil {
		if errors.Is(err, dbmongo.ErrObjectNotFound) {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		s.log.Error("object download failed", "bucket", bucket, "path", path, "error", err)
		http.Error(w, "storage unavailable", http.StatusBadGateway)
		return
	}
	defer reader.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = common.ContentTypeFor(path)
	}
	if cacheControl == "" && info.CacheControl != "" {
		cacheControl = "public, max-age=" + info.CacheControl
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size))
	if cacheControl != "" {
		w.Header().Set("Cache-Control", cacheControl)
	}
	if r.Method == http.MethodHead {
		return
	}

	if _, err := io.Copy(w, reader); err != nil {
		s.log.Warn("error streaming file", "bucket", bucket, "path", path, "error", err)
	}
}

func (s *HTTPServer) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
