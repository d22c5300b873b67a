// Package httpapi exposes the profile feed and its commands over JSON/HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"jamsocial/internal/common"
	"jamsocial/internal/profile"
)

const maxAvatarBytes = 10 << 20

type FeedRegistry interface {
	Get(userID int64) (*profile.Assembler, error)
	Refresh(ctx context.Context, userID int64) (uint64, error)
}

type AvatarReplacer interface {
	ReplaceAvatar(ctx context.Context, userID int64, image []byte, contentType string) (*profile.AvatarResult, error)
}

type PostCommands interface {
	DeletePost(ctx context.Context, userID int64, postID string) error
	React(ctx context.Context, userID int64, postID, kind string) (*profile.ReactionResult, error)
}

type Handler struct {
	feeds   FeedRegistry
	avatars AvatarReplacer
	posts   PostCommands
	hub     *SnapshotHub
	log     *slog.Logger
	now     func() time.Time
}

func NewHandler(feeds FeedRegistry, avatars AvatarReplacer, posts PostCommands, hub *SnapshotHub, log *slog.Logger) *Handler {
	return &Handler{feeds: feeds, avatars: avatars, posts: posts, hub: hub, log: log, now: time.Now}
}

func (h *Handler) Register(r *mux.Router) {
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/profile/feed", h.GetFeed).Methods(http.MethodGet)
	api.HandleFunc("/profile/feed/refresh", h.RefreshFeed).Methods(http.MethodPost)
	api.HandleFunc("/profile/feed/stream", h.StreamFeed).Methods(http.MethodGet)
	api.HandleFunc("/profile/avatar", h.ReplaceAvatar).Methods(http.MethodPut)
	api.HandleFunc("/posts/{postID}", h.DeletePost).Methods(http.MethodDelete)
	api.HandleFunc("/posts/{postID}/reaction", h.React).Methods(http.MethodPut)
}

type feedResponse struct {
	Status   string            `json:"status"`
	RunID    uint64            `json:"run_id"`
	Snapshot *profile.Snapshot `json:"snapshot"`
	Error    string            `json:"error,omitempty"`
}

// GetFeed returns the current snapshot. Before the first successful run it
// answers 202 and, if nothing was triggered yet, starts the first run. Once
// the snapshot's media URLs have expired it is still returned, marked stale,
// and a new run is started unless one is already in flight.
func (h *Handler) GetFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, profile.ErrSessionNotReady)
		return
	}
	assembler, err := h.feeds.Get(userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := feedResponse{Snapshot: assembler.Current(), RunID: assembler.Counter()}
	if lastErr := assembler.LastError(); lastErr != nil {
		resp.Error = lastErr.Error()
	}

	switch {
	case resp.Snapshot == nil:
		if resp.RunID == 0 {
			if resp.RunID, err = h.feeds.Refresh(r.Context(), userID); err != nil {
				h.writeError(w, err)
				return
			}
		}
		resp.Status = "pending"
		writeJSON(w, http.StatusAccepted, resp)
		return

	case resp.Snapshot.URLsExpired(h.now()):
		if !assembler.Pending() {
			if resp.RunID, err = h.feeds.Refresh(r.Context(), userID); err != nil {
				h.writeError(w, err)
				return
			}
		}
		resp.Status = "stale"

	default:
		resp.Status = "ready"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) RefreshFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, profile.ErrSessionNotReady)
		return
	}
	runID, err := h.feeds.Refresh(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]uint64{"run_id": runID})
}

// ReplaceAvatar accepts either a raw image body or a multipart form with an
// "avatar" file field.
func (h *Handler) ReplaceAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, profile.ErrSessionNotReady)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarBytes)
	image, contentType, err := readImage(r)
	if err != nil {
		h.writeError(w, errors.Join(profile.ErrInvalidImage, err))
		return
	}

	result, err := h.avatars.ReplaceAvatar(r.Context(), userID, image, contentType)
	if err != nil {
		if errors.Is(err, profile.ErrPersistFailed) && result != nil {
			h.log.Error("avatar uploaded but not recorded", "user_id", userID, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": err.Error(),
				"url":   result.URL,
			})
			return
		}
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, profile.ErrSessionNotReady)
		return
	}
	if err := h.posts.DeletePost(r.Context(), userID, mux.Vars(r)["postID"]); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reactRequest struct {
	Kind string `json:"kind"`
}

func (h *Handler) React(w http.ResponseWriter, r *http.Request) {
	userID, ok := common.UserIDFromContext(r.Context())
	if !ok {
		h.writeError(w, profile.ErrSessionNotReady)
		return
	}

	var req reactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, errors.Join(profile.ErrInvalidInput, err))
		return
	}

	result, err := h.posts.React(r.Context(), userID, mux.Vars(r)["postID"], req.Kind)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func readImage(r *http.Request) ([]byte, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "multipart/") {
		data, err := io.ReadAll(r.Body)
		return data, mediaType, err
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	return data, header.Header.Get("Content-Type"), err
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, profile.ErrSessionNotReady):
		return http.StatusUnauthorized
	case errors.Is(err, profile.ErrInvalidImage), errors.Is(err, profile.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, profile.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, profile.ErrPostNotFound):
		return http.StatusNotFound
	case errors.Is(err, profile.ErrUploadFailed), errors.Is(err, profile.ErrQueryFailed):
		return http.StatusBadGateway
	case errors.Is(err, profile.ErrAssemblerClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
