package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/e3wm/e3wm-api/internal/keybinding"
	"github.com/e3wm/e3wm-api/internal/settings"
	"github.com/e3wm/e3wm-api/internal/source"
	"github.com/e3wm/e3wm-api/internal/storage"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Reloader forces a fresh load of the configuration.
type Reloader interface {
	Reload(ctx context.Context) (storage.Snapshot, error)
}

// Handler serves read-only queries against the current configuration snapshot.
type Handler struct {
	storage  storage.Storage
	reloader Reloader

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithReloader enables POST /api/reload.
func WithReloader(r Reloader) HandlerOption {
	return func(h *Handler) {
		h.reloader = r
	}
}

// NewHandler constructs a Handler reading from store.
func NewHandler(store storage.Storage, opts ...HandlerOption) *Handler {
	h := &Handler{
		storage: store,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleSource(w http.ResponseWriter, r *http.Request) {
	_ = r
	snap := h.storage.Current()
	loadErr := snap.Accessor.Err()
	if errors.Is(loadErr, source.ErrConfigurationNotFound) {
		writeConfigError(w, loadErr)
		return
	}

	writeJSON(w, http.StatusOK, newSourceResponse(snap, loadErr))
}

func (h *Handler) handleWorkspaces(w http.ResponseWriter, r *http.Request) {
	_ = r
	workspaces, err := h.storage.Current().Accessor.Workspaces()
	if err != nil {
		writeConfigError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, workspacesResponse{Workspaces: workspaces})
}

func (h *Handler) handleLayouts(w http.ResponseWriter, r *http.Request) {
	_ = r
	layouts, err := h.storage.Current().Accessor.Layouts()
	if err != nil {
		writeConfigError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, layoutsResponse{Layouts: layouts})
}

func (h *Handler) handleDynamic(w http.ResponseWriter, r *http.Request) {
	_ = r
	dynamic, err := h.storage.Current().Accessor.Dynamic()
	if err != nil {
		writeConfigError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dynamicResponse{Dynamic: dynamic})
}

func (h *Handler) handleKeybindings(w http.ResponseWriter, r *http.Request) {
	_ = r
	bindings := h.storage.Current().Accessor.Keybindings()

	resp := keybindingsResponse{Keybindings: make([]keybindingResponse, 0, len(bindings))}
	for i, b := range bindings {
		resp.Keybindings = append(resp.Keybindings, newKeybindingResponse(i, b, true))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleKeybinding(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request", "index must be an integer")
		return
	}

	b, ok := h.storage.Current().Accessor.Keybinding(index)
	writeJSON(w, http.StatusOK, newKeybindingResponse(index, b, ok))
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	if h.reloader == nil {
		writeError(w, http.StatusServiceUnavailable, "Reload unavailable", "the server was started without a reloader")
		return
	}

	snap, err := h.reloader.Reload(r.Context())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "Reload failed", err.Error(),
			"The previous configuration is still being served")
		return
	}

	resp := reloadResponse{
		Generation: snap.Generation,
		LoadedAt:   snap.Accessor.LoadedAt(),
		Message:    "Configuration reloaded successfully",
	}
	writeJSON(w, http.StatusOK, resp)
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type sourceResponse struct {
	Dir        string    `json:"dir"`
	File       string    `json:"file"`
	Format     string    `json:"format"`
	Origin     string    `json:"origin"`
	Generation uint64    `json:"generation"`
	LoadedAt   time.Time `json:"loadedAt"`
	Error      string    `json:"error,omitempty"`
}

func newSourceResponse(snap storage.Snapshot, loadErr error) sourceResponse {
	loc := snap.Accessor.Location()
	resp := sourceResponse{
		Dir:        loc.Dir,
		File:       loc.File,
		Format:     string(loc.Format),
		Origin:     loc.Origin.String(),
		Generation: snap.Generation,
		LoadedAt:   snap.Accessor.LoadedAt(),
	}
	if loadErr != nil {
		resp.Error = loadErr.Error()
	}
	return resp
}

type workspacesResponse struct {
	Workspaces []any `json:"workspaces"`
}

type layoutsResponse struct {
	Layouts []any `json:"layouts"`
}

type dynamicResponse struct {
	Dynamic map[string]any `json:"dynamic"`
}

type chordResponse struct {
	Canonical string   `json:"canonical"`
	Modifiers []string `json:"modifiers"`
	Key       string   `json:"key"`
}

type keybindingResponse struct {
	Index      int               `json:"index"`
	Binding    *settings.Binding `json:"binding"`
	Chord      *chordResponse    `json:"chord,omitempty"`
	ChordError string            `json:"chordError,omitempty"`
}

func newKeybindingResponse(index int, b settings.Binding, ok bool) keybindingResponse {
	resp := keybindingResponse{Index: index}
	if !ok {
		return resp
	}
	resp.Binding = &b
	if b.Keys == "" {
		return resp
	}

	chord, err := keybinding.Parse(b.Keys)
	if err != nil {
		resp.ChordError = err.Error()
		return resp
	}
	resp.Chord = &chordResponse{
		Canonical: chord.String(),
		Modifiers: chord.Names(),
		Key:       chord.Key,
	}
	return resp
}

type keybindingsResponse struct {
	Keybindings []keybindingResponse `json:"keybindings"`
}

type reloadResponse struct {
	Generation uint64    `json:"generation"`
	LoadedAt   time.Time `json:"loadedAt"`
	Message    string    `json:"message,omitempty"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}

// writeConfigError maps configuration errors to HTTP statuses.
func writeConfigError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, source.ErrConfigurationNotFound):
		writeError(w, http.StatusServiceUnavailable, "Configuration not found", err.Error(),
			"Create a config file in the user or system configuration directory")
	case errors.Is(err, settings.ErrInvalidConfiguration):
		writeError(w, http.StatusServiceUnavailable, "Configuration invalid", err.Error())
	case errors.Is(err, settings.ErrAttributeMissing), errors.Is(err, settings.ErrAttributeType):
		writeError(w, http.StatusUnprocessableEntity, "Configuration attribute unavailable", err.Error())
	default:
		writeInternalError(w, err)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	writeError(w, http.StatusInternalServerError, "Internal error", err.Error())
}
