package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/scrolly/internal/gesture"
	"github.com/ayusman/scrolly/internal/plugin"
	"github.com/ayusman/scrolly/internal/store"
)

// PluginLookup resolves installed plugins by name.
type PluginLookup interface {
	Get(name string) (*plugin.Plugin, error)
}

// BindingHandler serves /api/bindings and /api/bindings/{signal}.
type BindingHandler struct {
	store   *store.Store
	plugins PluginLookup
}

// NewBindingHandler creates a BindingHandler. When plugins is non-nil, PUT
// rejects plugins that are not installed and actions they do not declare.
func NewBindingHandler(s *store.Store, plugins PluginLookup) *BindingHandler {
	return &BindingHandler{store: s, plugins: plugins}
}

func (h *BindingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/bindings")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h.list(w)
		return
	}

	signal, err := gesture.ParseSignal(path)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, signal)
	case http.MethodPut:
		h.put(w, r, signal)
	case http.MethodDelete:
		h.delete(w, signal)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

type putBindingRequest struct {
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    *bool           `json:"enabled"`
}

type bindingResponse struct {
	Signal     string          `json:"signal"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}

type listBindingsResponse struct {
	Bindings []bindingResponse `json:"bindings"`
}

func toBindingResponse(b *store.Binding) bindingResponse {
	config := b.Config
	if len(config) == 0 {
		config = json.RawMessage("{}")
	}
	return bindingResponse{
		Signal:     b.Signal,
		PluginName: b.PluginName,
		ActionName: b.ActionName,
		Config:     config,
		Enabled:    b.Enabled,
		CreatedAt:  b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  b.UpdatedAt.Format(time.RFC3339),
	}
}

func (h *BindingHandler) list(w http.ResponseWriter) {
	bindings, err := h.store.Bindings().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bindings")
		return
	}

	response := listBindingsResponse{Bindings: make([]bindingResponse, 0, len(bindings))}
	for _, b := range bindings {
		response.Bindings = append(response.Bindings, toBindingResponse(b))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *BindingHandler) get(w http.ResponseWriter, signal gesture.Signal) {
	b, err := h.store.Bindings().Get(signal.String())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}
	if b == nil {
		writeError(w, http.StatusNotFound, "Signal is not bound")
		return
	}
	writeJSON(w, http.StatusOK, toBindingResponse(b))
}

func (h *BindingHandler) put(w http.ResponseWriter, r *http.Request, signal gesture.Signal) {
	var req putBindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.PluginName == "" {
		writeError(w, http.StatusBadRequest, "plugin_name is required")
		return
	}
	if req.ActionName == "" {
		writeError(w, http.StatusBadRequest, "action_name is required")
		return
	}
	if len(req.Config) > 0 && !json.Valid(req.Config) {
		writeError(w, http.StatusBadRequest, "config must be JSON")
		return
	}

	if h.plugins != nil {
		p, err := h.plugins.Get(req.PluginName)
		if errors.Is(err, plugin.ErrPluginNotFound) {
			writeError(w, http.StatusBadRequest, "Plugin not installed")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to look up plugin")
			return
		}
		if !p.Manifest.Supports(req.ActionName) {
			writeError(w, http.StatusBadRequest, "Plugin does not support action")
			return
		}
	}

	existing, err := h.store.Bindings().Get(signal.String())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}

	b := &store.Binding{
		Signal:     signal.String(),
		PluginName: req.PluginName,
		ActionName: req.ActionName,
		Config:     req.Config,
		Enabled:    true,
	}
	if existing != nil {
		b.CreatedAt = existing.CreatedAt
		b.Enabled = existing.Enabled
	}
	if req.Enabled != nil {
		b.Enabled = *req.Enabled
	}

	if err := h.store.Bindings().Upsert(b); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save binding")
		return
	}

	status := http.StatusOK
	if existing == nil {
		status = http.StatusCreated
	}
	writeJSON(w, status, toBindingResponse(b))
}

func (h *BindingHandler) delete(w http.ResponseWriter, signal gesture.Signal) {
	err := h.store.Bindings().Delete(signal.String())
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Signal is not bound")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete binding")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
