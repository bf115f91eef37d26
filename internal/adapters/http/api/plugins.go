package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/okian/xptrack/internal/domain/plugin"
	"github.com/okian/xptrack/pkg/metrics"
)

// PluginDependencies defines the interface for plugin-hub reads.
type PluginDependencies interface {
	PluginCards(author string, installed map[string]bool) []plugin.Card
}

type pluginsResponse struct {
	Author string        `json:"author,omitempty"`
	Count  int           `json:"count"`
	Cards  []plugin.Card `json:"cards"`
}

// PluginsHandler serves plugin-hub cards.
type PluginsHandler struct {
	deps PluginDependencies
}

// NewPluginsHandler creates a new plugins handler.
func NewPluginsHandler(deps PluginDependencies) *PluginsHandler {
	return &PluginsHandler{deps: deps}
}

// HandleGetPlugins handles GET /plugin-hub and GET /plugin-hub/{author}.
func (h *PluginsHandler) HandleGetPlugins(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_plugins"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	author := strings.Trim(strings.TrimPrefix(r.URL.Path, "/plugin-hub"), "/")
	if strings.Contains(author, "/") {
		writeErr(w, NewKind(op, ErrBadRequest))
		return
	}

	cards := h.deps.PluginCards(author, plugin.ParseInstalled(r.URL.Query().Get("installed")))
	if author != "" && len(cards) == 0 {
		writeErr(w, WrapKind(op, ErrNotFound, fmt.Errorf("no plugins by author %q", author)))
		return
	}
	metrics.RecordPluginCardsServed(len(cards))
	writeJSON(w, http.StatusOK, pluginsResponse{Author: author, Count: len(cards), Cards: cards})
}
