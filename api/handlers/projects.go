package handlers

import (
	"net/http"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/kbgateway/kbgateway/store"
	"github.com/kbgateway/kbgateway/types"
)

// ProjectsHandler serves GET /projects: the set of project names seen in
// recent traffic (any request whose body named a project), so callers can
// discover valid values for QueryRequest.Project without consulting the
// knowledge-graph schema directly (which is out of scope, spec §2's
// Non-goals).
type ProjectsHandler struct {
	store  store.Store
	logger *zap.Logger
}

// NewProjectsHandler creates a ProjectsHandler over the shared Persistent
// State Store.
func NewProjectsHandler(st store.Store, logger *zap.Logger) *ProjectsHandler {
	return &ProjectsHandler{store: st, logger: logger}
}

type projectsResponse struct {
	Projects []string `json:"projects"`
}

// HandleList handles GET /projects.
func (h *ProjectsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteErrorMessage(w, http.StatusMethodNotAllowed, types.ErrInvalidRequest, "method not allowed", h.logger)
		return
	}

	keys, err := h.store.GetAllActive(r.Context(), store.ProjectKeyPrefix)
	if err != nil {
		WriteErrorMessage(w, http.StatusInternalServerError, types.ErrStoreUnavailable, err.Error(), h.logger)
		return
	}

	projects := make([]string, 0, len(keys))
	for _, k := range keys {
		projects = append(projects, strings.TrimPrefix(k, store.ProjectKeyPrefix))
	}
	sort.Strings(projects)

	WriteSuccess(w, projectsResponse{Projects: projects})
}
