package api

import "net/http"

// CategoriesHandler lists the labels the model was fitted on, for clients
// building input forms.
type CategoriesHandler struct {
	deps Dependencies
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(deps Dependencies) *CategoriesHandler {
	return &CategoriesHandler{deps: deps}
}

// HandleCategories handles GET /categories requests.
func (h *CategoriesHandler) HandleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Categories(r.Context()))
}
