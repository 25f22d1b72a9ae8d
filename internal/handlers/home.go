package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"matchlab/internal/matching"
)

type HomeHandler struct {
	store *matching.Store
}

func NewHomeHandler(store *matching.Store) *HomeHandler {
	return &HomeHandler{store: store}
}

func (h *HomeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Get("/healthz", h.health)
}

func (h *HomeHandler) home(w http.ResponseWriter, r *http.Request) {
	subjects := h.store.Subjects()
	if len(subjects) == 0 {
		http.NotFound(w, r)
		return
	}
	_ = visitorID(w, r)
	http.Redirect(w, r, "/play/"+subjects[0].ID, http.StatusSeeOther)
}

func (h *HomeHandler) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
