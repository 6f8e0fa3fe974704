package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/xavierca1/atomic-crm/internal/infra/http/middleware"
	"github.com/xavierca1/atomic-crm/internal/usecase"
)

type AdminHandler struct {
	Leads *usecase.AdminLeadsUseCase
}

func NewAdminHandler(leads *usecase.AdminLeadsUseCase) *AdminHandler {
	return &AdminHandler{Leads: leads}
}

func (h *AdminHandler) Session(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.AdminFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":    true,
		"email": admin.Email,
		"name":  admin.Name,
		"role":  "admin",
	})
}

func (h *AdminHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	output, err := h.Leads.List(r.Context(), usecase.ListLeadsInput{
		Query:  q.Get("q"),
		Status: q.Get("status"),
		Page:   atoiOrZero(q.Get("page")),
		Limit:  atoiOrZero(q.Get("limit")),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

func (h *AdminHandler) Get(w http.ResponseWriter, r *http.Request) {
	output, err := h.Leads.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

func (h *AdminHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input usecase.UpdateLeadInput
	if !decodeJSON(w, r, &input, false) {
		return
	}

	output, err := h.Leads.Update(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

func (h *AdminHandler) Delete(w http.ResponseWriter, r *http.Request) {
	output, err := h.Leads.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

// atoiOrZero deixa o caso de uso aplicar o default quando o parâmetro é inválido.
func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
