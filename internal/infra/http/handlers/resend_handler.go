package handlers

import (
	"net/http"

	"github.com/xavierca1/atomic-crm/internal/usecase"
)

type ResendHandler struct {
	Resend *usecase.ResendConfirmationUseCase
	Origin string
}

func NewResendHandler(resend *usecase.ResendConfirmationUseCase, origin string) *ResendHandler {
	return &ResendHandler{Resend: resend, Origin: origin}
}

func (h *ResendHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var input usecase.ResendConfirmationInput
	if !decodeJSON(w, r, &input, false) {
		return
	}
	input.Origin = h.Origin

	output, err := h.Resend.Execute(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

// Healthcheck responde o GET das rotas protegidas para o agendador validar o segredo.
func Healthcheck(route string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "route": route})
	}
}
