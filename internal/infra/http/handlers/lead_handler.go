package handlers

import (
	"net/http"

	"github.com/xavierca1/atomic-crm/internal/infra/http/middleware"
	"github.com/xavierca1/atomic-crm/internal/usecase"
)

type LeadHandler struct {
	Submit *usecase.SubmitLeadUseCase
}

func NewLeadHandler(submit *usecase.SubmitLeadUseCase) *LeadHandler {
	return &LeadHandler{Submit: submit}
}

// CaptureLead recebe o formulário público: 202 quando o e-mail de confirmação foi disparado,
// 200 quando o e-mail já era um lead confirmado.
func (h *LeadHandler) CaptureLead(w http.ResponseWriter, r *http.Request) {
	var input usecase.SubmitLeadInput
	if !decodeJSON(w, r, &input, false) {
		middleware.RecordLeadSubmitted("invalid")
		return
	}

	output, err := h.Submit.Execute(r.Context(), input)
	if err != nil {
		middleware.RecordLeadSubmitted("error")
		writeError(w, r, err)
		return
	}

	middleware.RecordLeadSubmitted(output.Status)

	status := http.StatusAccepted
	if output.Status == usecase.StatusAlreadyRegistered {
		status = http.StatusOK
	}
	writeJSON(w, status, output)
}
