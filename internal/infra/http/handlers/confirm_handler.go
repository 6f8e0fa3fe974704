package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/xavierca1/atomic-crm/internal/infra/http/middleware"
	"github.com/xavierca1/atomic-crm/internal/usecase"
)

type ConfirmHandler struct {
	Confirm *usecase.ConfirmLeadUseCase
	AppURL  string
}

func NewConfirmHandler(confirm *usecase.ConfirmLeadUseCase, appURL string) *ConfirmHandler {
	return &ConfirmHandler{Confirm: confirm, AppURL: strings.TrimRight(appURL, "/")}
}

// HandleGet atende o clique no link do e-mail (?token=&email=).
func (h *ConfirmHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	h.confirm(w, r, usecase.ConfirmLeadInput{
		Token: q.Get("token"),
		Email: q.Get("email"),
	})
}

func (h *ConfirmHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	var input usecase.ConfirmLeadInput
	if !decodeJSON(w, r, &input, false) {
		return
	}
	h.confirm(w, r, input)
}

func (h *ConfirmHandler) confirm(w http.ResponseWriter, r *http.Request, input usecase.ConfirmLeadInput) {
	output, err := h.Confirm.Execute(r.Context(), input)
	if err != nil {
		var de *usecase.DomainError
		code := usecase.CodeDatabase
		if errors.As(err, &de) {
			code = de.Code
		}
		middleware.RecordConfirmation(strings.ToLower(code))

		if wantsHTML(r) {
			http.Redirect(w, r, h.AppURL+"/confirm?"+url.Values{"error": {code}}.Encode(), http.StatusFound)
			return
		}
		writeError(w, r, err)
		return
	}

	middleware.RecordConfirmation("confirmed")

	if wantsHTML(r) {
		http.Redirect(w, r, h.AppURL+"/confirm/success?"+url.Values{"email": {output.Email}}.Encode(), http.StatusFound)
		return
	}
	writeJSON(w, http.StatusOK, output)
}

// wantsHTML detecta o navegador vindo do link do e-mail.
func wantsHTML(r *http.Request) bool {
	if r.Method != http.MethodGet {
		return false
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.HasPrefix(accept, "application/json")
}
