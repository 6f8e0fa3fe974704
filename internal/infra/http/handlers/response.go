package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/xavierca1/atomic-crm/internal/usecase"
)

const (
	codeInvalidJSON = "INVALID_JSON"
	maxBodyBytes    = 1 << 20
)

type ErrorResponse struct {
	OK      bool                      `json:"ok"`
	Error   string                    `json:"error"`
	Message string                    `json:"message"`
	Fields  []usecase.ValidationError `json:"fields,omitempty"`
}

var statusByCode = map[string]int{
	usecase.CodeValidation:         http.StatusBadRequest,
	codeInvalidJSON:                http.StatusBadRequest,
	usecase.CodeMissingToken:       http.StatusBadRequest,
	usecase.CodeInvalidToken:       http.StatusBadRequest,
	usecase.CodeInvalidID:          http.StatusBadRequest,
	usecase.CodeTokenEmailMismatch: http.StatusBadRequest,
	"UNAUTHORIZED":                 http.StatusUnauthorized,
	"FORBIDDEN":                    http.StatusForbidden,
	usecase.CodeTokenNotFound:      http.StatusNotFound,
	usecase.CodePendingNotFound:    http.StatusNotFound,
	usecase.CodeLeadNotFound:       http.StatusNotFound,
	usecase.CodeTokenExpired:       http.StatusGone,
	usecase.CodeDatabase:           http.StatusInternalServerError,
	usecase.CodeMail:               http.StatusBadGateway,
}

// StatusForCode maps an error code to its HTTP status; unknown codes are 500.
func StatusForCode(code string) int {
	if s, ok := statusByCode[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeErrorResponse(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{OK: false, Error: code, Message: message})
}

// writeError traduz o erro do caso de uso; detalhe técnico fica só no log.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var de *usecase.DomainError
	if errors.As(err, &de) {
		writeJSON(w, StatusForCode(de.Code), ErrorResponse{
			OK:      false,
			Error:   de.Code,
			Message: de.Message,
			Fields:  de.Fields,
		})
		return
	}

	code := usecase.CodeDatabase
	var te *usecase.TechnicalError
	if errors.As(err, &te) && te.Code != "" {
		code = te.Code
	}

	slog.Error("❌ erro interno", "path", r.URL.Path, "code", code, "error", err)
	writeErrorResponse(w, StatusForCode(code), code, "internal error, try again later")
}

// decodeJSON lê o corpo com limite de tamanho; corpo vazio é aceito quando allowEmpty.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}
	writeErrorResponse(w, http.StatusBadRequest, codeInvalidJSON, "JSON inválido")
	return false
}
