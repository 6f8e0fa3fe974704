package handlers

import (
	"net/http"

	"github.com/xavierca1/atomic-crm/internal/infra/http/middleware"
	"github.com/xavierca1/atomic-crm/internal/usecase"
)

type CronHandler struct {
	Cleanup *usecase.CleanupPendingUseCase
	Remind  *usecase.RemindPendingUseCase
}

func NewCronHandler(cleanup *usecase.CleanupPendingUseCase, remind *usecase.RemindPendingUseCase) *CronHandler {
	return &CronHandler{Cleanup: cleanup, Remind: remind}
}

func (h *CronHandler) CleanupPending(w http.ResponseWriter, r *http.Request) {
	output, err := h.Cleanup.Execute(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.RecordHousekeeping("cleanup", output.Removed)
	writeJSON(w, http.StatusOK, output)
}

func (h *CronHandler) RemindPending(w http.ResponseWriter, r *http.Request) {
	output, err := h.Remind.Execute(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	middleware.RecordHousekeeping("remind", output.ProcessedCount)
	writeJSON(w, http.StatusOK, output)
}
