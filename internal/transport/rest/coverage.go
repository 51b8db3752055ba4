package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/alansafahi/soapboxx-versesync/internal/domain"
	"github.com/alansafahi/soapboxx-versesync/internal/service/coverage"
)

type coverageAuditor interface {
	Report(ctx context.Context) (coverage.Report, error)
	PendingWorkUnits(ctx context.Context, tr domain.Translation) ([]domain.WorkUnit, error)
}

// CoverageHandler exposes the coverage auditor read-only.
type CoverageHandler struct {
	auditor coverageAuditor
	log     *slog.Logger
}

func NewCoverageHandler(auditor coverageAuditor, logger *slog.Logger) *CoverageHandler {
	return &CoverageHandler{auditor: auditor, log: logger.With("handler", "coverage")}
}

// PendingResponse lists the outstanding units of one translation.
type PendingResponse struct {
	Translation domain.Translation `json:"translation"`
	Count       int                `json:"count"`
	Units       []domain.WorkUnit  `json:"units"`
}

// Report serves GET /coverage.
func (h *CoverageHandler) Report(w http.ResponseWriter, r *http.Request) {
	rep, err := h.auditor.Report(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// Pending serves GET /coverage/{translation}/pending.
func (h *CoverageHandler) Pending(w http.ResponseWriter, r *http.Request) {
	tr, err := domain.ParseTranslation(chi.URLParam(r, "translation"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	units, err := h.auditor.PendingWorkUnits(r.Context(), tr)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if units == nil {
		units = []domain.WorkUnit{}
	}
	writeJSON(w, http.StatusOK, PendingResponse{Translation: tr, Count: len(units), Units: units})
}

func (h *CoverageHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownTranslation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrStoreUnavailable):
		h.log.WarnContext(r.Context(), "store unavailable", slog.String("error", err.Error()))
		writeError(w, http.StatusServiceUnavailable, "verse store unavailable")
	default:
		h.log.ErrorContext(r.Context(), "coverage query failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
