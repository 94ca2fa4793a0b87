package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/fasthttp/router"
	"github.com/arashpm/points-gateway/internal/model"
	"github.com/arashpm/points-gateway/internal/services"
	xhttp "github.com/arashpm/points-gateway/pkg/http"
)

type ProvisioningService interface {
	CreateMerchant(ctx context.Context, token string, req model.MerchantCreateRequest) (*model.Merchant, error)
	ListMerchants(ctx context.Context) ([]*model.Merchant, error)
	SetMerchantStatus(ctx context.Context, id string, status model.MerchantStatus) error
}

type AdminSessionProvider interface {
	AdminSession(ctx context.Context, token string) (*model.Session, error)
}

type ReportTrigger interface {
	EnqueueFor(ctx context.Context, day time.Time) (int, error)
}

type AdminHandler struct {
	auth         AdminSessionProvider
	provisioning ProvisioningService
	reports      ReportTrigger
}

func RegisterAdminRoutes(e *router.Group, h *AdminHandler) {
	e.POST("/admin/create-merchant", h.CreateMerchant)
	e.GET("/admin/merchants", h.ListMerchants)
	e.PATCH("/admin/merchants/{id}/status", h.SetMerchantStatus)
	e.POST("/admin/reports/run", h.RunReports)
}

func NewAdminHandler(auth AdminSessionProvider, provisioning ProvisioningService, reports ReportTrigger) *AdminHandler {
	return &AdminHandler{
		auth:         auth,
		provisioning: provisioning,
		reports:      reports,
	}
}

type createMerchantResponse struct {
	Success bool            `json:"success"`
	User    *model.Merchant `json:"user"`
	Message string          `json:"message"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

type runReportsRequest struct {
	Date string `json:"date"`
}

type runReportsResponse struct {
	Queued int    `json:"queued"`
	Date   string `json:"date"`
}

func (h *AdminHandler) CreateMerchant(ctx *xhttp.RequestCtx) {
	var req model.MerchantCreateRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	merchant, err := h.provisioning.CreateMerchant(ctx, bearerToken(ctx), req)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrUnauthorized):
			writeError(ctx, xhttp.StatusUnauthorized, err.Error())
		case errors.Is(err, services.ErrForbidden):
			writeError(ctx, xhttp.StatusForbidden, err.Error())
		default:
			// store or identity failures mid-saga surface to the caller
			writeError(ctx, xhttp.StatusBadRequest, err.Error())
		}
		return
	}

	writeJSON(ctx, xhttp.StatusOK, createMerchantResponse{
		Success: true,
		User:    merchant,
		Message: "merchant created",
	})
}

func (h *AdminHandler) ListMerchants(ctx *xhttp.RequestCtx) {
	if _, err := h.auth.AdminSession(ctx, bearerToken(ctx)); err != nil {
		writeServiceError(ctx, err)
		return
	}

	merchants, err := h.provisioning.ListMerchants(ctx)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	writeJSON(ctx, xhttp.StatusOK, merchants)
}

func (h *AdminHandler) SetMerchantStatus(ctx *xhttp.RequestCtx) {
	if _, err := h.auth.AdminSession(ctx, bearerToken(ctx)); err != nil {
		writeServiceError(ctx, err)
		return
	}

	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		writeError(ctx, xhttp.StatusBadRequest, "missing merchant id")
		return
	}

	var req setStatusRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	if err := h.provisioning.SetMerchantStatus(ctx, id, model.MerchantStatus(req.Status)); err != nil {
		writeServiceError(ctx, err)
		return
	}

	writeJSON(ctx, xhttp.StatusOK, map[string]bool{"success": true})
}

// RunReports queues daily reports for all active merchants. Defaults to
// yesterday when no date is given.
func (h *AdminHandler) RunReports(ctx *xhttp.RequestCtx) {
	if _, err := h.auth.AdminSession(ctx, bearerToken(ctx)); err != nil {
		writeServiceError(ctx, err)
		return
	}

	var req runReportsRequest
	if len(ctx.PostBody()) > 0 {
		if err := readJSON(ctx, &req); err != nil {
			writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
	}

	day := time.Now().Add(-24 * time.Hour)
	if req.Date != "" {
		t, err := parseTime(req.Date)
		if err != nil {
			writeError(ctx, xhttp.StatusBadRequest, "invalid date: "+err.Error())
			return
		}
		day = t
	}

	queued, err := h.reports.EnqueueFor(ctx, day)
	if err != nil {
		writeError(ctx, xhttp.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(ctx, xhttp.StatusOK, runReportsResponse{
		Queued: queued,
		Date:   day.Format("2006-01-02"),
	})
}
