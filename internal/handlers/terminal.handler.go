package handlers

import (
	"context"
	"strconv"
	"strings"

	"github.com/fasthttp/router"
	"github.com/arashpm/points-gateway/internal/model"
	xhttp "github.com/arashpm/points-gateway/pkg/http"
)

type SessionProvider interface {
	MerchantSession(ctx context.Context, token string) (*model.Session, error)
}

type LedgerService interface {
	GetBalance(ctx context.Context, merchantID, phone string) (int64, error)
	AddPoints(ctx context.Context, merchantID, phone string, amount int64) (int64, error)
	RedeemPoints(ctx context.Context, merchantID, phone string, cost int64, manual bool) (int64, bool, error)
	History(ctx context.Context, merchantID string, f model.TransactionFilter) ([]*model.Transaction, int64, error)
}

type OptionService interface {
	List(ctx context.Context, merchantID string) ([]*model.LoyaltyOption, error)
}

// TerminalHandler serves the merchant terminal surface. Every route
// resolves the caller's merchant from the bearer token, never from the
// request body.
type TerminalHandler struct {
	auth    SessionProvider
	ledger  LedgerService
	options OptionService
}

func RegisterTerminalRoutes(e *router.Group, h *TerminalHandler) {
	t := e.Group("/terminal")
	t.POST("/balance", h.GetBalance)
	t.POST("/points/add", h.AddPoints)
	t.POST("/points/redeem", h.RedeemPoints)
	t.GET("/options", h.ListOptions)
	e.GET("/transactions", h.ListTransactions)
}

func NewTerminalHandler(auth SessionProvider, ledger LedgerService, options OptionService) *TerminalHandler {
	return &TerminalHandler{
		auth:    auth,
		ledger:  ledger,
		options: options,
	}
}

type balanceRequest struct {
	Phone string `json:"phone"`
}

type balanceResponse struct {
	Phone   string `json:"phone"`
	Balance int64  `json:"balance"`
}

type addPointsRequest struct {
	Phone  string `json:"phone"`
	Amount *int64 `json:"amount"`
}

type redeemPointsRequest struct {
	Phone  string `json:"phone"`
	Cost   int64  `json:"cost"`
	Manual bool   `json:"manual"`
}

type redeemPointsResponse struct {
	Phone    string `json:"phone"`
	Balance  int64  `json:"balance"`
	Redeemed bool   `json:"redeemed"`
}

type historyResponse struct {
	Items []*model.Transaction `json:"items"`
	Total int64                `json:"total"`
}

func (h *TerminalHandler) session(ctx *xhttp.RequestCtx) *model.Session {
	session, err := h.auth.MerchantSession(ctx, bearerToken(ctx))
	if err != nil {
		writeServiceError(ctx, err)
		return nil
	}
	return session
}

func (h *TerminalHandler) GetBalance(ctx *xhttp.RequestCtx) {
	session := h.session(ctx)
	if session == nil {
		return
	}

	var req balanceRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	balance, err := h.ledger.GetBalance(ctx, session.MerchantID, req.Phone)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	writeJSON(ctx, xhttp.StatusOK, balanceResponse{Phone: req.Phone, Balance: balance})
}

func (h *TerminalHandler) AddPoints(ctx *xhttp.RequestCtx) {
	session := h.session(ctx)
	if session == nil {
		return
	}

	var req addPointsRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	// One point per visit unless the terminal asks for more
	amount := int64(1)
	if req.Amount != nil {
		amount = *req.Amount
	}

	balance, err := h.ledger.AddPoints(ctx, session.MerchantID, req.Phone, amount)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	writeJSON(ctx, xhttp.StatusOK, balanceResponse{Phone: req.Phone, Balance: balance})
}

func (h *TerminalHandler) RedeemPoints(ctx *xhttp.RequestCtx) {
	session := h.session(ctx)
	if session == nil {
		return
	}

	var req redeemPointsRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	balance, redeemed, err := h.ledger.RedeemPoints(ctx, session.MerchantID, req.Phone, req.Cost, req.Manual)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	writeJSON(ctx, xhttp.StatusOK, redeemPointsResponse{
		Phone:    req.Phone,
		Balance:  balance,
		Redeemed: redeemed,
	})
}

func (h *TerminalHandler) ListOptions(ctx *xhttp.RequestCtx) {
	session := h.session(ctx)
	if session == nil {
		return
	}

	options, err := h.options.List(ctx, session.MerchantID)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	writeJSON(ctx, xhttp.StatusOK, options)
}

func (h *TerminalHandler) ListTransactions(ctx *xhttp.RequestCtx) {
	session := h.session(ctx)
	if session == nil {
		return
	}

	var f model.TransactionFilter

	if v := query(ctx, "phone"); v != "" {
		f.Phone = &v
	}
	if v := query(ctx, "type"); v != "" {
		t := model.TransactionType(v)
		f.Type = &t
	}
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.To = &t
		}
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}
	if strings.EqualFold(query(ctx, "order"), "desc") {
		f.Desc = true
	}

	items, total, err := h.ledger.History(ctx, session.MerchantID, f)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}

	writeJSON(ctx, xhttp.StatusOK, historyResponse{Items: items, Total: total})
}
