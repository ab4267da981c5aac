package handler

import (
	"errors"
	"strconv"
	"strings"

	"dailytrack/internal/service"
	"dailytrack/pkg/amount"
	"dailytrack/pkg/response"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Handler exposes the services over HTTP.
type Handler struct {
	ledger   *service.LedgerService
	rewards  *service.RewardService
	exchange *service.ExchangeService
	custody  *service.CustodyService
}

func NewHandler(
	ledger *service.LedgerService,
	rewards *service.RewardService,
	exchange *service.ExchangeService,
	custody *service.CustodyService,
) *Handler {
	return &Handler{
		ledger:   ledger,
		rewards:  rewards,
		exchange: exchange,
		custody:  custody,
	}
}

// fail writes err as an envelope. Service errors carry their code in Reason.
func fail(c *gin.Context, err error) {
	if errors.Is(err, service.ErrBusy) {
		response.ErrorWithReason(c, response.CodeBusy, service.ErrBusy.Code, service.ErrBusy.Message)
		return
	}

	var e *service.Error
	if !errors.As(err, &e) {
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("unhandled error")
		response.ServerError(c, "internal server error")
		return
	}

	code := response.CodeServerError
	switch e.Kind {
	case service.KindInvalidArgument:
		code = response.CodeParamError
	case service.KindUnauthorized:
		code = response.CodeUnauthorized
	case service.KindNotOwner, service.KindNotApproved:
		code = response.CodeForbidden
	case service.KindNotFound:
		code = response.CodeNotFound
	case service.KindInvalidState:
		code = response.CodeInvalidState
	case service.KindInsufficientFunds:
		code = response.CodeInsufficientFunds
	}
	response.ErrorWithReason(c, code, e.Code, e.Message)
}

func parseAddress(raw string) (common.Address, bool) {
	raw = strings.TrimSpace(raw)
	if !common.IsHexAddress(raw) {
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

func parseAmount(raw string) (amount.Amount, bool) {
	a, err := amount.Parse(raw)
	return a, err == nil
}

func parseUint(raw string) (uint64, bool) {
	v, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	return v, err == nil
}

func queryAddress(c *gin.Context, name string) (common.Address, bool) {
	addr, ok := parseAddress(c.Query(name))
	if !ok {
		response.ParamError(c, name+" must be a hex address")
	}
	return addr, ok
}

func bodyAddress(c *gin.Context, name, raw string) (common.Address, bool) {
	addr, ok := parseAddress(raw)
	if !ok {
		response.ParamError(c, name+" must be a hex address")
	}
	return addr, ok
}

func bodyAmount(c *gin.Context, name, raw string) (amount.Amount, bool) {
	a, ok := parseAmount(raw)
	if !ok {
		response.ParamError(c, name+" must be a non-negative integer in base units")
	}
	return a, ok
}

func pathID(c *gin.Context) (uint64, bool) {
	id, ok := parseUint(c.Param("id"))
	if !ok {
		response.ParamError(c, "id must be an unsigned integer")
	}
	return id, ok
}

func pagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, pageSize
}

// Reconcile GET /api/v1/custody/reconcile
func (h *Handler) Reconcile(c *gin.Context) {
	reports, err := h.custody.Reconcile(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	response.Success(c, gin.H{"reports": reports})
}
