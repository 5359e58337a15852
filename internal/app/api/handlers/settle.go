package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coursemint/settlement/internal/app/service/order"
	"github.com/coursemint/settlement/internal/app/service/settlement"
	"github.com/coursemint/settlement/pkg/logctx"
	"go.uber.org/zap"
)

// settleResponse is the public wire contract; clients depend on these exact
// key spellings, including the mixed originalAmount / original_currency pair.
type settleResponse struct {
	Success          bool    `json:"success"`
	Order            any     `json:"order"`
	Currency         string  `json:"currency"`
	OriginalCurrency string  `json:"original_currency"`
	Amount           float64 `json:"amount"`
	OriginalAmount   float64 `json:"originalAmount"`
}

// @Summary      Settle a payment
// @Description  Records the order, grants course access, and provisions the subscription for a completed payment.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Param        request body settlement.SettleRequest true "Payment settlement request"
// @Success      200  {object}  handlers.RespSettle
// @Failure      400  {object}  handlers.RespError
// @Failure      404  {object}  handlers.RespError
// @Failure      500  {object}  handlers.RespErrorDetails
// @Router       /api/v1/payment/settle [post]
func ApiSettle(svc settlement.Settler, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req settlement.SettleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		res, err := svc.Settle(c.Request.Context(), &req)
		if err != nil {
			switch {
			case errors.Is(err, order.ErrMissingField):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			case errors.Is(err, order.ErrUnknownUser):
				c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			case errors.Is(err, order.ErrPersistence):
				c.JSON(http.StatusInternalServerError, gin.H{
					"error":   "failed to record order",
					"details": err.Error(),
				})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{
					"error":   "settlement failed",
					"details": err.Error(),
				})
			}
			return
		}

		if len(res.PartialFailures) > 0 {
			logctx.FromGin(c, log).Warnw("settlement completed with partial failures",
				"order_number", res.Order.OrderNumber,
				"failures", res.PartialFailures)
		}

		c.JSON(http.StatusOK, settleResponse{
			Success:          true,
			Order:            res.Order,
			Currency:         res.Currency,
			OriginalCurrency: res.OriginalCurrency,
			Amount:           res.Amount,
			OriginalAmount:   res.OriginalAmount,
		})
	}
}

func RegisterSettlementRoutes(r gin.IRouter, svc settlement.Settler, log *zap.SugaredLogger) {
	r.POST("/settle", ApiSettle(svc, log))
}
