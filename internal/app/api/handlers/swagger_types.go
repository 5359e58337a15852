package handlers

import (
	"time"

	"github.com/coursemint/settlement/internal/app/service/diagnostics"
	"github.com/coursemint/settlement/internal/app/service/order"
	"github.com/coursemint/settlement/internal/app/service/statistics"
	"github.com/coursemint/settlement/pkg/response"
	types "github.com/coursemint/settlement/pkg/types"
)

// RespOK is a generic OK envelope for endpoints returning no specific data.
type RespOK struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    interface{}              `json:"data"`
}

// RespSettle documents the public settlement endpoint's success shape.
type RespSettle struct {
	Success          bool         `json:"success"`
	Order            SwaggerOrder `json:"order"`
	Currency         string       `json:"currency"`
	OriginalCurrency string       `json:"original_currency"`
	Amount           float64      `json:"amount"`
	OriginalAmount   float64      `json:"originalAmount"`
}

// RespError documents the settlement endpoint's 400/404 shape.
type RespError struct {
	Error string `json:"error"`
}

// RespErrorDetails documents the settlement endpoint's 500 shape.
type RespErrorDetails struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// RespListOrders wraps ScanOrdersResponse in the standard envelope.
type RespListOrders struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    order.ScanOrdersResponse `json:"data"`
}

// RespSettlementStatistic wraps SettlementStatisticResponse in the standard envelope.
type RespSettlementStatistic struct {
	Code    response.APIResponseCode               `json:"code"`
	Message string                                 `json:"message"`
	Data    statistics.SettlementStatisticResponse `json:"data"`
}

// RespRepairResult wraps a diagnostics result in the standard envelope.
type RespRepairResult struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    diagnostics.Result       `json:"data"`
}

// RespUserListOrders wraps a list of orders in the standard envelope.
type RespUserListOrders struct {
	Code    response.APIResponseCode `json:"code"`
	Message string                   `json:"message"`
	Data    []SwaggerOrder           `json:"data"`
}

// SwaggerOrder is a simplified view of models.Order for documentation purposes.
type SwaggerOrder struct {
	ID               string            `json:"id"`
	UserID           string            `json:"user_id"`
	CourseID         *string           `json:"course_id"`
	Amount           float64           `json:"amount"`
	Currency         string            `json:"currency"`
	OriginalAmount   float64           `json:"original_amount"`
	OriginalCurrency string            `json:"original_currency"`
	ExchangeRate     float64           `json:"exchange_rate"`
	PaymentType      string            `json:"payment_type"`
	Status           types.OrderStatus `json:"status"`
	OrderNumber      string            `json:"order_number"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}
