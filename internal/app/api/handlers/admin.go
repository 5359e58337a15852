package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coursemint/settlement/internal/app/service/access"
	"github.com/coursemint/settlement/internal/app/service/diagnostics"
	"github.com/coursemint/settlement/internal/app/service/eventlog"
	"github.com/coursemint/settlement/internal/app/service/order"
	"github.com/coursemint/settlement/internal/app/service/statistics"
	subsvc "github.com/coursemint/settlement/internal/app/service/subscription"
	"github.com/coursemint/settlement/pkg/response"
	"github.com/coursemint/settlement/pkg/types"
)

type ListOrdersRequest struct {
	Filters   []*types.CommonFilter `json:"filters"`
	From      int                   `json:"from"`
	Size      int                   `json:"size"`
	SortBy    string                `json:"sort_by"`
	SortOrder string                `json:"sort_order"`
}

// @Summary      List Orders (Admin)
// @Description  Retrieves a paginated and filterable list of all orders.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body ListOrdersRequest true "List orders request with filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespListOrders
// @Router       /api/v1/admin/list_orders [post]
func ApiListOrders(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ListOrdersRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.ScanOrders(c.Request.Context(), &order.ScanOrdersRequest{
			Filters: req.Filters, From: req.From, Size: req.Size,
			SortBy: req.SortBy, SortOrder: req.SortOrder,
		})
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Update Order Status (Admin)
// @Description  Transitions an order to a new status, e.g. for refunds or cancellations.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/update_order_status [post]
func ApiUpdateOrderStatus(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			OrderID string            `json:"order_id"`
			Status  types.OrderStatus `json:"status"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if req.OrderID == "" || !req.Status.Valid() {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing order_id or invalid status"))
			return
		}
		if err := svc.UpdateOrderStatus(c.Request.Context(), req.OrderID, req.Status); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// @Summary      Grant Course Access (Admin)
// @Description  Grants a user free access to a course from the back office.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/grant_course_access [post]
func ApiGrantCourseAccess(acc *access.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			UserID   string `json:"user_id"`
			CourseID string `json:"course_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if req.UserID == "" || req.CourseID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing user_id or course_id"))
			return
		}
		if err := acc.Grant(c.Request.Context(), req.UserID, req.CourseID, nil, time.Now()); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// @Summary      List User Subscriptions (Admin)
// @Description  Returns every subscription row for one user, newest first.
// @Tags         Admin
// @Produce      json
// @Param        user_id query string true "User ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/list_user_subscriptions [get]
func ApiListUserSubscriptions(sub *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("user_id")
		if userID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing user_id"))
			return
		}
		subs, err := sub.ListByUser(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(subs))
	}
}

// @Summary      Cancel Subscription (Admin)
// @Description  Cancels a subscription and turns auto-renew off; the current entitlement window is untouched.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/cancel_subscription [post]
func ApiCancelSubscription(sub *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			SubscriptionID string `json:"subscription_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.SubscriptionID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing subscription_id"))
			return
		}
		if err := sub.Cancel(c.Request.Context(), req.SubscriptionID); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

// @Summary      Get Settlement Statistics (Admin)
// @Description  Retrieves daily order, revenue, and subscription statistics.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body statistics.SettlementStatisticRequest true "Statistic request parameters"
// @Success      200  {object}  handlers.RespSettlementStatistic
// @Router       /api/v1/admin/get_settlement_statistic [post]
func ApiGetSettlementStatistic(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.SettlementStatisticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := svc.GetSettlementStatistic(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Get Order Events (Admin)
// @Description  Returns the settlement event trail for one order, oldest first.
// @Tags         Admin
// @Produce      json
// @Param        order_number query string true "Order number"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/order_events [get]
func ApiOrderEvents(events *eventlog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderNumber := c.Query("order_number")
		if orderNumber == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing order_number"))
			return
		}
		entries, err := events.ListByOrderNumber(c.Request.Context(), orderNumber)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(entries))
	}
}

// @Summary      List Repairs (Admin)
// @Description  Lists the registered diagnostic repair routines.
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/repairs [get]
func ApiListRepairs(diag *diagnostics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, response.OKT(diag.Names()))
	}
}

// @Summary      Run Repair (Admin)
// @Description  Runs one diagnostic repair routine and reports whether the target state was reached.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Success      200  {object}  handlers.RespRepairResult
// @Router       /api/v1/admin/run_repair [post]
func ApiRunRepair(diag *diagnostics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name string `json:"name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing repair name"))
			return
		}
		res, err := diag.Run(c.Request.Context(), req.Name)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// @Summary      Clear Repair Marker (Admin)
// @Description  Clears a repair's completion marker so the next run executes the corrective steps again.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/admin/clear_repair_marker [post]
func ApiClearRepairMarker(diag *diagnostics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name string `json:"name"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing repair name"))
			return
		}
		if err := diag.ClearMarker(c.Request.Context(), req.Name); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func RegisterAdminRoutes(r gin.IRouter, orders *order.Service, acc *access.Service, sub *subsvc.Service, stats *statistics.Service, events *eventlog.Service, diag *diagnostics.Service) {
	r.POST("/list_orders", ApiListOrders(orders))
	r.POST("/update_order_status", ApiUpdateOrderStatus(orders))
	r.POST("/grant_course_access", ApiGrantCourseAccess(acc))
	r.GET("/list_user_subscriptions", ApiListUserSubscriptions(sub))
	r.POST("/cancel_subscription", ApiCancelSubscription(sub))
	r.POST("/get_settlement_statistic", ApiGetSettlementStatistic(stats))
	r.GET("/order_events", ApiOrderEvents(events))
	r.GET("/repairs", ApiListRepairs(diag))
	r.POST("/run_repair", ApiRunRepair(diag))
	r.POST("/clear_repair_marker", ApiClearRepairMarker(diag))
}
