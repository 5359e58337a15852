package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/coursemint/settlement/internal/app/service/access"
	"github.com/coursemint/settlement/internal/app/service/order"
	subsvc "github.com/coursemint/settlement/internal/app/service/subscription"
	"github.com/coursemint/settlement/pkg/response"
	types "github.com/coursemint/settlement/pkg/types"
)

// @Summary      List User Orders
// @Description  Returns the user's orders, paginated, newest first by default.
// @Tags         User
// @Produce      json
// @Param        user_id query string true "User ID"
// @Success      200  {object}  handlers.RespUserListOrders
// @Router       /api/v1/user/orders [get]
func ApiUserOrderList(svc *order.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("user_id")
		if userID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing user_id"))
			return
		}
		from := 0
		if v := c.Query("from"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				from = n
			}
		}
		size := 100
		if v := c.Query("size"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				size = n
			} else {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "invalid size"))
				return
			}
		}
		sortBy := c.Query("sort_by")
		if sortBy == "" {
			sortBy = "created_at"
		}
		sortOrder := c.Query("sort_order")
		if sortOrder != "asc" && sortOrder != "desc" {
			sortOrder = "desc"
		}

		req := &order.ScanOrdersRequest{
			Filters:   []*types.CommonFilter{{Field: "user_id", Operator: types.CommonFilterOperatorEq, Values: []any{userID}}},
			From:      from,
			Size:      size,
			SortBy:    sortBy,
			SortOrder: sortOrder,
		}
		res, err := svc.ScanOrders(c.Request.Context(), req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res.Items))
	}
}

// @Summary      List User Courses
// @Description  Returns the courses the user has access to.
// @Tags         User
// @Produce      json
// @Param        user_id query string true "User ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/user/courses [get]
func ApiUserCourseList(acc *access.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("user_id")
		if userID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing user_id"))
			return
		}
		grants, err := acc.ListByUser(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(grants))
	}
}

// @Summary      Get Current Subscription
// @Description  Returns the user's current subscription, or null data when there is none.
// @Tags         User
// @Produce      json
// @Param        user_id query string true "User ID"
// @Success      200  {object}  handlers.RespOK
// @Router       /api/v1/user/subscription [get]
func ApiUserSubscription(sub *subsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Query("user_id")
		if userID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing user_id"))
			return
		}
		current, err := sub.GetCurrentSubscription(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(current))
	}
}

func RegisterUserRoutes(r gin.IRouter, orders *order.Service, acc *access.Service, sub *subsvc.Service) {
	r.GET("/orders", ApiUserOrderList(orders))
	r.GET("/courses", ApiUserCourseList(acc))
	r.GET("/subscription", ApiUserSubscription(sub))
}
