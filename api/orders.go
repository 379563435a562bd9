package api

import (
	"net/http"
	"time"

	"food-storefront/models"
	"food-storefront/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

func (s *Server) SearchOrders(c *gin.Context) {
	var body struct {
		PhoneNumber string `json:"phoneNumber"`
	}
	_ = c.ShouldBindJSON(&body)
	orders, err := s.orders.SearchByPhone(c.Request.Context(), body.PhoneNumber)
	if err != nil {
		s.respondError(c, err, "Failed to search for orders.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func adminName(c *gin.Context) string {
	if u, ok := sessions.DefaultMany(c, adminSessionName).Get("username").(string); ok && u != "" {
		return u
	}
	return "admin"
}

// ListOrders returns the board: orders grouped by status, oldest first.
func (s *Server) ListOrders(c *gin.Context) {
	orders, err := s.orders.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		s.respondError(c, err, "Failed to fetch orders")
		return
	}
	board := services.NewBoard(orders, s.orders)
	c.JSON(http.StatusOK, gin.H{"columns": board.Columns(), "counts": board.Counts()})
}

func (s *Server) OrderHistory(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := s.orders.Get(ctx, c.Param("id")); err != nil {
		s.respondError(c, err, "Failed to fetch order")
		return
	}
	history, err := s.store.StatusHistory(ctx, c.Param("id"))
	if err != nil {
		s.respondError(c, err, "Failed to fetch order history")
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (s *Server) UpdateOrderStatus(c *gin.Context) {
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	s.transition(c, body.Status)
}

func (s *Server) CancelOrder(c *gin.Context) {
	s.transition(c, services.OrderStatusCancelled)
}

func (s *Server) transition(c *gin.Context, to string) {
	o, changed, err := s.orders.Transition(c.Request.Context(), c.Param("id"), to, adminName(c))
	if err != nil {
		s.respondError(c, err, "Failed to update order status")
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": o, "changed": changed})
}

func (s *Server) DailyStats(c *gin.Context) {
	day := time.Now().In(s.loc)
	if d := c.Query("date"); d != "" {
		parsed, err := time.ParseInLocation("2006-01-02", d, s.loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		day = parsed
	}
	st, err := services.DailyStatsFor(c.Request.Context(), s.store, day)
	if err != nil {
		s.respondError(c, err, "Failed to load stats")
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": day.Format("2006-01-02"), "stats": st})
}

// allOrders is the input of the dashboard reports.
func (s *Server) allOrders(c *gin.Context) ([]models.Order, bool) {
	orders, err := s.orders.List(c.Request.Context(), "")
	if err != nil {
		s.respondError(c, err, "Failed to fetch orders")
		return nil, false
	}
	return orders, true
}
