package api

import (
	"net/http"
	"strconv"

	"food-storefront/services"

	"github.com/gin-gonic/gin"
)

func (s *Server) ListCustomers(c *gin.Context) {
	orders, ok := s.allOrders(c)
	if !ok {
		return
	}
	customers := services.AggregateCustomers(orders)
	if err := services.SortCustomers(customers, c.Query("sort"), c.Query("dir") == "desc"); err != nil {
		s.respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": customers})
}

func (s *Server) RevenueReport(c *gin.Context) {
	month, err1 := queryInt(c, "month")
	year, err2 := queryInt(c, "year")
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "month and year must be numbers"})
		return
	}
	orders, ok := s.allOrders(c)
	if !ok {
		return
	}
	report, err := services.RevenueForPeriod(orders, month, year, s.loc)
	if err != nil {
		s.respondError(c, err, "")
		return
	}
	c.JSON(http.StatusOK, report)
}

func queryInt(c *gin.Context, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
