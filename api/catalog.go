package api

import (
	"net/http"

	"food-storefront/models"
	"food-storefront/services"

	"github.com/gin-gonic/gin"
)

// GetMenu never fails the page: on a store error it answers with empty
// lists and an error field.
func (s *Server) GetMenu(c *gin.Context) {
	f := services.CatalogFilter{AvailableOnly: true, CategoryID: c.Query("category")}
	menu, err := services.LoadMenu(c.Request.Context(), s.store, f)
	if err != nil {
		s.log.Error().Err(err).Msg("load menu")
		c.JSON(http.StatusOK, gin.H{
			"meals":      []models.Meal{},
			"combos":     []models.Combo{},
			"categories": []models.Category{},
			"extras":     []models.Extra{},
			"error":      "Failed to load menu",
		})
		return
	}
	c.JSON(http.StatusOK, menu)
}

func (s *Server) GetSettings(c *gin.Context) {
	st, err := s.store.GetSettings(c.Request.Context())
	if err != nil {
		s.respondError(c, err, "Failed to load settings")
		return
	}
	c.JSON(http.StatusOK, st)
}

func (s *Server) SaveMeal(c *gin.Context) {
	var m models.Meal
	if err := c.ShouldBindJSON(&m); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid meal payload"})
		return
	}
	m.ID = c.Param("id")
	if err := s.store.SaveMeal(c.Request.Context(), m); err != nil {
		s.respondError(c, err, "Failed to save meal")
		return
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) SetMealAvailability(c *gin.Context) {
	var body struct {
		IsAvailable *bool `json:"isAvailable"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.IsAvailable == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "isAvailable is required"})
		return
	}
	if err := s.store.SetMealAvailability(c.Request.Context(), c.Param("id"), *body.IsAvailable); err != nil {
		s.respondError(c, err, "Failed to update meal")
		return
	}
	c.JSON(http.StatusOK, gin.H{"_id": c.Param("id"), "isAvailable": *body.IsAvailable})
}
