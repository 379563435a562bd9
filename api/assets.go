package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetAsset serves a stored payment proof to the dashboard.
func (s *Server) GetAsset(c *gin.Context) {
	a, err := s.store.GetAsset(c.Request.Context(), c.Param("ref"))
	if err != nil {
		s.respondError(c, err, "Failed to load asset")
		return
	}
	if a.Filename != "" {
		c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", a.Filename))
	}
	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, a.ContentType, a.Data)
}
