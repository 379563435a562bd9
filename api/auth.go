package api

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

func (s *Server) Login(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password are required"})
		return
	}
	if err := s.auth.Login(c.Request.Context(), body.Username, body.Password); err != nil {
		s.respondError(c, err, "Internal server error")
		return
	}

	sess := sessions.DefaultMany(c, adminSessionName)
	sess.Set("isAuthenticated", "true")
	sess.Set("username", body.Username)
	sess.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(adminSessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.production,
		SameSite: http.SameSiteStrictMode,
	})
	if err := sess.Save(); err != nil {
		s.respondError(c, err, "Internal server error")
		return
	}
	s.log.Info().Str("username", body.Username).Msg("admin logged in")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) Logout(c *gin.Context) {
	sess := sessions.DefaultMany(c, adminSessionName)
	sess.Clear()
	sess.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := sess.Save(); err != nil {
		s.respondError(c, err, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) CheckAuth(c *gin.Context) {
	if isAdmin(c) {
		c.JSON(http.StatusOK, gin.H{"isAuthenticated": true})
		return
	}
	c.JSON(http.StatusUnauthorized, gin.H{"isAuthenticated": false})
}
