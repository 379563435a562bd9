package api

import (
	"net/http"

	"food-storefront/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type cartView struct {
	Items      []services.CartItem `json:"items"`
	TotalItems int                 `json:"totalItems"`
	Total      float64             `json:"total"`
}

func viewOf(c *services.Cart) cartView {
	items := c.Items
	if items == nil {
		items = []services.CartItem{}
	}
	return cartView{Items: items, TotalItems: c.TotalItems(), Total: c.Total()}
}

// cartID returns the shopper's cart id, issuing one if create is set.
func (s *Server) cartID(c *gin.Context, create bool) (string, error) {
	sess := sessions.DefaultMany(c, cartSessionName)
	if id, ok := sess.Get("cart_id").(string); ok && id != "" {
		return id, nil
	}
	if !create {
		return "", nil
	}
	id := uuid.NewString()
	sess.Set("cart_id", id)
	sess.Options(sessions.Options{Path: "/", MaxAge: int(cartSessionTTL.Seconds()), HttpOnly: true, Secure: s.production, SameSite: http.SameSiteLaxMode})
	return id, sess.Save()
}

// loadCart reads the shopper's cart; a shopper without a cart id gets an empty one.
func (s *Server) loadCart(c *gin.Context, create bool) (string, *services.Cart, error) {
	id, err := s.cartID(c, create)
	if err != nil || id == "" {
		return id, &services.Cart{Items: []services.CartItem{}}, err
	}
	cart, err := s.store.GetCart(c.Request.Context(), id)
	return id, cart, err
}

func (s *Server) saveCart(c *gin.Context, id string, cart *services.Cart) {
	if err := s.store.SaveCart(c.Request.Context(), id, cart); err != nil {
		s.respondError(c, err, "Failed to save cart")
		return
	}
	c.JSON(http.StatusOK, viewOf(cart))
}

func (s *Server) GetCart(c *gin.Context) {
	_, cart, err := s.loadCart(c, false)
	if err != nil {
		s.respondError(c, err, "Failed to load cart")
		return
	}
	c.JSON(http.StatusOK, viewOf(cart))
}

func (s *Server) AddCartItem(c *gin.Context) {
	var body struct {
		ProductID string `json:"productId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productId is required"})
		return
	}
	product, err := s.store.GetProduct(c.Request.Context(), body.ProductID)
	if err != nil {
		s.respondError(c, err, "Failed to add item")
		return
	}
	id, cart, err := s.loadCart(c, true)
	if err != nil {
		s.respondError(c, err, "Failed to load cart")
		return
	}
	cart.Add(*product)
	s.saveCart(c, id, cart)
}

func (s *Server) UpdateCartItem(c *gin.Context) {
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity is required"})
		return
	}
	id, cart, err := s.loadCart(c, true)
	if err != nil {
		s.respondError(c, err, "Failed to load cart")
		return
	}
	if !cart.SetQuantity(c.Param("id"), body.Quantity) {
		s.respondError(c, services.ErrCartItemNotFound, "")
		return
	}
	s.saveCart(c, id, cart)
}

func (s *Server) RemoveCartItem(c *gin.Context) {
	id, cart, err := s.loadCart(c, true)
	if err != nil {
		s.respondError(c, err, "Failed to load cart")
		return
	}
	cart.Remove(c.Param("id"))
	s.saveCart(c, id, cart)
}

func (s *Server) ToggleCartExtra(c *gin.Context) {
	var body struct {
		UnitIndex int    `json:"unitIndex"`
		ExtraID   string `json:"extraId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "extraId and unitIndex are required"})
		return
	}
	ctx := c.Request.Context()
	extras, err := s.store.ListExtras(ctx, true)
	if err != nil {
		s.respondError(c, err, "Failed to load extras")
		return
	}
	extra, ok := services.FindExtra(extras, body.ExtraID)
	if !ok {
		s.respondError(c, services.ErrProductNotFound, "")
		return
	}
	id, cart, err := s.loadCart(c, true)
	if err != nil {
		s.respondError(c, err, "Failed to load cart")
		return
	}
	if err := cart.ToggleExtra(c.Param("id"), body.UnitIndex, extra); err != nil {
		s.respondError(c, err, "Failed to update extras")
		return
	}
	s.saveCart(c, id, cart)
}

func (s *Server) ClearCart(c *gin.Context) {
	id, err := s.cartID(c, false)
	if err != nil {
		s.respondError(c, err, "Failed to load cart")
		return
	}
	if id != "" {
		if err := s.store.DeleteCart(c.Request.Context(), id); err != nil {
			s.respondError(c, err, "Failed to clear cart")
			return
		}
	}
	c.JSON(http.StatusOK, viewOf(&services.Cart{}))
}
