package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"food-storefront/services"

	"github.com/gin-gonic/gin"
)

const checkoutFailed = "Failed to process checkout on the server."

// Checkout accepts either a multipart form (JSON in the "order" field plus
// an optional "paymentProof" file) or a plain JSON body.
func (s *Server) Checkout(c *gin.Context) {
	var req services.CheckoutRequest
	var proof *services.ProofFile

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		raw := c.PostForm("order")
		if raw == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required order information."})
			return
		}
		if err := json.Unmarshal([]byte(raw), &req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required order information."})
			return
		}
		var err error
		if proof, err = readProof(c); err != nil {
			s.respondError(c, err, checkoutFailed)
			return
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required order information."})
		return
	}

	res, err := s.checkout.Checkout(c.Request.Context(), req, proof)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
			return
		}
		s.log.Error().Err(err).Str("request_id", c.GetString("request_id")).Msg("checkout failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": checkoutFailed, "details": err.Error()})
		return
	}

	if id, _ := s.cartID(c, false); id != "" {
		if err := s.store.DeleteCart(c.Request.Context(), id); err != nil {
			s.log.Warn().Err(err).Str("cart_id", id).Msg("clear cart after checkout")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     res.Success,
		"message":     "Order placed successfully!",
		"orderId":     res.OrderID,
		"orderNumber": res.OrderNumber,
	})
}

// readProof returns nil when no file was attached.
func readProof(c *gin.Context) (*services.ProofFile, error) {
	fh, err := c.FormFile("paymentProof")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if fh.Size > services.MaxProofBytes {
		return nil, &services.ValidationError{Field: "paymentProof", Message: "Payment proof must be smaller than 5 MB."}
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, services.MaxProofBytes+1))
	if err != nil {
		return nil, err
	}
	return &services.ProofFile{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
