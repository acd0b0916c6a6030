package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type addToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  *int   `json:"quantity"`
}

type updateCartRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *handlers) getCart(c *gin.Context) {
	view, err := h.cart.GetCart(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, h.log, err, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *handlers) addToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, "Invalid input")
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	cart, err := h.cart.AddItem(c.Request.Context(), currentUser(c), req.ProductID, qty)
	if err != nil {
		writeError(c, h.log, err, "Internal server error while adding to cart")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart updated", "cart": cart})
}

func (h *handlers) updateCartItem(c *gin.Context) {
	var req updateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, "Invalid input")
		return
	}

	cart, err := h.cart.SetQuantity(c.Request.Context(), currentUser(c), c.Param("productId"), *req.Quantity)
	if err != nil {
		writeError(c, h.log, err, "Internal server error while updating cart")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart updated", "cart": cart})
}

func (h *handlers) removeCartItem(c *gin.Context) {
	if _, err := h.cart.RemoveItem(c.Request.Context(), currentUser(c), c.Param("productId")); err != nil {
		writeError(c, h.log, err, "Internal server error while removing item")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

func (h *handlers) clearCart(c *gin.Context) {
	if err := h.cart.ClearCart(c.Request.Context(), currentUser(c)); err != nil {
		writeError(c, h.log, err, "Internal server error while clearing cart")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

func (h *handlers) checkout(c *gin.Context) {
	o, err := h.cart.Checkout(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, h.log, err, "Internal server error during checkout")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order placed successfully. Stock updated.", "order": o})
}
