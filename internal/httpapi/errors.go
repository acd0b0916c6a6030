package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	accountapp "github.com/teakspice/cart-backend/internal/account/app"
	account "github.com/teakspice/cart-backend/internal/account/domain"
	cartapp "github.com/teakspice/cart-backend/internal/cart/app"
	cart "github.com/teakspice/cart-backend/internal/cart/domain"
	catalog "github.com/teakspice/cart-backend/internal/catalog/domain"
	order "github.com/teakspice/cart-backend/internal/order/domain"
)

type ErrorResponse struct {
	Message string `json:"message"`
}

func abortWithMessage(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Message: msg})
}

// writeError maps service errors to a status and message. Anything it does
// not recognise is logged and reported as internalMsg.
func writeError(c *gin.Context, log *zap.Logger, err error, internalMsg string) {
	var stockErr *cartapp.StockError
	switch {
	case errors.As(err, &stockErr):
		abortWithMessage(c, http.StatusBadRequest, stockErr.Error())
	case errors.Is(err, catalog.ErrInsufficientStock):
		abortWithMessage(c, http.StatusBadRequest, "Not enough stock available")
	case errors.Is(err, cartapp.ErrInvalidQuantity):
		abortWithMessage(c, http.StatusBadRequest, "Quantity must be a positive number")
	case errors.Is(err, accountapp.ErrInvalidInput):
		abortWithMessage(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, cart.ErrEmptyCart):
		abortWithMessage(c, http.StatusBadRequest, "Cart is empty")

	case errors.Is(err, catalog.ErrProductNotFound):
		abortWithMessage(c, http.StatusNotFound, "Product not found")
	case errors.Is(err, cart.ErrCartNotFound):
		abortWithMessage(c, http.StatusNotFound, "Cart not found")
	case errors.Is(err, cart.ErrItemNotInCart):
		abortWithMessage(c, http.StatusNotFound, "Item not in cart")
	case errors.Is(err, order.ErrOrderNotFound):
		abortWithMessage(c, http.StatusNotFound, "Order not found")
	case errors.Is(err, account.ErrUserNotFound):
		abortWithMessage(c, http.StatusNotFound, "User not found")

	case errors.Is(err, cartapp.ErrConflict):
		abortWithMessage(c, http.StatusConflict, "Cart was modified concurrently, try again")
	case errors.Is(err, account.ErrEmailTaken):
		abortWithMessage(c, http.StatusConflict, "Email already registered")

	case errors.Is(err, account.ErrInvalidCredentials):
		abortWithMessage(c, http.StatusUnauthorized, "Invalid email or password")

	default:
		log.Error(internalMsg,
			zap.Error(err),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.String("path", c.FullPath()),
		)
		abortWithMessage(c, http.StatusInternalServerError, internalMsg)
	}
}
