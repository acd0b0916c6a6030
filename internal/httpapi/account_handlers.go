package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	accountapp "github.com/teakspice/cart-backend/internal/account/app"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"required"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type profileRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (h *handlers) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, "Invalid input")
		return
	}

	u, err := h.accounts.Register(c.Request.Context(), accountapp.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, h.log, err, "Internal server error during registration")
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, "Invalid input")
		return
	}

	u, tok, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, h.log, err, "Internal server error during login")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "token": tok})
}

func (h *handlers) getProfile(c *gin.Context) {
	u, err := h.accounts.Profile(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, h.log, err, "Internal server error")
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *handlers) updateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithMessage(c, http.StatusBadRequest, "Invalid input")
		return
	}

	u, err := h.accounts.UpdateProfile(c.Request.Context(), currentUser(c), accountapp.ProfileUpdate{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		writeError(c, h.log, err, "Internal server error while updating profile")
		return
	}
	c.JSON(http.StatusOK, u)
}
