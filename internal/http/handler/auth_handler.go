package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smallbiznis/orghub/internal/service"
)

// AuthHandler serves registration, login and user detail endpoints.
type AuthHandler struct {
	Auth *service.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: auth}
}

type registerRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Phone     string `json:"phone"`
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	data, err := h.Auth.Register(c.Request.Context(), service.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
	})
	if err != nil {
		respondError(c, err, "Registration unsuccessful")
		return
	}

	respondSuccess(c, http.StatusCreated, "Registration successful", data)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	data, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err, "Authentication failed")
		return
	}

	respondSuccess(c, http.StatusOK, "Login successful", data)
}

// GetUser handles GET /api/users/:id. The looked-up identifier does not
// have to match the caller's token subject.
func (h *AuthHandler) GetUser(c *gin.Context) {
	user, err := h.Auth.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Client error")
		return
	}

	respondSuccess(c, http.StatusOK, "User details retrieved", user)
}
