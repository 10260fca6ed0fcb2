package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smallbiznis/orghub/internal/http/middleware"
	"github.com/smallbiznis/orghub/internal/service"
)

// OrgHandler serves organisation and membership endpoints.
type OrgHandler struct {
	Orgs *service.OrgService
}

// NewOrgHandler constructs an OrgHandler.
func NewOrgHandler(orgs *service.OrgService) *OrgHandler {
	return &OrgHandler{Orgs: orgs}
}

// List handles GET /api/organisations, returning the caller's
// organisations resolved from the token subject.
func (h *OrgHandler) List(c *gin.Context) {
	subject, ok := middleware.GetSubject(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Missing subject claim."})
		return
	}

	data, err := h.Orgs.ListForUser(c.Request.Context(), subject)
	if err != nil {
		respondError(c, err, "Client error")
		return
	}

	respondSuccess(c, http.StatusOK, "Organisations retrieved", data)
}

type createOrgRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create handles POST /api/organisations. The creator is not added as a
// member; membership is an explicit follow-up call.
func (h *OrgHandler) Create(c *gin.Context) {
	var req createOrgRequest
	if !bindJSON(c, &req) {
		return
	}

	org, err := h.Orgs.Create(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		respondError(c, err, "Client error")
		return
	}

	respondSuccess(c, http.StatusCreated, "Organisation created successfully", org)
}

// Get handles GET /api/organisations/:orgId.
func (h *OrgHandler) Get(c *gin.Context) {
	org, err := h.Orgs.Get(c.Request.Context(), c.Param("orgId"))
	if err != nil {
		respondError(c, err, "Client error")
		return
	}

	respondSuccess(c, http.StatusOK, "Organisation details retrieved", org)
}

// AddMember handles POST /api/organisations/:orgId/users, linking the
// caller to the organisation.
func (h *OrgHandler) AddMember(c *gin.Context) {
	subject, ok := middleware.GetSubject(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token", "error_description": "Missing subject claim."})
		return
	}

	if err := h.Orgs.AddMember(c.Request.Context(), c.Param("orgId"), subject); err != nil {
		respondError(c, err, "Client error")
		return
	}

	respondSuccess(c, http.StatusOK, "User added to organisation successfully", nil)
}
