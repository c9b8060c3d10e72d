package org

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tendant/org-mgmt/internal/http/middleware"
	"github.com/tendant/org-mgmt/internal/httputil"
	"github.com/tendant/org-mgmt/pkg/domain"
	orgsvc "github.com/tendant/org-mgmt/pkg/org"
)

// Handler serves the organization management endpoints.
type Handler struct {
	registry *orgsvc.Registry
	creds    *orgsvc.CredentialStore
	logger   *slog.Logger
}

// NewHandler creates an organization handler.
func NewHandler(registry *orgsvc.Registry, creds *orgsvc.CredentialStore, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{registry: registry, creds: creds, logger: logger}
}

type createRequest struct {
	OrganizationName string `json:"organization_name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
}

type updateRequest struct {
	OrganizationName    string `json:"organization_name"`
	NewOrganizationName string `json:"new_organization_name"`
}

type deleteRequest struct {
	OrganizationName string `json:"organization_name"`
}

type orgResponse struct {
	ID               string    `json:"id"`
	OrganizationName string    `json:"organization_name"`
	CollectionName   string    `json:"collection_name"`
	AdminEmail       string    `json:"admin_email,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toOrgResponse(org *domain.Organization, adminEmail string) orgResponse {
	return orgResponse{
		ID:               org.ID.Hex(),
		OrganizationName: org.Name,
		CollectionName:   string(org.CollectionID),
		AdminEmail:       adminEmail,
		CreatedAt:        org.CreatedAt,
		UpdatedAt:        org.UpdatedAt,
	}
}

// Create handles POST /org/create.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.OrganizationName) == "" ||
		strings.TrimSpace(req.Email) == "" || req.Password == "" {
		httputil.Error(w, http.StatusBadRequest, "organization_name, email and password are required")
		return
	}

	org, err := h.registry.Create(r.Context(), req.OrganizationName, req.Email, req.Password)
	if err != nil {
		h.logger.Warn("organization create failed", "name", req.OrganizationName, "error", err)
		httputil.DomainError(w, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, toOrgResponse(org, strings.ToLower(strings.TrimSpace(req.Email))))
}

// Get handles GET /org/get?organization_name=...
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("organization_name")
	if strings.TrimSpace(name) == "" {
		httputil.Error(w, http.StatusBadRequest, "organization_name is required")
		return
	}

	org, err := h.registry.Get(r.Context(), name)
	if err != nil {
		httputil.DomainError(w, err)
		return
	}

	adminEmail := ""
	if admin, err := h.creds.FirstForOrg(r.Context(), org.ID); err == nil {
		adminEmail = admin.Email
	}

	httputil.JSON(w, http.StatusOK, toOrgResponse(org, adminEmail))
}

// Update handles PUT /org/update, renaming an organization and migrating its
// collection. Requires a bearer token for the same organization.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "missing authorization")
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.OrganizationName) == "" || strings.TrimSpace(req.NewOrganizationName) == "" {
		httputil.Error(w, http.StatusBadRequest, "organization_name and new_organization_name are required")
		return
	}

	org, err := h.registry.Rename(r.Context(), req.OrganizationName, req.NewOrganizationName, claims)
	if err != nil {
		if errors.Is(err, domain.ErrMigrationFailed) {
			h.logger.Error("organization rename failed during migration",
				"name", req.OrganizationName, "error", err)
		}
		httputil.DomainError(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, toOrgResponse(org, claims.Email))
}

// Delete handles DELETE /org/delete. Requires a bearer token for the same
// organization.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetClaims(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "missing authorization")
		return
	}

	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.OrganizationName) == "" {
		httputil.Error(w, http.StatusBadRequest, "organization_name is required")
		return
	}

	if err := h.registry.Delete(r.Context(), req.OrganizationName, claims); err != nil {
		httputil.DomainError(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{
		"message": "organization deleted",
	})
}
