package admin

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tendant/org-mgmt/internal/httputil"
	"github.com/tendant/org-mgmt/pkg/auth"
	orgsvc "github.com/tendant/org-mgmt/pkg/org"
)

// Handler serves administrator authentication endpoints.
type Handler struct {
	creds  *orgsvc.CredentialStore
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewHandler creates an admin handler.
func NewHandler(creds *orgsvc.CredentialStore, tokens *auth.TokenService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{creds: creds, tokens: tokens, logger: logger}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	OrgID       string `json:"org_id"`
}

// Login handles POST /admin/login. A successful login returns a bearer token
// scoped to the administrator's organization.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		httputil.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	admin, err := h.creds.VerifyLogin(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Warn("login failed", "ip", r.RemoteAddr)
		httputil.DomainError(w, err)
		return
	}

	token, _, err := h.tokens.Issue(admin.Email, admin.OrgID.Hex())
	if err != nil {
		h.logger.Error("token signing failed", "error", err)
		httputil.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	httputil.JSON(w, http.StatusOK, loginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(h.tokens.TTL().Seconds()),
		OrgID:       admin.OrgID.Hex(),
	})
}
