package account

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-auth-go/internal/token"
)

const maxBodyBytes = 1 << 20

// Handler exposes the account endpoints (register, authenticate, activate, introspect).
type Handler struct {
	lifecycle *LifecycleManager
	auth      *Authenticator
	logger    *zap.SugaredLogger
}

func NewHandler(lifecycle *LifecycleManager, auth *Authenticator, logger *zap.SugaredLogger) *Handler {
	return &Handler{lifecycle: lifecycle, auth: auth, logger: logger}
}

// RegisterResponse echoes the stored email.
type RegisterResponse struct {
	Email string `json:"email"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterInput
	if !h.decode(w, r, &req) {
		return
	}
	email, err := h.lifecycle.Register(r.Context(), req)
	if err != nil {
		h.fail(w, "register failed", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, RegisterResponse{Email: email})
}

// TokenResponse carries a signed access token.
type TokenResponse struct {
	Token string `json:"token"`
}

func (h *Handler) Authenticate(w http.ResponseWriter, r *http.Request) {
	var req Credentials
	if !h.decode(w, r, &req) {
		return
	}
	tok, err := h.auth.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, "authenticate failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, TokenResponse{Token: tok})
}

// MessageResponse is a plain confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// Activate expects the ADMIN check to have run in front of it.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.fail(w, "activate failed", apperr.NewValidationError("id", "must be a positive integer"))
		return
	}
	email, err := h.lifecycle.Activate(r.Context(), id)
	if err != nil {
		h.fail(w, "activate failed", err)
		return
	}
	h.writeJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("user : %s account's has been activated", email),
	})
}

// IntrospectResponse describes the bearer token of the request.
type IntrospectResponse struct {
	Active      bool     `json:"active"`
	Subject     string   `json:"sub"`
	Authorities []string `json:"authorities"`
	Issuer      string   `json:"iss,omitempty"`
	ID          string   `json:"jti,omitempty"`
	IssuedAt    int64    `json:"iat"`
	ExpiresAt   int64    `json:"exp"`
	TokenType   string   `json:"token_type"`
}

func (h *Handler) Introspect(w http.ResponseWriter, r *http.Request) {
	claims, ok := token.ClaimsFromContext(r.Context())
	if !ok {
		h.fail(w, "introspect failed", apperr.ErrTokenInvalid)
		return
	}
	out := IntrospectResponse{
		Active:      true,
		Subject:     claims.Subject,
		Authorities: claims.Authorities,
		Issuer:      claims.Issuer,
		ID:          claims.ID,
		TokenType:   "access_token",
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Unix()
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		h.logger.Debugw("invalid payload", "path", r.URL.Path, "err", err)
		h.writeJSON(w, http.StatusBadRequest, apperr.ErrorResponse{Error: "invalid payload"})
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, msg string, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Errorw(msg, "err", err)
	} else {
		h.logger.Debugw(msg, "err", err, "status", status)
	}
	h.writeJSON(w, status, apperr.Response(err))
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
