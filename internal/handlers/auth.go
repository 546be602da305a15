package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"staticfund-api/internal/store"
	"staticfund-api/pkg/logging/logging"
)

type AccountStore interface {
	CreateUser(ctx context.Context, nu store.NewUser) (store.User, error)
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Check(hash, password string) bool
}

type TokenIssuer interface {
	Issue(userID int64, email string) (string, error)
}

// AuthHandler serves registration and login.
type AuthHandler struct {
	users     AccountStore
	passwords PasswordHasher
	tokens    TokenIssuer
}

func NewAuthHandler(users AccountStore, passwords PasswordHasher, tokens TokenIssuer) *AuthHandler {
	return &AuthHandler{users: users, passwords: passwords, tokens: tokens}
}

type registerRequest struct {
	Email        string  `json:"email" validate:"required,email"`
	Password     string  `json:"password" validate:"min=6"`
	Name         string  `json:"name" validate:"max=100"`
	Province     string  `json:"province"`
	City         string  `json:"city"`
	MonthlySpend float64 `json:"monthly_spend" validate:"gte=0"`
}

func (registerRequest) fieldMessages() map[string]string {
	return map[string]string{
		"email":         "Valid email is required",
		"password":      "Password must be at least 6 characters",
		"name":          "Name too long",
		"monthly_spend": "Monthly spend must be a number",
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (loginRequest) fieldMessages() map[string]string {
	return map[string]string{
		"email":    "Valid email is required",
		"password": "Password is required",
	}
}

type sessionResponse struct {
	store.User
	Token string `json:"token"`
}

// Register handles POST /api/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, r, err)
		return
	}
	if !validRequest(w, &req) {
		return
	}

	hash, err := h.passwords.Hash(req.Password)
	if err != nil {
		serverError(w, r, "hash password failed", err)
		return
	}

	user, err := h.users.CreateUser(r.Context(), store.NewUser{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Province:     req.Province,
		City:         req.City,
		MonthlySpend: req.MonthlySpend,
	})
	if errors.Is(err, store.ErrEmailTaken) {
		writeError(w, http.StatusBadRequest, "User already exists")
		return
	}
	if err != nil {
		serverError(w, r, "create user failed", err)
		return
	}

	h.respondSession(w, r, user)
	logging.L(r.Context()).Info("user registered", zap.Int64("user_id", user.ID))
}

// Login handles POST /api/login. Unknown email and wrong password answer
// identically.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		badBody(w, r, err)
		return
	}
	if !validRequest(w, &req) {
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	if err != nil {
		serverError(w, r, "load user failed", err)
		return
	}

	if !h.passwords.Check(user.PasswordHash, req.Password) {
		logging.L(r.Context()).Info("login failed", zap.Int64("user_id", user.ID))
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	h.respondSession(w, r, user)
}

func (h *AuthHandler) respondSession(w http.ResponseWriter, r *http.Request, user store.User) {
	token, err := h.tokens.Issue(user.ID, user.Email)
	if err != nil {
		serverError(w, r, "issue token failed", err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: user, Token: token})
}
