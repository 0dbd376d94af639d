package handlers

import (
	"net/http"
	"strings"

	"github.com/gitport/gitport/internal/auth"
	"github.com/gitport/gitport/internal/models"
)

type signupRequest struct {
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	FirstName   *string `json:"firstName,omitempty"`
	LastName    *string `json:"lastName,omitempty"`
	CompanyName *string `json:"companyName,omitempty"`
}

// Signup creates a new account with default settings. Passwords are
// bcrypt-hashed; the hash never appears in any response.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.sendError(w, ErrInvalidJSON)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		h.sendError(w, ErrMissingField.WithField("email"))
		return
	}
	if !strings.Contains(email, "@") {
		h.sendError(w, ErrInvalidField.WithField("email").WithDetails("not a valid email address"))
		return
	}
	if req.Password == "" {
		h.sendError(w, ErrMissingField.WithField("password"))
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.sendError(w, ErrInvalidField.WithField("password").WithDetails(err.Error()))
		return
	}

	var name *string
	if req.FirstName != nil || req.LastName != nil {
		full := strings.TrimSpace(strings.TrimSpace(deref(req.FirstName)) + " " + strings.TrimSpace(deref(req.LastName)))
		if full != "" {
			name = &full
		}
	}

	user := &models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		CompanyName:  req.CompanyName,
	}
	if err := h.db.CreateUser(r.Context(), user); err != nil {
		h.sendDomainError(w, r, err)
		return
	}

	h.logger.Info("user signed up", "user_id", user.ID)
	h.sendJSON(w, http.StatusCreated, map[string]any{
		"message": "Account created successfully",
		"user":    user,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and issues a session token, both in the
// response body and as an HTTP-only cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.decodeJSON(r, &req); err != nil {
		h.sendError(w, ErrInvalidJSON)
		return
	}
	if req.Email == "" || req.Password == "" {
		h.sendError(w, ErrInvalidCredentials)
		return
	}

	user, err := h.db.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		// a missing account and a wrong password look the same
		h.sendError(w, ErrInvalidCredentials)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		h.sendError(w, ErrInvalidCredentials)
		return
	}

	token, err := h.jwtManager.GenerateToken(user)
	if err != nil {
		h.sendDomainError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.sendJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  user,
	})
}

// GetCurrentUser returns the authenticated user's profile.
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserIDFromContext(r.Context())

	user, err := h.db.GetUserByID(r.Context(), userID)
	if err != nil {
		h.sendDomainError(w, r, err)
		return
	}

	h.sendJSON(w, http.StatusOK, map[string]any{"user": user})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
