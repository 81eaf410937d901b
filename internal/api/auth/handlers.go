// Package auth implements resident registration, login, and session handling.
package auth

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"

	"github.com/kgrigsby59/courtly/internal/api/apiutil"
	"github.com/kgrigsby59/courtly/internal/api/authz"
	"github.com/kgrigsby59/courtly/internal/crypto"
	appdb "github.com/kgrigsby59/courtly/internal/db"
	dbq "github.com/kgrigsby59/courtly/internal/db/queries"
	"github.com/kgrigsby59/courtly/internal/ratelimit"
)

const (
	minPasswordLength  = 8
	defaultPhoneRegion = "US"
)

type Handler struct {
	db       *appdb.DB
	sessions *Sessions
	limiter  *ratelimit.Limiter
	codec    *crypto.Codec
}

func NewHandler(database *appdb.DB, sessions *Sessions, limiter *ratelimit.Limiter, codec *crypto.Codec) *Handler {
	return &Handler{db: database, sessions: sessions, limiter: limiter, codec: codec}
}

type registerRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Phone     *string `json:"phone"`
	Unit      *string `json:"unit"`
}

type registerResponse struct {
	UserID     int64  `json:"user_id"`
	ResidentID int64  `json:"resident_id"`
	Email      string `json:"email"`
}

// HandleRegister creates a resident account. Names and phone are encrypted
// before they touch the database.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.RespondError(w, r, apiutil.Invalid("Invalid request body"))
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		apiutil.RespondError(w, r, apiutil.FieldError{Field: "email", Reason: "must be a valid email address"})
		return
	}
	if len(req.Password) < minPasswordLength {
		apiutil.RespondError(w, r, apiutil.FieldError{Field: "password", Reason: "must be at least 8 characters"})
		return
	}
	if strings.TrimSpace(req.FirstName) == "" {
		apiutil.RespondError(w, r, apiutil.FieldError{Field: "first_name", Reason: "is required"})
		return
	}
	if strings.TrimSpace(req.LastName) == "" {
		apiutil.RespondError(w, r, apiutil.FieldError{Field: "last_name", Reason: "is required"})
		return
	}

	var phone *string
	if req.Phone != nil && strings.TrimSpace(*req.Phone) != "" {
		parsed, err := phonenumbers.Parse(*req.Phone, defaultPhoneRegion)
		if err != nil || !phonenumbers.IsValidNumber(parsed) {
			apiutil.RespondError(w, r, apiutil.FieldError{Field: "phone", Reason: "must be a valid phone number"})
			return
		}
		formatted := phonenumbers.Format(parsed, phonenumbers.E164)
		phone = &formatted
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		apiutil.RespondError(w, r, apiutil.Internal("Failed to hash password", err))
		return
	}

	encFirst, err := h.codec.Encrypt(strings.TrimSpace(req.FirstName))
	if err != nil {
		apiutil.RespondError(w, r, apiutil.Internal("Failed to encrypt profile", err))
		return
	}
	encLast, err := h.codec.Encrypt(strings.TrimSpace(req.LastName))
	if err != nil {
		apiutil.RespondError(w, r, apiutil.Internal("Failed to encrypt profile", err))
		return
	}
	var encPhone sql.NullString
	if phone != nil {
		encrypted, err := h.codec.Encrypt(*phone)
		if err != nil {
			apiutil.RespondError(w, r, apiutil.Internal("Failed to encrypt profile", err))
			return
		}
		encPhone = sql.NullString{String: encrypted, Valid: true}
	}

	ctx := r.Context()
	var user dbq.User
	var resident dbq.Resident
	err = h.db.RunInTx(ctx, func(txdb *appdb.DB) error {
		q := txdb.Queries

		if _, err := q.GetUserByEmail(ctx, req.Email); err == nil {
			return apiutil.Conflict(apiutil.ReasonDuplicate, "An account with this email already exists")
		} else if !errors.Is(err, sql.ErrNoRows) {
			return apiutil.Internal("Failed to check existing account", err)
		}

		var err error
		user, err = q.CreateUser(ctx, dbq.CreateUserParams{
			Email:        req.Email,
			PasswordHash: hash,
			Role:         authz.RoleResident,
		})
		if err != nil {
			return apiutil.Internal("Failed to create account", err)
		}

		resident, err = q.CreateResident(ctx, dbq.CreateResidentParams{
			UserID:    user.ID,
			FirstName: encFirst,
			LastName:  encLast,
			Phone:     encPhone,
			Unit:      apiutil.ToNullString(req.Unit),
		})
		if err != nil {
			return apiutil.Internal("Failed to create resident profile", err)
		}
		return nil
	})
	if err != nil {
		apiutil.RespondError(w, r, err)
		return
	}

	apiutil.RespondCreated(w, "Account created", registerResponse{
		UserID:     user.ID,
		ResidentID: resident.ID,
		Email:      user.Email,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	UserID    int64     `json:"user_id"`
	Role      string    `json:"role"`
}

// HandleLogin verifies credentials and issues a bearer token. Attempts are
// rate limited per account and per client IP.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.RespondError(w, r, apiutil.Invalid("Invalid request body"))
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		apiutil.RespondError(w, r, apiutil.Invalid("Email and password are required"))
		return
	}

	ip := ratelimit.GetClientIP(r)
	if result := h.limiter.CheckLogin(req.Email, ip); !result.Allowed {
		ratelimit.LogRateLimitExceeded(req.Email, ip, result.Reason)
		apiutil.RespondError(w, r, apiutil.RequestError{
			Status:  http.StatusTooManyRequests,
			Reason:  apiutil.ReasonForbidden,
			Message: "Too many login attempts, try again later",
		})
		return
	}

	ctx := r.Context()
	user, err := h.db.Queries.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.limiter.RecordFailure(req.Email, ip)
			apiutil.RespondError(w, r, invalidCredentials())
			return
		}
		apiutil.RespondError(w, r, apiutil.Internal("Failed to load account", err))
		return
	}

	if !VerifyPassword(user.PasswordHash, req.Password) {
		h.limiter.RecordFailure(req.Email, ip)
		apiutil.RespondError(w, r, invalidCredentials())
		return
	}
	h.limiter.Reset(req.Email)

	token, expiresAt, err := h.sessions.Create(ctx, user.ID)
	if err != nil {
		apiutil.RespondError(w, r, apiutil.Internal("Failed to create session", err))
		return
	}

	apiutil.RespondOK(w, "Logged in", loginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		UserID:    user.ID,
		Role:      user.Role,
	})
}

// HandleLogout invalidates the presented token. Logging out without a valid
// token still succeeds.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	token := TokenFromRequest(r)
	if err := h.sessions.Destroy(r.Context(), token); err != nil {
		apiutil.RespondError(w, r, apiutil.Internal("Failed to end session", err))
		return
	}
	apiutil.RespondOK(w, "Logged out", nil)
}

func invalidCredentials() apiutil.RequestError {
	return apiutil.RequestError{
		Status:  http.StatusUnauthorized,
		Reason:  apiutil.ReasonForbidden,
		Message: "Invalid email or password",
	}
}
