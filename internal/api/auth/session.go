package auth

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kgrigsby59/courtly/internal/api/authz"
	appdb "github.com/kgrigsby59/courtly/internal/db"
	dbq "github.com/kgrigsby59/courtly/internal/db/queries"
)

const sessionTTL = 8 * time.Hour

// Sessions issues and resolves DB-backed bearer tokens. One active session per
// user: a new login invalidates earlier tokens.
type Sessions struct {
	db *appdb.DB
}

func NewSessions(database *appdb.DB) *Sessions {
	return &Sessions{db: database}
}

// Create issues a fresh token for the user, replacing any existing sessions.
func (s *Sessions) Create(ctx context.Context, userID int64) (string, time.Time, error) {
	if err := s.db.Queries.DeleteSessionsForUser(ctx, userID); err != nil {
		return "", time.Time{}, err
	}

	token := uuid.NewString()
	expiresAt := time.Now().UTC().Add(sessionTTL)
	if err := s.db.Queries.CreateSession(ctx, dbq.CreateSessionParams{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
	}); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Resolve loads the AuthUser behind a token. Unknown, expired, or orphaned
// tokens resolve to nil without error.
func (s *Sessions) Resolve(ctx context.Context, token string) (*authz.AuthUser, error) {
	if token == "" {
		return nil, nil
	}

	q := s.db.Queries
	session, err := q.GetSession(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if session.ExpiresAt.Before(time.Now().UTC()) {
		_ = q.DeleteSession(ctx, token)
		return nil, nil
	}

	user, err := q.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = q.DeleteSession(ctx, token)
			return nil, nil
		}
		return nil, err
	}

	authUser := &authz.AuthUser{UserID: user.ID, Role: user.Role}
	switch user.Role {
	case authz.RoleResident:
		resident, err := q.GetResidentByUserID(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		authUser.ResidentID = resident.ID
	case authz.RoleStaff:
		staff, err := q.GetStaffByUserID(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		authUser.StaffID = staff.ID
		authUser.IsAdmin = staff.IsAdmin
	}
	return authUser, nil
}

// Destroy invalidates a token. Destroying an unknown token is a no-op.
func (s *Sessions) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.db.Queries.DeleteSession(ctx, token)
}

// TokenFromRequest extracts the bearer token from the Authorization header.
func TokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
