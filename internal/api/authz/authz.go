package authz

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

const (
	RoleResident = "resident"
	RoleStaff    = "staff"
)

// AuthUser is the authenticated identity attached to the request context by
// the auth middleware. ResidentID/StaffID are only meaningful for the matching
// role.
type AuthUser struct {
	UserID     int64
	Role       string
	ResidentID int64
	StaffID    int64
	IsAdmin    bool
}

type userContextKey struct{}

func ContextWithUser(ctx context.Context, user *AuthUser) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// UserFromContext retrieves the AuthUser stored in ctx.
// It returns nil if ctx is nil, if no user is stored, or if the stored value
// has a different type.
func UserFromContext(ctx context.Context) *AuthUser {
	if ctx == nil {
		return nil
	}

	user, ok := ctx.Value(userContextKey{}).(*AuthUser)
	if !ok {
		return nil
	}

	return user
}

func IsStaff(user *AuthUser) bool {
	return user != nil && user.Role == RoleStaff
}

func IsResident(user *AuthUser) bool {
	return user != nil && user.Role == RoleResident
}

// RequireStaff returns ErrUnauthenticated when no user is present and
// ErrForbidden when the user is not staff.
func RequireStaff(ctx context.Context) (*AuthUser, error) {
	user := UserFromContext(ctx)
	if user == nil {
		return nil, ErrUnauthenticated
	}
	if !IsStaff(user) {
		return nil, ErrForbidden
	}
	return user, nil
}

func RequireResident(ctx context.Context) (*AuthUser, error) {
	user := UserFromContext(ctx)
	if user == nil {
		return nil, ErrUnauthenticated
	}
	if !IsResident(user) {
		return nil, ErrForbidden
	}
	return user, nil
}

// Scope is the set of facility IDs a staff member may act on. All is the
// admin sentinel: no filtering applies upstream.
type Scope struct {
	All         bool
	FacilityIDs []int64
}

// Empty reports whether the scope covers no facilities. Callers must treat an
// empty scope as an empty result collection, not an error.
func (s Scope) Empty() bool {
	return !s.All && len(s.FacilityIDs) == 0
}

func (s Scope) Contains(facilityID int64) bool {
	if s.All {
		return true
	}
	for _, id := range s.FacilityIDs {
		if id == facilityID {
			return true
		}
	}
	return false
}

// AssignmentStore is the slice of the query layer the visibility filter needs.
type AssignmentStore interface {
	ListAssignedFacilityIDs(ctx context.Context, staffID int64) ([]int64, error)
}

// ScopedFacilityIDs computes the facility scope for a staff user. Admins get
// the All sentinel without touching storage. Assignments are re-read on every
// call; scopes must never be cached across requests. A storage failure
// propagates as an error, never as All.
func ScopedFacilityIDs(ctx context.Context, store AssignmentStore, user *AuthUser) (Scope, error) {
	if user == nil {
		return Scope{}, ErrUnauthenticated
	}
	if !IsStaff(user) {
		return Scope{}, ErrForbidden
	}
	if user.IsAdmin {
		return Scope{All: true}, nil
	}

	ids, err := store.ListAssignedFacilityIDs(ctx, user.StaffID)
	if err != nil {
		return Scope{}, fmt.Errorf("list staff facility assignments: %w", err)
	}
	return Scope{FacilityIDs: ids}, nil
}

// RequireFacilityAccess verifies that the user may act on the given facility.
// Residents pass; non-admin staff must hold an assignment for it.
func RequireFacilityAccess(ctx context.Context, store AssignmentStore, facilityID int64) error {
	user := UserFromContext(ctx)
	if user == nil {
		return ErrUnauthenticated
	}
	if !IsStaff(user) {
		return nil
	}

	scope, err := ScopedFacilityIDs(ctx, store, user)
	if err != nil {
		return err
	}
	if !scope.Contains(facilityID) {
		return ErrForbidden
	}
	return nil
}
