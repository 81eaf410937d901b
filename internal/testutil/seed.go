package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/kgrigsby59/courtly/internal/db"
	dbq "github.com/kgrigsby59/courtly/internal/db/queries"
)

var seedSeq int

func nextSeq() int {
	seedSeq++
	return seedSeq
}

// SeedResident creates a user+resident pair and returns the resident row.
// Profile fields hold plaintext; tests that exercise the crypto codec seed
// their own ciphertext.
func SeedResident(t *testing.T, database *db.DB) dbq.Resident {
	t.Helper()
	ctx := context.Background()

	user, err := database.Queries.CreateUser(ctx, dbq.CreateUserParams{
		Email:        fmt.Sprintf("resident%d@example.com", nextSeq()),
		PasswordHash: "x",
		Role:         "resident",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	resident, err := database.Queries.CreateResident(ctx, dbq.CreateResidentParams{
		UserID:    user.ID,
		FirstName: "first",
		LastName:  "last",
	})
	if err != nil {
		t.Fatalf("seed resident: %v", err)
	}
	return resident
}

// SeedStaff creates a user+staff pair.
func SeedStaff(t *testing.T, database *db.DB, isAdmin bool) dbq.Staff {
	t.Helper()
	ctx := context.Background()

	user, err := database.Queries.CreateUser(ctx, dbq.CreateUserParams{
		Email:        fmt.Sprintf("staff%d@example.com", nextSeq()),
		PasswordHash: "x",
		Role:         "staff",
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}

	staff, err := database.Queries.CreateStaff(ctx, dbq.CreateStaffParams{
		UserID:   user.ID,
		Position: "maintenance",
		IsAdmin:  isAdmin,
	})
	if err != nil {
		t.Fatalf("seed staff: %v", err)
	}
	return staff
}

// SeedFacility creates an open facility with the given capacity and default
// operating hours.
func SeedFacility(t *testing.T, database *db.DB, capacity int64) dbq.Facility {
	t.Helper()

	facility, err := database.Queries.CreateFacility(context.Background(), dbq.CreateFacilityParams{
		Name:        fmt.Sprintf("Facility %d", nextSeq()),
		Description: "seeded",
		Capacity:    capacity,
		Status:      "open",
		OpenTime:    "06:00",
		CloseTime:   "22:00",
	})
	if err != nil {
		t.Fatalf("seed facility: %v", err)
	}
	return facility
}

// AssignStaff links a staff member to a facility.
func AssignStaff(t *testing.T, database *db.DB, staffID, facilityID int64) {
	t.Helper()

	err := database.Queries.UpsertStaffFacilityAssignment(context.Background(), dbq.UpsertStaffFacilityAssignmentParams{
		StaffID:    staffID,
		FacilityID: facilityID,
	})
	if err != nil {
		t.Fatalf("assign staff: %v", err)
	}
}
