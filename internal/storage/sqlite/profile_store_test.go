package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/felixgeelhaar/caliper/internal/domain"
)

func TestProfileStoreUpsert(t *testing.T) {
	db := openTestDB(t)
	store := NewProfileStore(db)
	ctx := context.Background()

	placed := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	err := store.SaveProfile(ctx, &domain.PlacementProfile{
		UserID: "user-1", SubjectID: "math",
		Score: 60, Level: domain.DifficultyIntermediate, PlacedAt: placed,
	})
	if err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}

	// A retake replaces the previous placement.
	err = store.SaveProfile(ctx, &domain.PlacementProfile{
		UserID: "user-1", SubjectID: "math",
		Score: 90, Level: domain.DifficultyAdvanced, PlacedAt: placed.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("SaveProfile() retake error = %v", err)
	}

	got, err := store.GetProfile(ctx, "user-1", "math")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if got.Score != 90 || got.Level != domain.DifficultyAdvanced {
		t.Errorf("profile = %+v, want score 90 advanced", got)
	}
}

func TestProfileStoreNotFound(t *testing.T) {
	db := openTestDB(t)
	store := NewProfileStore(db)

	_, err := store.GetProfile(context.Background(), "user-1", "math")
	if !errors.Is(err, domain.ErrProfileNotFound) {
		t.Errorf("GetProfile() error = %v, want ErrProfileNotFound", err)
	}
}

func TestProfileStoreListByUser(t *testing.T) {
	db := openTestDB(t)
	store := NewProfileStore(db)
	ctx := context.Background()

	now := time.Now().UTC()
	for _, subject := range []string{"math", "physics"} {
		err := store.SaveProfile(ctx, &domain.PlacementProfile{
			UserID: "user-1", SubjectID: subject,
			Score: 50, Level: domain.DifficultyBeginner, PlacedAt: now,
		})
		if err != nil {
			t.Fatalf("SaveProfile(%s) error = %v", subject, err)
		}
	}

	profiles, err := store.ListUserProfiles(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListUserProfiles() error = %v", err)
	}
	if len(profiles) != 2 {
		t.Errorf("len(profiles) = %d, want 2", len(profiles))
	}
}
