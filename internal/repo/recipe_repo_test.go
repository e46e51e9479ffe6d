package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-recipe-backend/internal/domain"
)

func newRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func TestCreateRecipe_Error_NoTable(t *testing.T) {
	db := newRepoDB(t /* no migrations */)
	r, err := CreateRecipe(context.Background(), db, "u1", RecipeFields{Title: "t"})
	if err == nil || r != nil {
		t.Fatalf("expected error creating without table, got recipe=%v err=%v", r, err)
	}
}

func TestCreateRecipe_Success_PersistsAndSetsFields(t *testing.T) {
	db := newRepoDB(t, &domain.Recipe{})

	start := time.Now().UTC().Add(-time.Minute)
	r, err := CreateRecipe(context.Background(), db, "u1", RecipeFields{
		Title:       "Moussaka",
		Description: "Layered eggplant bake",
		Ingredients: []string{"2 eggplants", "500g lamb mince"},
		Steps:       []string{"Slice the eggplant", "Brown the mince"},
		CookingTime: 90,
		IsPublic:    true,
	})
	if err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}
	if r.ID == "" || r.UserID != "u1" || r.Title != "Moussaka" {
		t.Fatalf("unexpected Recipe fields: %+v", r)
	}
	if r.CreatedAt.Before(start) || !r.CreatedAt.Equal(r.UpdatedAt) {
		t.Fatalf("timestamps not stamped together: created=%v updated=%v", r.CreatedAt, r.UpdatedAt)
	}

	got, err := GetRecipe(context.Background(), db, r.ID)
	if err != nil {
		t.Fatalf("GetRecipe: %v", err)
	}
	if len(got.Ingredients) != 2 || got.Ingredients[0] != "2 eggplants" {
		t.Fatalf("ingredients not round-tripped: %v", got.Ingredients)
	}
	if len(got.Steps) != 2 || got.Steps[1] != "Brown the mince" {
		t.Fatalf("steps not round-tripped: %v", got.Steps)
	}
}

func TestGetRecipe_NotFound(t *testing.T) {
	db := newRepoDB(t, &domain.Recipe{})
	if _, err := GetRecipe(context.Background(), db, "nope"); err != ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUpdateRecipe_OverwritesFieldsAndStampsUpdatedAt(t *testing.T) {
	db := newRepoDB(t, &domain.Recipe{})
	ctx := context.Background()

	r, err := CreateRecipe(ctx, db, "u1", RecipeFields{Title: "Old", CookingTime: 10})
	if err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}

	err = UpdateRecipe(ctx, db, r.ID, RecipeFields{
		Title:       "New",
		Description: "richer",
		Ingredients: []string{"1 onion"},
		CookingTime: 25,
		IsPublic:    true,
	})
	if err != nil {
		t.Fatalf("UpdateRecipe: %v", err)
	}

	got, err := GetRecipe(ctx, db, r.ID)
	if err != nil {
		t.Fatalf("GetRecipe: %v", err)
	}
	if got.Title != "New" || got.CookingTime != 25 || !got.IsPublic {
		t.Fatalf("fields not overwritten: %+v", got)
	}
	if got.UserID != "u1" {
		t.Fatalf("owner must be immutable, got %q", got.UserID)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Fatalf("updated_at not advanced: created=%v updated=%v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestUpdateRecipe_NotFound(t *testing.T) {
	db := newRepoDB(t, &domain.Recipe{})
	if err := UpdateRecipe(context.Background(), db, "missing", RecipeFields{Title: "x"}); err != ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestDeleteRecipe_HardDeletes(t *testing.T) {
	db := newRepoDB(t, &domain.Recipe{})
	ctx := context.Background()

	r, err := CreateRecipe(ctx, db, "u1", RecipeFields{Title: "Gone soon"})
	if err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}
	if err := DeleteRecipe(ctx, db, r.ID); err != nil {
		t.Fatalf("DeleteRecipe: %v", err)
	}
	if _, err := GetRecipe(ctx, db, r.ID); err != ErrNotFound {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}

	// Row must be gone even from unscoped queries (hard delete, no tombstone).
	var n int64
	if err := db.Unscoped().Model(&domain.Recipe{}).Where("id = ?", r.ID).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 rows after hard delete, got %d", n)
	}

	if err := DeleteRecipe(ctx, db, r.ID); err != ErrNotFound {
		t.Fatalf("second delete: want ErrNotFound, got %v", err)
	}
}

func TestListRecipesByOwner_NewestFirst(t *testing.T) {
	db := newRepoDB(t, &domain.Recipe{})
	ctx := context.Background()

	for i, title := range []string{"first", "second", "third"} {
		r := &domain.Recipe{
			ID:        fmt.Sprintf("r%d", i),
			UserID:    "u1",
			Title:     title,
			CreatedAt: time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC),
			UpdatedAt: time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC),
		}
		if err := db.Create(r).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	// Recipe by someone else must not leak in.
	if err := db.Create(&domain.Recipe{ID: "rx", UserID: "u2", Title: "other"}).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	out, err := ListRecipesByOwner(ctx, db, "u1")
	if err != nil {
		t.Fatalf("ListRecipesByOwner: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("want 3 recipes, got %d", len(out))
	}
	if out[0].Title != "third" || out[2].Title != "first" {
		t.Fatalf("not newest-first: %v, %v, %v", out[0].Title, out[1].Title, out[2].Title)
	}
}

func TestGetRecipesByIDs_BulkAndEmpty(t *testing.T) {
	db := newRepoDB(t, &domain.Recipe{})
	ctx := context.Background()

	a, _ := CreateRecipe(ctx, db, "u1", RecipeFields{Title: "a"})
	b, _ := CreateRecipe(ctx, db, "u1", RecipeFields{Title: "b"})

	out, err := GetRecipesByIDs(ctx, db, []string{a.ID, b.ID, "missing"})
	if err != nil {
		t.Fatalf("GetRecipesByIDs: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("want 2 rows (missing silently skipped), got %d", len(out))
	}

	empty, err := GetRecipesByIDs(ctx, db, nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty input: want empty slice, got %v err=%v", empty, err)
	}
}

func TestSearchPublicRecipes(t *testing.T) {
	db := newRepoDB(t, &domain.Recipe{})
	ctx := context.Background()

	seed := []domain.Recipe{
		{ID: "r1", UserID: "u1", Title: "Spicy Chicken Curry", IsPublic: true, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "r2", UserID: "u2", Title: "Pasta", Description: "with chicken stock", IsPublic: true, CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{ID: "r3", UserID: "u3", Title: "Secret chicken pie", IsPublic: false, CreatedAt: time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)},
	}
	for i := range seed {
		if err := db.Create(&seed[i]).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	out, err := SearchPublicRecipes(ctx, db, "CHICKEN", 50)
	if err != nil {
		t.Fatalf("SearchPublicRecipes: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("want 2 public matches, got %d", len(out))
	}
	// Newest first; private r3 excluded despite matching.
	if out[0].ID != "r2" || out[1].ID != "r1" {
		t.Fatalf("wrong order/content: %v, %v", out[0].ID, out[1].ID)
	}

	none, err := SearchPublicRecipes(ctx, db, "   ", 50)
	if err != nil || len(none) != 0 {
		t.Fatalf("blank query: want empty result, got %v err=%v", none, err)
	}
}
