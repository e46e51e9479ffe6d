package repo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/tbourn/go-recipe-backend/internal/domain"
)

func TestOpenSQLite_MissingParentDir(t *testing.T) {
	_, err := OpenSQLite(filepath.Join(t.TempDir(), "no-such-dir", "app.db"))
	if err == nil {
		t.Fatal("expected error for missing parent directory")
	}
}

func TestOpenSQLite_And_AutoMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if err := AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	// All tables usable after migration.
	ctx := context.Background()
	if _, err := CreateProfile(ctx, db, "u1", "alice"); err != nil {
		t.Fatalf("profiles table unusable: %v", err)
	}
	if _, err := CreateRecipe(ctx, db, "u1", RecipeFields{Title: "t"}); err != nil {
		t.Fatalf("recipes table unusable: %v", err)
	}
	if _, err := CreateSavedRecipe(ctx, db, "u1", "r1"); err != nil {
		t.Fatalf("saved_recipes table unusable: %v", err)
	}
	if _, err := CreateSavedExternalRecipe(ctx, db, "u1", domain.ExternalRecipe{ID: "mealdb-1"}); err != nil {
		t.Fatalf("saved_external_recipes table unusable: %v", err)
	}
}
