package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/domain"
	"github.com/tbourn/go-recipe-backend/internal/repo"
)

// fakeRecipeRepo implements RecipeRepo with per-method hooks and records
// whether a mutation was attempted.
type fakeRecipeRepo struct {
	getFn    func(id string) (*domain.Recipe, error)
	createFn func(ownerID string, f repo.RecipeFields) (*domain.Recipe, error)
	searchFn func(query string, limit int) ([]domain.Recipe, error)

	updateCalled bool
	deleteCalled bool
	updateErr    error
	deleteErr    error
}

func (f *fakeRecipeRepo) CreateRecipe(ctx context.Context, db *gorm.DB, ownerID string, fields repo.RecipeFields) (*domain.Recipe, error) {
	if f.createFn != nil {
		return f.createFn(ownerID, fields)
	}
	return &domain.Recipe{ID: "r1", UserID: ownerID, Title: fields.Title}, nil
}

func (f *fakeRecipeRepo) GetRecipe(ctx context.Context, db *gorm.DB, id string) (*domain.Recipe, error) {
	if f.getFn != nil {
		return f.getFn(id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRecipeRepo) UpdateRecipe(ctx context.Context, db *gorm.DB, id string, fields repo.RecipeFields) error {
	f.updateCalled = true
	return f.updateErr
}

func (f *fakeRecipeRepo) DeleteRecipe(ctx context.Context, db *gorm.DB, id string) error {
	f.deleteCalled = true
	return f.deleteErr
}

func (f *fakeRecipeRepo) ListRecipesByOwner(ctx context.Context, db *gorm.DB, ownerID string) ([]domain.Recipe, error) {
	return []domain.Recipe{{ID: "r1", UserID: ownerID}}, nil
}

func (f *fakeRecipeRepo) CountRecipesByOwner(ctx context.Context, db *gorm.DB, ownerID string) (int64, error) {
	return 1, nil
}

func (f *fakeRecipeRepo) ListRecipesByOwnerPage(ctx context.Context, db *gorm.DB, ownerID string, offset, limit int) ([]domain.Recipe, error) {
	return []domain.Recipe{{ID: "r1", UserID: ownerID}}, nil
}

func (f *fakeRecipeRepo) SearchPublicRecipes(ctx context.Context, db *gorm.DB, query string, limit int) ([]domain.Recipe, error) {
	if f.searchFn != nil {
		return f.searchFn(query, limit)
	}
	return []domain.Recipe{}, nil
}

func TestRecipeCreate_RejectsEmptyTitle(t *testing.T) {
	s := NewRecipeService(nil, &fakeRecipeRepo{})

	for _, title := range []string{"", "   ", "\t\n"} {
		if _, err := s.Create(context.Background(), "u1", RecipeInput{Title: title}); !errors.Is(err, ErrEmptyTitle) {
			t.Errorf("Create(%q) err = %v; want ErrEmptyTitle", title, err)
		}
	}
}

func TestRecipeCreate_TrimsTitle(t *testing.T) {
	var got repo.RecipeFields
	f := &fakeRecipeRepo{createFn: func(ownerID string, fields repo.RecipeFields) (*domain.Recipe, error) {
		got = fields
		return &domain.Recipe{ID: "r1", UserID: ownerID, Title: fields.Title}, nil
	}}
	s := NewRecipeService(nil, f)

	r, err := s.Create(context.Background(), "u1", RecipeInput{Title: "  Moussaka  "})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got.Title != "Moussaka" || r.Title != "Moussaka" {
		t.Fatalf("title not trimmed: fields=%q result=%q", got.Title, r.Title)
	}
}

func TestRecipeGet_MapsNotFound(t *testing.T) {
	s := NewRecipeService(nil, &fakeRecipeRepo{})

	if _, err := s.Get(context.Background(), "ghost"); !errors.Is(err, ErrRecipeNotFound) {
		t.Fatalf("Get err = %v; want ErrRecipeNotFound", err)
	}
}

func TestRecipeUpdate_NonOwnerRejected(t *testing.T) {
	f := &fakeRecipeRepo{getFn: func(id string) (*domain.Recipe, error) {
		return &domain.Recipe{ID: id, UserID: "owner"}, nil
	}}
	s := NewRecipeService(nil, f)

	_, err := s.Update(context.Background(), "intruder", "r1", RecipeInput{Title: "Stolen"})
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("Update err = %v; want ErrNotOwner", err)
	}
	if f.updateCalled {
		t.Fatal("repo update must not run for a non-owner")
	}
}

func TestRecipeUpdate_OwnerSucceeds(t *testing.T) {
	f := &fakeRecipeRepo{getFn: func(id string) (*domain.Recipe, error) {
		return &domain.Recipe{ID: id, UserID: "owner", Title: "Old"}, nil
	}}
	s := NewRecipeService(nil, f)

	if _, err := s.Update(context.Background(), "owner", "r1", RecipeInput{Title: "New"}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !f.updateCalled {
		t.Fatal("repo update was not invoked")
	}
}

func TestRecipeDelete_NonOwnerRejected(t *testing.T) {
	f := &fakeRecipeRepo{getFn: func(id string) (*domain.Recipe, error) {
		return &domain.Recipe{ID: id, UserID: "owner"}, nil
	}}
	s := NewRecipeService(nil, f)

	if err := s.Delete(context.Background(), "intruder", "r1"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("Delete err = %v; want ErrNotOwner", err)
	}
	if f.deleteCalled {
		t.Fatal("repo delete must not run for a non-owner")
	}
}

func TestRecipeDelete_MissingRecipe(t *testing.T) {
	s := NewRecipeService(nil, &fakeRecipeRepo{})

	if err := s.Delete(context.Background(), "u1", "ghost"); !errors.Is(err, ErrRecipeNotFound) {
		t.Fatalf("Delete err = %v; want ErrRecipeNotFound", err)
	}
}

func TestRecipeListByOwnerPage_Defaults(t *testing.T) {
	s := NewRecipeService(nil, &fakeRecipeRepo{})

	items, total, err := s.ListByOwnerPage(context.Background(), "u1", 0, -5)
	if err != nil {
		t.Fatalf("ListByOwnerPage: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("total=%d len=%d; want 1/1", total, len(items))
	}
}

func TestRecipeSearch_PassesLimit(t *testing.T) {
	var gotLimit int
	f := &fakeRecipeRepo{searchFn: func(query string, limit int) ([]domain.Recipe, error) {
		gotLimit = limit
		return []domain.Recipe{}, nil
	}}
	s := NewRecipeService(nil, f)
	s.SearchLimit = 7

	if _, err := s.Search(context.Background(), "pasta"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if gotLimit != 7 {
		t.Fatalf("limit = %d; want 7", gotLimit)
	}
}
