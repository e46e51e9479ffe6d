// Package domain defines the persistence models for profiles, recipes, and
// saved-recipe bookmarks. These types are mapped with GORM and form the core
// data layer of the recipe application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Profile is the application-level user record, keyed one-to-one by the
// identity issued by the external auth provider. Profiles are created lazily
// on first sign-in (see services.ProfileService) and never deleted here.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identity of the owner; unique, so at most one profile exists
//     per authenticated user.
//   - Username: display name, derived from the best available hint at
//     creation time and upgradable when an explicit name arrives later.
//   - ProfileImageURL / Bio: optional, set via settings and image upload.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type Profile struct {
	ID              string    `json:"id"                gorm:"type:char(36);primaryKey"`
	UserID          string    `json:"user_id"           gorm:"type:varchar(64);not null;uniqueIndex:ux_profile_user"`
	Username        string    `json:"username"          gorm:"type:varchar(64);not null"`
	ProfileImageURL string    `json:"profile_image_url" gorm:"type:varchar(512)"`
	Bio             string    `json:"bio"               gorm:"type:text"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName returns the database table name for Profile.
func (Profile) TableName() string { return "profiles" }

// Recipe represents a recipe authored by a local user. Ingredients and steps
// are ordered string lists serialized as JSON in a single column (see
// StringList), which keeps the schema flat and the lists atomic with the row.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: identifier of the recipe owner; immutable after creation and
//     enforced by the service layer on every mutation.
//   - Title / Description / ImageURL: presentation fields; Title is required.
//   - Ingredients / Steps: ordered lists, order preserved exactly as authored.
//   - CookingTime: minutes, integer.
//   - IsPublic: whether the recipe is visible to search by other users.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker; owner-initiated deletes are hard
//     deletes (Unscoped), the column exists for schema compatibility with
//     GORM's default query scoping.
type Recipe struct {
	ID          string         `json:"id"           gorm:"type:char(36);primaryKey"`
	UserID      string         `json:"user_id"      gorm:"type:varchar(64);not null;index:idx_user_recipes"`
	Title       string         `json:"title"        gorm:"type:varchar(255);not null"`
	Description string         `json:"description"  gorm:"type:text"`
	ImageURL    string         `json:"image_url"    gorm:"type:varchar(512)"`
	Ingredients StringList     `json:"ingredients"  gorm:"type:text"`
	Steps       StringList     `json:"steps"        gorm:"type:text"`
	CookingTime int            `json:"cooking_time" gorm:"not null;default:0"`
	IsPublic    bool           `json:"is_public"    gorm:"not null;default:false;index"`
	CreatedAt   time.Time      `json:"created_at"   gorm:"index"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-"            gorm:"index"`

	// SavedAt is populated only when the recipe is materialized through the
	// saved-list aggregator; it carries the bookmark's creation time.
	SavedAt *time.Time `json:"saved_at,omitempty" gorm:"-"`
}

// TableName returns the database table name for Recipe.
func (Recipe) TableName() string { return "recipes" }

// SavedRecipe is a bookmark of a locally authored recipe. A user can save a
// given recipe at most once (enforced by unique index). The referenced recipe
// may be deleted by its owner at any time; the aggregator silently drops
// bookmarks whose target no longer exists.
type SavedRecipe struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"   gorm:"type:varchar(64);not null;index;uniqueIndex:ux_saved_user_recipe"`
	RecipeID  string    `json:"recipe_id" gorm:"type:char(36);not null;uniqueIndex:ux_saved_user_recipe"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for SavedRecipe.
func (SavedRecipe) TableName() string { return "saved_recipes" }

// SavedExternalRecipe is a bookmark of a third-party recipe. The full recipe
// is denormalized into RecipeData at save time; the snapshot is authoritative
// from then on and never refreshed from the upstream API. A user can save a
// given external recipe at most once (enforced by unique index), keyed by the
// namespaced external ID, which cannot collide with local UUIDs.
type SavedExternalRecipe struct {
	ID               string         `json:"id"                 gorm:"type:char(36);primaryKey"`
	UserID           string         `json:"user_id"            gorm:"type:varchar(64);not null;index;uniqueIndex:ux_saved_user_external"`
	ExternalRecipeID string         `json:"external_recipe_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_saved_user_external"`
	RecipeData       ExternalRecipe `json:"recipe_data"        gorm:"type:text;serializer:json"`
	CreatedAt        time.Time      `json:"created_at"`
}

// TableName returns the database table name for SavedExternalRecipe.
func (SavedExternalRecipe) TableName() string { return "saved_external_recipes" }

// ExternalRecipe is a recipe sourced from the third-party API, normalized
// into the application shape. It is transient: never persisted on its own,
// only embedded as the snapshot inside SavedExternalRecipe.
//
// ID carries a fixed namespace prefix in front of the provider's native
// identifier so it can never collide with a store-generated local recipe ID.
type ExternalRecipe struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category,omitempty"`
	Area        string     `json:"area,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	SourceURL   string     `json:"source_url,omitempty"`
	VideoURL    string     `json:"video_url,omitempty"`
	Ingredients []string   `json:"ingredients"`
	Steps       []string   `json:"steps"`
	CookingTime int        `json:"cooking_time"`
	IsExternal  bool       `json:"is_external"`
	SavedAt     *time.Time `json:"saved_at,omitempty"`
}
