// Package services defines the business logic for profiles, recipes, saved
// lists, and dual-source search. This file centralizes common service-level
// error values so that they can be consistently returned by service methods
// and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

var (
	// ErrEmptyTitle is returned when a recipe is created or updated without
	// a title.
	ErrEmptyTitle = errors.New("recipe title is empty")

	// ErrRecipeNotFound indicates that the requested recipe does not exist.
	ErrRecipeNotFound = errors.New("recipe not found")

	// ErrNotOwner is returned when a mutation is attempted by an identity
	// other than the recipe's author.
	ErrNotOwner = errors.New("recipe does not belong to this user")

	// ErrProfileNotFound indicates that the user has no profile row yet.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrSaveNotFound is returned when an unsave targets a bookmark that
	// does not exist.
	ErrSaveNotFound = errors.New("saved recipe not found")

	// ErrInvalidExternalRecipe is returned when an external save carries no
	// namespaced identifier.
	ErrInvalidExternalRecipe = errors.New("external recipe has no id")

	// ErrNoExternalSource is returned by provider-only operations when no
	// external source is configured.
	ErrNoExternalSource = errors.New("no external recipe source configured")
)
