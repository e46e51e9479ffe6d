// Package mealdb integrates the third-party TheMealDB-compatible recipe API.
// This file implements the HTTP client. All calls are context-aware, traced
// with OpenTelemetry, and return UpstreamError for non-200 responses or
// unparsable payloads so callers can treat provider trouble uniformly.
package mealdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-recipe-backend/internal/domain"
)

// DefaultBaseURL points at TheMealDB's free tier.
const DefaultBaseURL = "https://www.themealdb.com/api/json/v1/1"

// UpstreamError wraps a provider failure (transport error, non-200 status,
// or undecodable body) with the endpoint that produced it.
type UpstreamError struct {
	Endpoint string
	Status   int
	Err      error
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("mealdb %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("mealdb %s: unexpected status %d", e.Endpoint, e.Status)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *UpstreamError) Unwrap() error { return e.Err }

// Category is one entry from the provider's category listing.
type Category struct {
	ID          string `json:"idCategory"`
	Name        string `json:"strCategory"`
	Thumbnail   string `json:"strCategoryThumb"`
	Description string `json:"strCategoryDescription"`
}

// MealRef is the slim shape returned by the category filter endpoint: an ID
// plus display hints, requiring a per-ID lookup for the full recipe.
type MealRef struct {
	ID        string `json:"idMeal"`
	Name      string `json:"strMeal"`
	Thumbnail string `json:"strMealThumb"`
}

// Client is a small, injectable HTTP client for the provider API. The zero
// value is not usable; construct with NewClient.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a Client for the given base URL (DefaultBaseURL when
// empty). A nil httpClient falls back to a client with a 10s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// SearchByName returns normalized recipes whose name matches the query.
// An empty provider result ("meals": null) yields an empty slice, not an error.
func (c *Client) SearchByName(ctx context.Context, query string) ([]domain.ExternalRecipe, error) {
	meals, err := c.fetchMeals(ctx, "search.php", url.Values{"s": {query}})
	if err != nil {
		return nil, err
	}
	return normalizeAll(meals), nil
}

// LookupByID returns the normalized recipe for a native provider ID, or nil
// when the provider has no such meal.
func (c *Client) LookupByID(ctx context.Context, nativeID string) (*domain.ExternalRecipe, error) {
	meals, err := c.fetchMeals(ctx, "lookup.php", url.Values{"i": {nativeID}})
	if err != nil {
		return nil, err
	}
	if len(meals) == 0 {
		return nil, nil
	}
	r := Normalize(meals[0])
	return &r, nil
}

// Random returns one random normalized recipe, or nil when the provider
// returns nothing.
func (c *Client) Random(ctx context.Context) (*domain.ExternalRecipe, error) {
	meals, err := c.fetchMeals(ctx, "random.php", nil)
	if err != nil {
		return nil, err
	}
	if len(meals) == 0 {
		return nil, nil
	}
	r := Normalize(meals[0])
	return &r, nil
}

// FilterByCategory returns the slim refs for a category. Full recipes require
// a LookupByID per ref; the service layer paces those calls.
func (c *Client) FilterByCategory(ctx context.Context, category string) ([]MealRef, error) {
	endpoint := "filter.php"
	body, err := c.get(ctx, endpoint, url.Values{"c": {category}})
	if err != nil {
		return nil, err
	}
	var payload struct {
		Meals []MealRef `json:"meals"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &UpstreamError{Endpoint: endpoint, Err: err}
	}
	if payload.Meals == nil {
		return []MealRef{}, nil
	}
	return payload.Meals, nil
}

// ListCategories returns the provider's category directory.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	endpoint := "categories.php"
	body, err := c.get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Categories []Category `json:"categories"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &UpstreamError{Endpoint: endpoint, Err: err}
	}
	if payload.Categories == nil {
		return []Category{}, nil
	}
	return payload.Categories, nil
}

// fetchMeals performs a GET and decodes the standard {"meals": [...]} envelope.
// The provider encodes "no results" as a JSON null meals field.
func (c *Client) fetchMeals(ctx context.Context, endpoint string, q url.Values) ([]Meal, error) {
	body, err := c.get(ctx, endpoint, q)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Meals []Meal `json:"meals"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &UpstreamError{Endpoint: endpoint, Err: err}
	}
	return payload.Meals, nil
}

// get performs a traced GET against baseURL/endpoint?q and returns the body.
func (c *Client) get(ctx context.Context, endpoint string, q url.Values) ([]byte, error) {
	tr := otel.Tracer("mealdb/Client")
	ctx, span := tr.Start(ctx, endpoint,
		trace.WithAttributes(attribute.String("mealdb.endpoint", endpoint)),
	)
	defer span.End()

	u := c.baseURL + "/" + endpoint
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &UpstreamError{Endpoint: endpoint, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &UpstreamError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Endpoint: endpoint, Status: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &UpstreamError{Endpoint: endpoint, Err: err}
	}
	return body, nil
}

// normalizeAll maps Normalize over a meal list, skipping entries without a
// native ID (a namespaced ID must always identify one provider recipe).
func normalizeAll(meals []Meal) []domain.ExternalRecipe {
	out := make([]domain.ExternalRecipe, 0, len(meals))
	for _, m := range meals {
		if strings.TrimSpace(m.ID) == "" {
			continue
		}
		out = append(out, Normalize(m))
	}
	return out
}
