// Package services – ProfileService
//
// This file implements the ProfileService, which guarantees that every
// authenticated identity has exactly one profile row. Profiles are created
// lazily: the first sign-in (or registration) that lacks one triggers
// creation, using the best display-name hint available at that moment.
//
// The bootstrap runs on two paths with different failure semantics:
//   - EnsureProfile propagates store errors, letting the caller retry or
//     surface a message (used on registration, where the explicit username
//     must not be lost silently).
//   - EnsureProfileAsync runs in the background after sign-in, waits out a
//     short session-propagation delay, and logs failures instead of
//     returning them — a missing profile must never abort a login.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-recipe-backend/internal/auth"
	"github.com/tbourn/go-recipe-backend/internal/domain"
	"github.com/tbourn/go-recipe-backend/internal/repo"
	"github.com/tbourn/go-recipe-backend/internal/sysutil"
)

const (
	// fallbackUsername is the generic label used when no hint is available.
	fallbackUsername = "chef"

	// defaultSettleDelay gives the auth provider time to propagate a fresh
	// session before the background bootstrap queries the store. Without it
	// the first write after sign-up occasionally races the provider's own
	// bookkeeping and fails row-level policy checks.
	defaultSettleDelay = 1500 * time.Millisecond

	usernameMaxLen = 40
)

// ProfileService owns profile bootstrap and settings updates.
type ProfileService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB

	// SettleDelay is how long the async path waits before touching the
	// store. Zero means defaultSettleDelay; negative disables the wait.
	SettleDelay time.Duration
}

// NewProfileService constructs a ProfileService with the default settle delay.
func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{DB: db, SettleDelay: defaultSettleDelay}
}

// EnsureProfile guarantees a profile row exists for the identity and returns
// it. candidateUsername is the highest-priority display-name hint the caller
// has (an explicit registration name); lower-priority hints are read from the
// identity's provider metadata, then the email local part, then a generic
// fallback.
//
// Behavior:
//   - absent profile: insert one with the chosen username
//   - concurrent insert race: the unique index rejects the loser, which
//     re-reads and returns the winning row — never a duplicate error
//   - present profile with a weaker stored name: when an explicit candidate
//     arrives later (registration name after an earlier fallback-created
//     row), the username is upgraded; otherwise the row is left untouched
func (s *ProfileService) EnsureProfile(ctx context.Context, identity auth.Identity, candidateUsername string) (*domain.Profile, error) {
	candidate := normalizeUsername(candidateUsername)
	username := sysutil.FirstNonEmpty(
		candidate,
		normalizeUsername(identity.MetadataHint("username")),
		normalizeUsername(identity.MetadataHint("full_name", "name")),
		usernameFromEmail(identity.Email),
		fallbackUsername,
	)

	existing, err := repo.GetProfileByUserID(ctx, s.DB, identity.UserID)
	switch {
	case err == nil:
		// An explicit candidate upgrades a weaker stored name.
		if candidate != "" && existing.Username != candidate {
			if uerr := repo.UpdateProfileUsername(ctx, s.DB, identity.UserID, candidate); uerr != nil {
				return nil, uerr
			}
			existing.Username = candidate
		}
		return existing, nil

	case errors.Is(err, repo.ErrNotFound):
		created, cerr := repo.CreateProfile(ctx, s.DB, identity.UserID, username)
		if cerr == nil {
			return created, nil
		}
		if errors.Is(cerr, repo.ErrDuplicate) {
			// Lost the race; the winner's row is authoritative.
			return repo.GetProfileByUserID(ctx, s.DB, identity.UserID)
		}
		return nil, cerr

	default:
		return nil, err
	}
}

// EnsureProfileAsync runs EnsureProfile in the background after the settle
// delay. Errors are logged, never returned: the caller's sign-in flow has
// already succeeded and must not be disturbed. The returned channel closes
// when the attempt finishes, which keeps the task observable in tests.
func (s *ProfileService) EnsureProfileAsync(identity auth.Identity, candidateUsername string) <-chan struct{} {
	done := make(chan struct{})
	delay := s.SettleDelay
	if delay == 0 {
		delay = defaultSettleDelay
	}

	go func() {
		defer close(done)
		if delay > 0 {
			time.Sleep(delay)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if _, err := s.EnsureProfile(ctx, identity, candidateUsername); err != nil {
			log.Warn().
				Err(err).
				Str("user_id", identity.UserID).
				Msg("background profile bootstrap failed")
		}
	}()
	return done
}

// Get returns the user's profile or ErrProfileNotFound.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	p, err := repo.GetProfileByUserID(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	return p, err
}

// UpdateSettings overwrites the user's username and bio. A blank username is
// rejected by falling back to the stored one.
func (s *ProfileService) UpdateSettings(ctx context.Context, userID, username, bio string) (*domain.Profile, error) {
	username = normalizeUsername(username)
	existing, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if username == "" {
		username = existing.Username
	}
	if err := repo.UpdateProfile(ctx, s.DB, userID, username, strings.TrimSpace(bio)); err != nil {
		return nil, err
	}
	existing.Username = username
	existing.Bio = strings.TrimSpace(bio)
	return existing, nil
}

// SetImageURL stores the public URL of a freshly uploaded avatar.
func (s *ProfileService) SetImageURL(ctx context.Context, userID, url string) error {
	err := repo.UpdateProfileImageURL(ctx, s.DB, userID, url)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrProfileNotFound
	}
	return err
}

// usernameTitle title-cases a name derived from an email local part.
var usernameTitle = cases.Title(language.Und)

// usernameFromEmail derives a display name from the address local part, e.g.
// "jane.doe@example.com" -> "Jane Doe". Returns "" for unusable input.
func usernameFromEmail(email string) string {
	at := strings.IndexByte(email, '@')
	if at <= 0 {
		return ""
	}
	local := email[:at]
	local = strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(local)
	local = normalizeUsername(local)
	if local == "" {
		return ""
	}
	return usernameTitle.String(local)
}

// usernameWhitespaceRE collapses consecutive whitespace to a single space.
var usernameWhitespaceRE = regexp.MustCompile(`\s+`)

// normalizeUsername trims, collapses whitespace, and clips by rune length.
func normalizeUsername(s string) string {
	s = usernameWhitespaceRE.ReplaceAllString(strings.TrimSpace(s), " ")
	if utf8.RuneCountInString(s) > usernameMaxLen {
		s = string([]rune(s)[:usernameMaxLen])
	}
	return s
}
