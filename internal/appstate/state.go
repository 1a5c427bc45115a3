// Package appstate owns the session-wide data shared by every screen:
// the doctor directory, the session token and the user profile.
package appstate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperr "github.com/prescripto/prescripto/internal/errors"
	"github.com/prescripto/prescripto/internal/keyring"
	"github.com/prescripto/prescripto/internal/logger"
	"github.com/prescripto/prescripto/internal/models"
	"github.com/prescripto/prescripto/internal/scheduler"
)

// Backend is the part of the API the shared state needs.
type Backend interface {
	ListDoctors(ctx context.Context) ([]models.Doctor, error)
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, name, email, password string) (string, error)
	GetProfile(ctx context.Context, token string) (models.UserProfile, error)
	UpdateProfile(ctx context.Context, token string, p models.UserProfile) error
	UploadProfileImage(ctx context.Context, token, filename string, r io.Reader) (string, error)
}

// TokenStore persists the session token between runs.
type TokenStore interface {
	GetToken() (string, error)
	SetToken(token string) error
	DeleteToken() error
}

// DoctorCache keeps the last directory listing for offline use.
type DoctorCache interface {
	SaveDoctors(doctors []models.Doctor, fetchedAt time.Time) error
	CachedDoctors() ([]models.Doctor, time.Time, error)
}

type State struct {
	mu      sync.RWMutex
	backend Backend
	tokens  TokenStore
	cache   DoctorCache
	now     func() time.Time

	doctors   []models.Doctor
	fetchedAt time.Time
	offline   bool

	token      string
	profile    models.UserProfile
	hasProfile bool
}

type Option func(*State)

// WithClock sets the clock used for token expiry and cache timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

// New builds an empty state. cache may be nil.
func New(backend Backend, tokens TokenStore, cache DoctorCache, opts ...Option) *State {
	s := &State{
		backend: backend,
		tokens:  tokens,
		cache:   cache,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start restores the saved session, loads the directory (falling back to the
// local cache) and, when logged in, the profile. Only a directory that could
// be neither fetched nor read from cache is reported as an error.
func (s *State) Start(ctx context.Context) error {
	if tok, err := s.tokens.GetToken(); err == nil {
		if tokenExpired(tok, s.now()) {
			logger.Info("stored session token has expired")
			if err := s.tokens.DeleteToken(); err != nil && !errors.Is(err, keyring.ErrNotFound) {
				logger.Warn("could not remove expired session token", "error", err)
			}
		} else {
			s.mu.Lock()
			s.token = tok
			s.mu.Unlock()
		}
	} else if !errors.Is(err, keyring.ErrNotFound) {
		logger.Warn("could not read session token", "error", err)
	}

	dirErr := s.RefreshDoctors(ctx)
	if dirErr != nil && s.Offline() {
		logger.Warn("using cached doctor directory", "error", dirErr)
		dirErr = nil
	}

	if s.Authenticated() {
		if err := s.LoadProfile(ctx); err != nil {
			logger.Warn("could not load profile", "error", err)
		}
	}
	return dirErr
}

// Doctors returns the current directory.
func (s *State) Doctors() []models.Doctor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Doctor(nil), s.doctors...)
}

// Doctor looks up one doctor in the current directory.
func (s *State) Doctor(id string) (models.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scheduler.FindDoctor(s.doctors, id)
}

// DoctorsBySpeciality filters the directory; an empty speciality returns all.
func (s *State) DoctorsBySpeciality(speciality string) []models.Doctor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Doctor
	for _, d := range s.doctors {
		if speciality == "" || d.Speciality == speciality {
			out = append(out, d)
		}
	}
	return out
}

// RelatedDoctors returns other doctors sharing d's speciality.
func (s *State) RelatedDoctors(d models.Doctor) []models.Doctor {
	var out []models.Doctor
	for _, other := range s.DoctorsBySpeciality(d.Speciality) {
		if other.ID != d.ID {
			out = append(out, other)
		}
	}
	return out
}

// FetchedAt is when the current directory was fetched.
func (s *State) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}

// Offline reports whether the directory came from the local cache.
func (s *State) Offline() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.offline
}

// RefreshDoctors re-fetches the directory. On failure the previous listing
// is kept, or the cached one is loaded if nothing is held yet, and the
// fetch error is still returned.
func (s *State) RefreshDoctors(ctx context.Context) error {
	docs, err := s.backend.ListDoctors(ctx)
	if err != nil {
		s.loadCacheIfEmpty()
		return err
	}

	now := s.now()
	s.mu.Lock()
	s.doctors = docs
	s.fetchedAt = now
	s.offline = false
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.SaveDoctors(docs, now); err != nil {
			logger.Warn("failed to cache doctor directory", "error", err)
		}
	}
	return nil
}

func (s *State) loadCacheIfEmpty() {
	if s.cache == nil {
		return
	}
	s.mu.RLock()
	have := len(s.doctors) > 0
	s.mu.RUnlock()
	if have {
		return
	}

	docs, fetchedAt, err := s.cache.CachedDoctors()
	if err != nil {
		logger.Warn("failed to read doctor cache", "error", err)
		return
	}
	if len(docs) == 0 {
		return
	}

	s.mu.Lock()
	s.doctors = docs
	s.fetchedAt = fetchedAt
	s.offline = true
	s.mu.Unlock()
}

// Token returns the session token, or "" when logged out or expired.
func (s *State) Token() string {
	s.mu.RLock()
	tok := s.token
	s.mu.RUnlock()
	if tok == "" || tokenExpired(tok, s.now()) {
		return ""
	}
	return tok
}

// Authenticated reports whether a usable session token is held.
func (s *State) Authenticated() bool {
	return s.Token() != ""
}

// SetToken installs and persists a session token.
func (s *State) SetToken(token string) error {
	if token == "" {
		return errors.New("session token cannot be empty")
	}
	s.mu.Lock()
	s.token = token
	s.hasProfile = false
	s.profile = models.UserProfile{}
	s.mu.Unlock()

	if err := s.tokens.SetToken(token); err != nil {
		logger.Warn("session token not persisted", "error", err)
		return err
	}
	return nil
}

// Login authenticates and loads the profile.
func (s *State) Login(ctx context.Context, email, password string) error {
	tok, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return s.startSession(ctx, tok)
}

// Register creates an account and logs into it.
func (s *State) Register(ctx context.Context, name, email, password string) error {
	tok, err := s.backend.Register(ctx, name, email, password)
	if err != nil {
		return err
	}
	return s.startSession(ctx, tok)
}

func (s *State) startSession(ctx context.Context, tok string) error {
	if err := s.SetToken(tok); err != nil {
		// the session still works for this run
		logger.Warn("continuing with an unsaved session", "error", err)
	}
	if err := s.LoadProfile(ctx); err != nil {
		logger.Warn("could not load profile after login", "error", err)
	}
	return nil
}

// Logout forgets the session token and profile.
func (s *State) Logout() error {
	s.mu.Lock()
	s.token = ""
	s.profile = models.UserProfile{}
	s.hasProfile = false
	s.mu.Unlock()

	if err := s.tokens.DeleteToken(); err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("failed to remove session token: %w", err)
	}
	return nil
}

// Profile returns the loaded profile and whether one is loaded.
func (s *State) Profile() (models.UserProfile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile, s.hasProfile
}

// LoadProfile fetches the profile. A token the server no longer accepts
// ends the session.
func (s *State) LoadProfile(ctx context.Context) error {
	tok := s.Token()
	if tok == "" {
		return apperr.ErrNotAuthenticated
	}

	p, err := s.backend.GetProfile(ctx, tok)
	if err != nil {
		if errors.Is(err, apperr.ErrNotAuthenticated) {
			logger.Info("session rejected by server, logging out")
			if err := s.Logout(); err != nil {
				logger.Warn("could not end rejected session", "error", err)
			}
		}
		return err
	}

	s.mu.Lock()
	if s.token == tok {
		s.profile = p
		s.hasProfile = true
	}
	s.mu.Unlock()
	return nil
}

// UpdateProfile saves the editable fields and re-fetches the profile.
func (s *State) UpdateProfile(ctx context.Context, p models.UserProfile) error {
	tok := s.Token()
	if tok == "" {
		return apperr.ErrNotAuthenticated
	}
	if err := s.backend.UpdateProfile(ctx, tok, p); err != nil {
		return err
	}
	return s.LoadProfile(ctx)
}

// UploadProfileImage uploads a new profile picture and returns its URL.
func (s *State) UploadProfileImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	tok := s.Token()
	if tok == "" {
		return "", apperr.ErrNotAuthenticated
	}
	url, err := s.backend.UploadProfileImage(ctx, tok, filename, r)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if s.hasProfile {
		s.profile.Image = url
	}
	s.mu.Unlock()
	return url, nil
}

// tokenExpired reports whether tok is a JWT whose exp claim has passed.
// Tokens that are not JWTs, or carry no exp, never expire locally.
func tokenExpired(tok string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
