// Package storage is the credential store: typed access to the access/refresh credential pair,
// the cached session identity and the per-appeal rating cache on top of a key-value Repo.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jrsteele09/go-appeals-client/apimodel"
	"github.com/jrsteele09/go-appeals-client/credentials"
	apperrors "github.com/jrsteele09/go-appeals-client/internal/errors"
	"github.com/rs/zerolog/log"
)

// Logical keys persisted by the Service.
const (
	KeyAccessToken   = "access_token"
	KeyRefreshToken  = "refresh_token"
	KeyUserData      = "user_data"
	KeyAppealRatings = "appeal_ratings"
)

// Service applies the failure policy of the credential store:
//   - reads never fail, a broken store reads as "absent"
//   - credential pair writes fail loudly and never leave half a pair behind
//   - identity and rating writes are logged and swallowed
type Service struct {
	repo Repo

	// ratingsLock serializes the read-modify-write of the ratings blob
	ratingsLock sync.Mutex
}

func New(repo Repo) *Service {
	return &Service{repo: repo}
}

func (s *Service) read(ctx context.Context, key string) (string, bool) {
	v, err := s.repo.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Warn().Err(err).Str("key", key).Msg("storage read failed, treating as absent")
		}
		return "", false
	}
	if v == "" {
		return "", false
	}
	return v, true
}

// AccessToken returns the stored access credential.
func (s *Service) AccessToken(ctx context.Context) (string, bool) {
	return s.read(ctx, KeyAccessToken)
}

// RefreshToken returns the stored refresh credential.
func (s *Service) RefreshToken(ctx context.Context) (string, bool) {
	return s.read(ctx, KeyRefreshToken)
}

// Tokens returns the stored pair only when both halves are present.
func (s *Service) Tokens(ctx context.Context) (credentials.Pair, bool) {
	access, ok := s.AccessToken(ctx)
	if !ok {
		return credentials.Pair{}, false
	}
	refresh, ok := s.RefreshToken(ctx)
	if !ok {
		return credentials.Pair{}, false
	}
	return credentials.Pair{Access: access, Refresh: refresh}, true
}

// SetTokens persists both credentials. If either write fails the pair is removed so
// that a reader never observes only one half.
func (s *Service) SetTokens(ctx context.Context, access, refresh string) error {
	pair := credentials.Pair{Access: access, Refresh: refresh}
	if err := pair.Validate(); err != nil {
		return err
	}

	if err := s.repo.Set(ctx, KeyAccessToken, access); err != nil {
		s.rollbackTokens(ctx)
		return apperrors.Wrapf(err, "[storage.SetTokens] store access token")
	}
	if err := s.repo.Set(ctx, KeyRefreshToken, refresh); err != nil {
		s.rollbackTokens(ctx)
		return apperrors.Wrapf(err, "[storage.SetTokens] store refresh token")
	}
	return nil
}

func (s *Service) rollbackTokens(ctx context.Context) {
	if err := s.ClearTokens(ctx); err != nil {
		log.Error().Err(err).Msg("failed to roll back partially stored tokens")
	}
}

// ClearTokens removes both credentials.
func (s *Service) ClearTokens(ctx context.Context) error {
	var errs []error
	for _, key := range []string{KeyAccessToken, KeyRefreshToken} {
		if err := s.repo.Remove(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// IsAuthenticated reports whether an access credential is stored.
func (s *Service) IsAuthenticated(ctx context.Context) bool {
	_, ok := s.AccessToken(ctx)
	return ok
}

// Identity returns the cached user profile.
func (s *Service) Identity(ctx context.Context) (*apimodel.User, bool) {
	raw, ok := s.read(ctx, KeyUserData)
	if !ok {
		return nil, false
	}
	var user apimodel.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		log.Warn().Err(err).Msg("cached user data is not valid JSON, ignoring")
		return nil, false
	}
	return &user, true
}

// SetIdentity caches the user profile. Failures are logged, never returned.
func (s *Service) SetIdentity(ctx context.Context, user *apimodel.User) {
	if user == nil {
		return
	}
	data, err := json.Marshal(user)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode user data")
		return
	}
	if err := s.repo.Set(ctx, KeyUserData, string(data)); err != nil {
		log.Error().Err(err).Msg("failed to store user data")
	}
}

// ClearIdentity removes the cached profile. Failures are logged.
func (s *Service) ClearIdentity(ctx context.Context) {
	if err := s.repo.Remove(ctx, KeyUserData); err != nil {
		log.Error().Err(err).Msg("failed to clear user data")
	}
}

// Ratings returns the appeal id to rating map. A missing or corrupt cache reads as empty.
func (s *Service) Ratings(ctx context.Context) map[string]int {
	ratings := map[string]int{}
	raw, ok := s.read(ctx, KeyAppealRatings)
	if !ok {
		return ratings
	}
	if err := json.Unmarshal([]byte(raw), &ratings); err != nil {
		log.Warn().Err(err).Msg("cached appeal ratings are not valid JSON, ignoring")
		return map[string]int{}
	}
	return ratings
}

// Rating returns the cached rating for an appeal.
func (s *Service) Rating(ctx context.Context, appealID string) (int, bool) {
	r, ok := s.Ratings(ctx)[strings.TrimSpace(appealID)]
	if !ok || r == 0 {
		return 0, false
	}
	return r, true
}

// SetRating caches a rating against an appeal id. Failures are logged, never returned.
func (s *Service) SetRating(ctx context.Context, appealID string, rating int) {
	s.ratingsLock.Lock()
	defer s.ratingsLock.Unlock()

	ratings := s.Ratings(ctx)
	ratings[strings.TrimSpace(appealID)] = rating
	data, err := json.Marshal(ratings)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode appeal ratings")
		return
	}
	if err := s.repo.Set(ctx, KeyAppealRatings, string(data)); err != nil {
		log.Error().Err(err).Str("appealID", appealID).Msg("failed to store appeal rating")
	}
}

// ClearAll removes everything the store holds.
func (s *Service) ClearAll(ctx context.Context) error {
	if err := s.repo.Clear(ctx); err != nil {
		return apperrors.Wrapf(err, "[storage.ClearAll]")
	}
	return nil
}
