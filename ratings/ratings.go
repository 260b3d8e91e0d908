// Package ratings is the ratings service client. Ratings are submitted against the id of
// an appeal's response and cached locally against the appeal id.
package ratings

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-appeals-client/api"
	apperrors "github.com/jrsteele09/go-appeals-client/internal/errors"
	"github.com/rs/zerolog/log"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Rating struct {
	ID         int    `json:"id"`
	Rating     int    `json:"rating"`
	ResponseID int    `json:"response_id"`
	CreatedAt  string `json:"created_at,omitempty"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

type ratingData struct {
	Rating int `json:"rating"`
}

// Cache is the local per-appeal rating cache.
type Cache interface {
	Rating(ctx context.Context, appealID string) (int, bool)
	SetRating(ctx context.Context, appealID string, rating int)
}

// Validate rejects a rating outside [1,5] or a response id that is not positive.
func Validate(responseID, rating int) error {
	if rating < MinRating || rating > MaxRating {
		return apperrors.ErrInvalidRating
	}
	if responseID <= 0 {
		return apperrors.ErrInvalidResponseID
	}
	return nil
}

type Service struct {
	auth  *api.AuthClient
	cache Cache
}

func New(auth *api.AuthClient, cache Cache) *Service {
	return &Service{auth: auth, cache: cache}
}

// Submit rates a response with POST /responses/{id}/rate/.
func (s *Service) Submit(ctx context.Context, appealID string, responseID, rating int) (*Rating, error) {
	return s.send(ctx, "Submit", http.MethodPost, api.RateResponsePath(responseID), appealID, responseID, rating)
}

// Update replaces an existing rating with PUT /responses/{id}/rate.
func (s *Service) Update(ctx context.Context, appealID string, responseID, rating int) (*Rating, error) {
	return s.send(ctx, "Update", http.MethodPut, api.UpdateRatingPath(responseID), appealID, responseID, rating)
}

func (s *Service) send(ctx context.Context, op, method, path, appealID string, responseID, rating int) (*Rating, error) {
	if err := Validate(responseID, rating); err != nil {
		return nil, err
	}

	res, err := s.auth.Do(ctx, &api.Request{
		Method: method,
		Path:   path,
		JSON:   ratingData{Rating: rating},
	})
	if err != nil {
		return nil, fmt.Errorf("[ratings.%s] %w", op, err)
	}

	// the request succeeded, so the rating is cached whatever the body looks like
	if appealID != "" {
		s.cache.SetRating(ctx, appealID, rating)
	}

	out := &Rating{Rating: rating, ResponseID: responseID}
	if err := res.Decode(out); err != nil {
		log.Warn().Err(err).Int("responseID", responseID).Msg("unexpected rating response body")
		return &Rating{Rating: rating, ResponseID: responseID}, nil
	}
	return out, nil
}

// Get returns the rating of a response, or nil when the response has not been rated.
func (s *Service) Get(ctx context.Context, responseID int) (*Rating, error) {
	if responseID <= 0 {
		return nil, apperrors.ErrInvalidResponseID
	}

	res, err := s.auth.Do(ctx, &api.Request{Path: api.ResponseRatingPath(responseID)})
	if err != nil {
		var httpErr *api.HTTPError
		if errors.As(err, &httpErr) && httpErr.NotFound() {
			return nil, nil
		}
		return nil, fmt.Errorf("[ratings.Get] %w", err)
	}
	return api.DecodeJSON[Rating](res)
}

// Cached returns the locally cached rating of an appeal.
func (s *Service) Cached(ctx context.Context, appealID string) (int, bool) {
	return s.cache.Rating(ctx, appealID)
}
