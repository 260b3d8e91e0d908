package api

import (
	"context"
	"fmt"
	"net/http"

	apperrors "github.com/jrsteele09/go-appeals-client/internal/errors"
	"github.com/rs/zerolog/log"
)

// Probe sends a HEAD to the base URL. Any HTTP response, whatever its status, counts as reachable.
func (c *Client) Probe(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, c.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("[api.Probe] %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn().Err(err).Str("baseURL", c.baseURL).Msg("server probe failed")
		return fmt.Errorf("%w: %w", apperrors.ErrServerUnreachable, err)
	}
	_ = resp.Body.Close()
	return nil
}
