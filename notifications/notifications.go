// Package notifications is the notifications service client.
package notifications

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-appeals-client/api"
	"github.com/jrsteele09/go-appeals-client/apimodel"
	apperrors "github.com/jrsteele09/go-appeals-client/internal/errors"
)

type Notification struct {
	ID     int             `json:"id"`
	Type   string          `json:"type"`
	Text   string          `json:"text"`
	Appeal apimodel.FlexID `json:"appeal"`
	IsRead bool            `json:"is_read"`
}

type markRead struct {
	IsRead bool `json:"is_read"`
}

type Service struct {
	auth *api.AuthClient
}

func New(auth *api.AuthClient) *Service {
	return &Service{auth: auth}
}

// List returns a page of notifications. Zero limit and offset use the server's default page.
func (s *Service) List(ctx context.Context, limit, offset int) (*apimodel.Page[Notification], error) {
	if limit < 0 || offset < 0 || (limit == 0 && offset > 0) {
		return nil, apperrors.ErrInvalidPagination
	}

	req := &api.Request{Path: api.RouteNotificationsList}
	if limit > 0 {
		req.Query = api.PageQuery(limit, offset)
	}

	res, err := s.auth.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("[notifications.List] %w", err)
	}
	page, err := api.DecodeJSON[apimodel.Page[Notification]](res)
	if err != nil {
		return nil, fmt.Errorf("[notifications.List] %w", err)
	}
	return page, nil
}

func (s *Service) Detail(ctx context.Context, id int) (*Notification, error) {
	if id <= 0 {
		return nil, apperrors.ErrInvalidID
	}
	res, err := s.auth.Do(ctx, &api.Request{Path: api.NotificationDetailPath(id)})
	if err != nil {
		return nil, fmt.Errorf("[notifications.Detail] %w", err)
	}
	return api.DecodeJSON[Notification](res)
}

// MarkRead sends PUT {"is_read": true} and returns the updated notification.
func (s *Service) MarkRead(ctx context.Context, id int) (*Notification, error) {
	if id <= 0 {
		return nil, apperrors.ErrInvalidID
	}
	res, err := s.auth.Do(ctx, &api.Request{
		Method: http.MethodPut,
		Path:   api.NotificationDetailPath(id),
		JSON:   markRead{IsRead: true},
	})
	if err != nil {
		return nil, fmt.Errorf("[notifications.MarkRead] %w", err)
	}
	return api.DecodeJSON[Notification](res)
}

// UnreadCount counts unread notifications on the first page.
func (s *Service) UnreadCount(ctx context.Context) (int, error) {
	page, err := s.List(ctx, 0, 0)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, item := range page.Results {
		if !item.IsRead {
			n++
		}
	}
	return n, nil
}
