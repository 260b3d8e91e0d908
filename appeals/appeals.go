// Package appeals is the appeals service client: categories, appeal submission with
// attachments, the user's appeal list and appeal detail.
package appeals

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-appeals-client/api"
	"github.com/jrsteele09/go-appeals-client/apimodel"
	apperrors "github.com/jrsteele09/go-appeals-client/internal/errors"
)

const DefaultPageSize = 10

// CreateData is a new appeal. Files are sent as repeated "files" parts.
type CreateData struct {
	Text     string
	Category int
	Region   string
	Files    []api.File
}

// Validate applies the local checks done before any request is sent.
func (d CreateData) Validate() error {
	if strings.TrimSpace(d.Text) == "" {
		return apperrors.ErrEmptyAppealText
	}
	if d.Category <= 0 {
		return apperrors.ErrInvalidCategory
	}
	return nil
}

type Service struct {
	auth *api.AuthClient
}

func New(auth *api.AuthClient) *Service {
	return &Service{auth: auth}
}

func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	res, err := s.auth.Do(ctx, &api.Request{Path: api.RouteAppealsCategories})
	if err != nil {
		return nil, fmt.Errorf("[appeals.Categories] %w", err)
	}
	var categories []Category
	if err := res.Decode(&categories); err != nil {
		return nil, fmt.Errorf("[appeals.Categories] %w", err)
	}
	return categories, nil
}

// Create submits an appeal as multipart/form-data.
func (s *Service) Create(ctx context.Context, data CreateData) (*Appeal, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}

	body := (&api.MultipartBody{}).
		AddField("text", data.Text).
		AddField("category", strconv.Itoa(data.Category))
	if data.Region != "" {
		body.AddField("region", data.Region)
	}
	for _, f := range data.Files {
		f.Field = "files"
		body.AddFile(f)
	}

	res, err := s.auth.Do(ctx, &api.Request{
		Method:    http.MethodPost,
		Path:      api.RouteAppealsCreate,
		Multipart: body,
	})
	if err != nil {
		return nil, fmt.Errorf("[appeals.Create] %w", err)
	}

	w, err := api.DecodeJSON[WireAppeal](res)
	if err != nil {
		return nil, fmt.Errorf("[appeals.Create] %w", err)
	}
	a := Map(*w)
	return &a, nil
}

// MyAppeals returns one page of the signed-in user's appeals.
func (s *Service) MyAppeals(ctx context.Context, limit, offset int) (*apimodel.Page[Appeal], error) {
	if limit <= 0 || offset < 0 {
		return nil, apperrors.ErrInvalidPagination
	}

	res, err := s.auth.Do(ctx, &api.Request{
		Path:  api.RouteAppealsMine,
		Query: api.PageQuery(limit, offset),
	})
	if err != nil {
		return nil, fmt.Errorf("[appeals.MyAppeals] %w", err)
	}

	page, err := api.DecodeJSON[apimodel.Page[WireAppeal]](res)
	if err != nil {
		return nil, fmt.Errorf("[appeals.MyAppeals] %w", err)
	}
	return mapPage(page), nil
}

func (s *Service) Detail(ctx context.Context, id int) (*Appeal, error) {
	if id <= 0 {
		return nil, apperrors.ErrInvalidID
	}

	res, err := s.auth.Do(ctx, &api.Request{Path: api.AppealDetailPath(id)})
	if err != nil {
		return nil, fmt.Errorf("[appeals.Detail] %w", err)
	}

	w, err := api.DecodeJSON[WireAppeal](res)
	if err != nil {
		return nil, fmt.Errorf("[appeals.Detail] %w", err)
	}
	a := Map(*w)
	return &a, nil
}
