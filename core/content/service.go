package content

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var ErrNotFound = errors.New("content not found")

type (
	Repository interface {
		CreateContent(ctx context.Context, cnt Content, exec ...core.DBExecutor) (Content, error)
		GetContentByID(ctx context.Context, id string, exec ...core.DBExecutor) (Content, error)
		QueryContents(ctx context.Context, ownerID string, exec ...core.DBExecutor) ([]Content, error)
		DeleteContentsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		Add(ownerID string, nc NewContent) (Content, error)
		GetByID(id string) (Content, error)
		QueryOwned(ownerID string) ([]Content, error)
		Remove(ids ...string) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (svc *service) Add(ownerID string, nc NewContent) (Content, error) {
	now := time.Now().UTC()
	cnt := Content{
		OwnerID:     ownerID,
		Title:       nc.Title,
		Kind:        nc.Kind,
		URI:         nc.URI,
		Description: nc.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateContent(context.Background(), cnt)
}

func (svc *service) GetByID(id string) (Content, error) {
	return svc.repo.GetContentByID(context.Background(), id)
}

func (svc *service) QueryOwned(ownerID string) ([]Content, error) {
	return svc.repo.QueryContents(context.Background(), ownerID)
}

func (svc *service) Remove(ids ...string) error {
	_, err := svc.repo.DeleteContentsByID(context.Background(), ids)
	return err
}
