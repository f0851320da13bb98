package boiledrepos

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/content"
	"github.com/trezcool/darasa/storage/database/sqlboiler/models"
)

type contentRepository struct {
	exec core.DBExecutor
}

var _ content.Repository = (*contentRepository)(nil) // interface compliance check

func NewContentRepository(exec core.DBExecutor) content.Repository {
	return &contentRepository{exec: exec}
}

func (repo contentRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

func (repo contentRepository) boil(cnt content.Content) *models.Content {
	return &models.Content{
		ID:          cnt.ID,
		OwnerID:     cnt.OwnerID,
		Title:       cnt.Title,
		Kind:        cnt.Kind,
		URI:         cnt.URI,
		Description: cnt.Description,
		CreatedAt:   cnt.CreatedAt.UTC(),
		UpdatedAt:   cnt.UpdatedAt.UTC(),
	}
}

func (repo contentRepository) unboil(cnt *models.Content) content.Content {
	if cnt == nil {
		return content.Content{}
	}
	return content.Content{
		ID:          cnt.ID,
		OwnerID:     cnt.OwnerID,
		Title:       cnt.Title,
		Kind:        cnt.Kind,
		URI:         cnt.URI,
		Description: cnt.Description,
		CreatedAt:   cnt.CreatedAt,
		UpdatedAt:   cnt.UpdatedAt,
	}
}

func (repo contentRepository) CreateContent(ctx context.Context, cnt content.Content, exec ...core.DBExecutor) (content.Content, error) {
	cnt.ID = uuid.New().String()
	c := repo.boil(cnt)
	if err := c.Insert(ctx, repo.getExec(exec)); err != nil {
		return content.Content{}, errors.Wrap(err, "inserting content")
	}
	return repo.unboil(c), nil
}

func (repo contentRepository) GetContentByID(ctx context.Context, id string, exec ...core.DBExecutor) (content.Content, error) {
	if _, err := uuid.Parse(id); err != nil {
		return content.Content{}, content.ErrNotFound
	}
	cnt, err := models.FindContent(ctx, repo.getExec(exec), id)
	if err != nil {
		return content.Content{}, trapNoRowsErr(err, content.ErrNotFound, "finding content")
	}
	return repo.unboil(cnt), nil
}

func (repo contentRepository) QueryContents(ctx context.Context, ownerID string, exec ...core.DBExecutor) ([]content.Content, error) {
	slice, err := models.Contents(
		qm.Where(models.ContentColumns.OwnerID+" = ?", ownerID),
		qm.OrderBy(models.ContentColumns.CreatedAt),
	).All(ctx, repo.getExec(exec))
	if err != nil {
		return nil, errors.Wrap(err, "querying contents")
	}
	contents := make([]content.Content, 0, len(slice))
	for _, c := range slice {
		contents = append(contents, repo.unboil(c))
	}
	return contents, nil
}

func (repo contentRepository) DeleteContentsByID(ctx context.Context, ids []string, exec ...core.DBExecutor) (int, error) {
	cnt, err := models.Contents(qm.WhereIn(fmt.Sprintf("%s IN ?", models.ContentColumns.ID), idArgs(ids)...)).
		DeleteAll(ctx, repo.getExec(exec))
	if err != nil {
		return 0, errors.Wrap(err, "deleting contents")
	}
	return int(cnt), nil
}
