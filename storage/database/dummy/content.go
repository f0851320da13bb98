package dummydb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/content"
)

type contentRepository struct {
	db *DB
}

var _ content.Repository = (*contentRepository)(nil) // interface compliance check

func NewContentRepository(db *DB) content.Repository {
	return &contentRepository{db: db}
}

func (repo *contentRepository) CreateContent(_ context.Context, cnt content.Content, _ ...core.DBExecutor) (content.Content, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	cnt.ID = uuid.New().String()
	repo.db.contents[cnt.ID] = &cnt
	return cnt, nil
}

func (repo *contentRepository) GetContentByID(_ context.Context, id string, _ ...core.DBExecutor) (content.Content, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cnt, ok := repo.db.contents[id]; ok {
		return *cnt, nil
	}
	return content.Content{}, content.ErrNotFound
}

func (repo *contentRepository) QueryContents(_ context.Context, ownerID string, _ ...core.DBExecutor) ([]content.Content, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	contents := make([]content.Content, 0, len(repo.db.contents))
	for _, cnt := range repo.db.contents {
		if cnt.OwnerID == ownerID {
			contents = append(contents, *cnt)
		}
	}
	sort.Slice(contents, func(i, j int) bool { return contents[i].CreatedAt.Before(contents[j].CreatedAt) })
	return contents, nil
}

func (repo *contentRepository) DeleteContentsByID(_ context.Context, ids []string, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := repo.db.contents[id]; ok {
			delete(repo.db.contents, id)
			n++
		}
	}
	return n, nil
}
