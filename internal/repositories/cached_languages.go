package repositories

import (
	"context"
	"github.com/maxaizer/cv-extractor/internal/entities"
	gocache "github.com/patrickmn/go-cache"
	"time"
)

type languageRepository interface {
	GetByCode(ctx context.Context, value string) (*entities.Language, error)
}

type CachedLanguages struct {
	repo  languageRepository
	cache *gocache.Cache
}

func NewCachedLanguages(repo languageRepository) *CachedLanguages {
	return &CachedLanguages{repo: repo, cache: gocache.New(30*time.Minute, time.Hour)}
}

func (c *CachedLanguages) GetByCode(ctx context.Context, value string) (*entities.Language, error) {
	key := entities.NormalizeLanguageKey(value)
	if cached, found := c.cache.Get(key); found {
		language := cached.(entities.Language)
		return &language, nil
	}

	language, err := c.repo.GetByCode(ctx, value)
	if err != nil || language == nil {
		return language, err
	}

	c.cache.SetDefault(key, *language)
	return language, nil
}
