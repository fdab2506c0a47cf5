package store

import (
	"context"
	"sync"

	"github.com/terminus-adherence/internal/common/logger"
	"github.com/terminus-adherence/pkg/terminus/models"
)

// Cache keeps the last parsed dataset of a Source so that recomputations with new
// filters do not re-read the inputs. It is invalidated explicitly, usually by Watch
// when a source file changes. Every Load hands out an independent copy.
type Cache struct {
	source Source
	logger logger.Logger

	mu    sync.Mutex
	data  *models.Dataset
	loads int
}

func NewCache(source Source, logger logger.Logger) *Cache {
	return &Cache{source: source, logger: logger}
}

func (c *Cache) Load(ctx context.Context) (*models.Dataset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.data == nil {
		data, err := c.source.Load(ctx)
		if err != nil {
			return nil, err
		}
		c.data = data
		c.loads++
		c.logger.Debug("Dataset cached",
			"arrivals", len(data.Arrivals),
			"departures", len(data.Departures),
			"loads", c.loads)
	}

	return c.data.Clone(), nil
}

// Invalidate drops the cached dataset; the next Load reads the source again
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.data != nil {
		c.logger.Info("Dataset cache invalidated")
	}
	c.data = nil
}

// Loads returns how many times the underlying source has been read
func (c *Cache) Loads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads
}
