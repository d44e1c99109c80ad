package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/coder/quartz"

	"pagetrack/internal/modules/position/domain"
	positionout "pagetrack/internal/modules/position/port/out"
	"pagetrack/internal/platform/clock"
	apperrors "pagetrack/internal/platform/errors"
)

const debounceTag = "position"

// Cache coalesces rapid page changes into one write per debounce window.
// Pending positions are served from memory until they are written.
type Cache struct {
	clock    clock.Clock
	store    positionout.Store
	logger   *slog.Logger
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]domain.Position
	timer   *quartz.Timer
}

func NewCache(clk clock.Clock, store positionout.Store, logger *slog.Logger, debounce time.Duration) *Cache {
	return &Cache{clock: clk, store: store, logger: logger, debounce: debounce, pending: map[string]domain.Position{}}
}

func (c *Cache) Remember(documentID string, page int) error {
	pos := domain.Position{DocumentID: documentID, Page: page, UpdatedAt: c.clock.Now()}
	if err := pos.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[documentID] = pos
	if c.timer == nil {
		c.timer = c.clock.AfterFunc(c.debounce, c.onDebounce, debounceTag)
		return nil
	}
	c.timer.Reset(c.debounce, debounceTag)
	return nil
}

func (c *Cache) Recall(ctx context.Context, documentID string) (int, error) {
	c.mu.Lock()
	pos, ok := c.pending[documentID]
	c.mu.Unlock()
	if ok {
		return pos.Page, nil
	}
	stored, err := c.store.Load(ctx, documentID)
	if err != nil {
		return 0, err
	}
	return stored.Page, nil
}

// Flush writes every pending position now. Positions that fail to write stay
// pending unless a newer one replaced them meanwhile.
func (c *Cache) Flush(ctx context.Context) error {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop(debounceTag)
		c.timer = nil
	}
	batch := make([]domain.Position, 0, len(c.pending))
	for _, pos := range c.pending {
		batch = append(batch, pos)
	}
	c.pending = map[string]domain.Position{}
	c.mu.Unlock()
	if len(batch) == 0 {
		return nil
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].DocumentID < batch[j].DocumentID })

	if err := c.store.SaveAll(ctx, batch); err != nil {
		c.mu.Lock()
		for _, pos := range batch {
			if _, newer := c.pending[pos.DocumentID]; !newer {
				c.pending[pos.DocumentID] = pos
			}
		}
		c.mu.Unlock()
		return err
	}
	return nil
}

func (c *Cache) onDebounce() {
	if err := c.Flush(context.Background()); err != nil {
		c.logger.Warn("save last positions", "error", err)
	}
}
