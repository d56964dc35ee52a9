package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"stockreturn/pkg/logger"
)

// CompanyChangedChannel is notified by a trigger on the companies table
// with the changed company id as payload.
const CompanyChangedChannel = "company_changed"

// Invalidator drops cache entries on PostgreSQL NOTIFY events.
type Invalidator struct {
	pool  *pgxpool.Pool
	cache *CompanyCache

	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	wg          sync.WaitGroup
}

// NewInvalidator creates an invalidator for the company cache.
func NewInvalidator(pool *pgxpool.Pool, cache *CompanyCache) *Invalidator {
	return &Invalidator{pool: pool, cache: cache}
}

// Start begins listening in the background. Calling Start twice is a no-op.
func (i *Invalidator) Start(ctx context.Context) {
	i.lifecycleMu.Lock()
	defer i.lifecycleMu.Unlock()
	if i.cancel != nil {
		return
	}

	ctx, i.cancel = context.WithCancel(ctx)
	i.wg.Add(1)
	go i.listenLoop(ctx)
}

// Stop ends listening and waits for the loop to exit.
func (i *Invalidator) Stop() {
	i.lifecycleMu.Lock()
	cancel := i.cancel
	i.cancel = nil
	i.lifecycleMu.Unlock()

	if cancel != nil {
		cancel()
		i.wg.Wait()
	}
}

func (i *Invalidator) listenLoop(ctx context.Context) {
	defer i.wg.Done()

	for ctx.Err() == nil {
		conn, err := i.pool.Acquire(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Error(ctx, "failed to acquire connection for LISTEN", "error", err)
				sleep(ctx, time.Second)
			}
			continue
		}

		if _, err := conn.Exec(ctx, "LISTEN "+CompanyChangedChannel); err != nil {
			logger.Error(ctx, "failed to LISTEN", "channel", CompanyChangedChannel, "error", err)
			conn.Release()
			sleep(ctx, time.Second)
			continue
		}

		i.waitForNotifications(ctx, conn)
		conn.Release()
	}
}

func (i *Invalidator) waitForNotifications(ctx context.Context, conn *pgxpool.Conn) {
	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn(ctx, "LISTEN connection lost", "error", err)
			}
			return
		}

		companyID := strings.TrimSpace(notification.Payload)
		if companyID == "" {
			continue
		}
		if err := i.cache.Invalidate(ctx, companyID); err != nil {
			logger.Warn(ctx, "company cache invalidation failed", "error", err)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
