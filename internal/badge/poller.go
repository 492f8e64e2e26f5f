// Package badge keeps the navigation-bar unread count. It polls the API on
// its own schedule and is not fed by the inbox, so the two figures may
// briefly disagree.
package badge

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

// DefaultInterval is how often the badge polls when no interval is given
const DefaultInterval = 30 * time.Second

// UnreadSource returns the current user's aggregate unread count
type UnreadSource interface {
	UnreadCount(ctx context.Context) (int64, error)
}

// Poller refreshes the unread count on start, on a ticker, and on Trigger
type Poller struct {
	source   UnreadSource
	interval time.Duration
	logger   *slog.Logger

	trigger chan struct{}
	updates chan int64

	mu    sync.RWMutex
	count int64
	known bool
}

// NewPoller creates a Poller over source
func NewPoller(source UnreadSource, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		source:   source,
		interval: interval,
		logger:   logger,
		trigger:  make(chan struct{}, 1),
		updates:  make(chan int64, 1),
	}
}

// Run polls until ctx is done
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Refresh(ctx)
		case <-p.trigger:
			p.Refresh(ctx)
		}
	}
}

// Trigger asks Run for an immediate refresh, as on a route change.
// Requests made while one is pending are coalesced.
func (p *Poller) Trigger() {
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Refresh fetches the count now. On failure the last known count is kept.
func (p *Poller) Refresh(ctx context.Context) error {
	count, err := p.source.UnreadCount(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("unread badge refresh failed", slog.Any("error", err))
		}
		return err
	}

	p.mu.Lock()
	changed := !p.known || count != p.count
	p.count = count
	p.known = true
	p.mu.Unlock()

	if changed {
		p.publish(count)
	}
	return nil
}

// Updates delivers the latest count whenever it changes. Only the newest
// undelivered value is kept.
func (p *Poller) Updates() <-chan int64 {
	return p.updates
}

// Count returns the last known unread count
func (p *Poller) Count() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.count
}

// Label is the badge text: empty for zero, "99+" above 99
func (p *Poller) Label() string {
	return Label(p.Count())
}

// Label formats count for a badge
func Label(count int64) string {
	switch {
	case count <= 0:
		return ""
	case count > 99:
		return "99+"
	default:
		return strconv.FormatInt(count, 10)
	}
}

func (p *Poller) publish(count int64) {
	for {
		select {
		case p.updates <- count:
			return
		default:
		}
		// drop the stale value nobody read yet
		select {
		case <-p.updates:
		default:
		}
	}
}
