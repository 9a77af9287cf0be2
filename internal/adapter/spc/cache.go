package spc

import (
	"container/list"
	"context"
	"sync"

	"github.com/couchcryptid/storm-forecast-verifier/internal/domain"
	"github.com/couchcryptid/storm-forecast-verifier/internal/observability"
)

// CachedSource wraps a ReportSource with an in-memory cache of finished
// report days.
type CachedSource struct {
	inner   domain.ReportSource
	cache   *dayCache
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a report source.
func NewCachedSource(inner domain.ReportSource, maxEntries int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newDayCache(maxEntries),
		metrics: metrics,
	}
}

// FetchReports serves past days from the cache. Callers get their own copy.
func (c *CachedSource) FetchReports(ctx context.Context, date string) (domain.Reports, error) {
	key := reportDay(date)
	if reports, ok := c.cache.get(key); ok {
		c.metrics.ReportCache.WithLabelValues("hit").Inc()
		return reports.Clone(), nil
	}
	c.metrics.ReportCache.WithLabelValues("miss").Inc()

	reports, err := c.inner.FetchReports(ctx, date)
	if err != nil {
		return reports, err
	}
	// Today's file still grows and an empty day may just not be posted yet.
	if reports.Total() > 0 && key < domain.FormatForecastDate(domain.Now()) {
		c.cache.put(key, reports.Clone())
	}
	return reports, nil
}

// dayCache holds parsed report days keyed by YYMMDD, dropping the least
// recently read day once more than maxDays are held.
type dayCache struct {
	maxDays int

	mu    sync.Mutex
	order *list.List // front is the most recently read day
	days  map[string]*list.Element
}

type cachedDay struct {
	day     string
	reports domain.Reports
}

func newDayCache(maxDays int) *dayCache {
	return &dayCache{
		maxDays: maxDays,
		order:   list.New(),
		days:    make(map[string]*list.Element),
	}
}

func (c *dayCache) get(day string) (domain.Reports, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.days[day]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cachedDay).reports, true
}

func (c *dayCache) put(day string, reports domain.Reports) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.days[day]; ok {
		el.Value.(*cachedDay).reports = reports
		c.order.MoveToFront(el)
		return
	}
	c.days[day] = c.order.PushFront(&cachedDay{day: day, reports: reports})

	for c.order.Len() > c.maxDays {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.days, oldest.Value.(*cachedDay).day)
	}
}

func (c *dayCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
