package refresh

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"kharcha/internal/cache"
	"kharcha/internal/core"
	"kharcha/internal/log"
)

// Source fetches derived views from the backend. *gateway.Client
// implements it.
type Source interface {
	Overview(ctx context.Context) (core.DashboardOverview, error)
	Expenses(ctx context.Context) ([]core.Expense, error)
	Loans(ctx context.Context) (map[string]core.PersonLoanLedger, error)
	Committees(ctx context.Context) ([]core.Committee, error)
	MonthlySummary(ctx context.Context) (map[core.Month]core.MonthlySummary, error)
	LoanTimeline(ctx context.Context) ([]core.LoanTimelinePoint, error)
	NetValuesTrailing(ctx context.Context, last core.Month, n int) ([]core.NetValuesSnapshot, error)
	RecentSpending(ctx context.Context) (core.RecentSpending, error)
	Now() time.Time
}

// Snapshot is one fetched view.
type Snapshot struct {
	View      View      `json:"view"`
	Data      any       `json:"data"`
	FetchedAt time.Time `json:"fetched_at"`
}

const (
	DefaultTrailingMonths = 12
	DefaultTTL            = 5 * time.Minute
	maxParallel           = 4
)

// Refresher keeps a cache of views fresh. Concurrent refreshes of the same
// view that were triggered by the same write share one request.
type Refresher struct {
	src    Source
	views  *cache.LRUCache[Snapshot]
	group  singleflight.Group
	hub    *Hub
	logger *log.Logger

	trailing int
	ttl      time.Duration

	// gen advances on every confirmed write. Fetches are coalesced only
	// within a generation so no caller receives data older than its write.
	gen atomic.Uint64
}

type Option func(*Refresher)

func WithHub(h *Hub) Option { return func(r *Refresher) { r.hub = h } }

func WithLogger(l *log.Logger) Option {
	return func(r *Refresher) { r.logger = l.WithComponent(log.ComponentRefresh) }
}

// WithTrailingMonths sets how many months of net values are fetched.
func WithTrailingMonths(n int) Option {
	return func(r *Refresher) {
		if n > 0 {
			r.trailing = n
		}
	}
}

// WithTTL bounds how long a fetched view is served before it is fetched
// again. Zero keeps views until a write.
func WithTTL(d time.Duration) Option { return func(r *Refresher) { r.ttl = d } }

func New(src Source, opts ...Option) *Refresher {
	r := &Refresher{
		src:      src,
		logger:   log.Discard(),
		trailing: DefaultTrailingMonths,
		ttl:      DefaultTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.hub == nil {
		r.hub = NewHub()
	}
	r.views = cache.NewLRUCache[Snapshot](len(AllViews), r.ttl, cache.WithClock(src.Now))
	return r
}

func (r *Refresher) Hub() *Hub { return r.hub }

// Cache exposes the view cache so it can be registered with a cache.Manager.
func (r *Refresher) Cache() *cache.LRUCache[Snapshot] { return r.views }

// Get returns v from the cache, fetching it when absent or expired.
func (r *Refresher) Get(ctx context.Context, v View) (Snapshot, error) {
	if s, ok := r.views.Get(string(v)); ok {
		return s, nil
	}
	return r.Refresh(ctx, v)
}

// Refresh fetches v unconditionally and stores the result.
func (r *Refresher) Refresh(ctx context.Context, v View) (Snapshot, error) {
	if !v.IsValid() {
		return Snapshot{}, fmt.Errorf("%w: view %q", core.ErrInvalidArgument, v)
	}
	key := string(v) + "@" + strconv.FormatUint(r.gen.Load(), 10)
	res, err, shared := r.group.Do(key, func() (any, error) {
		start := time.Now()
		epoch := r.views.Epoch()
		data, err := r.fetch(ctx, v)
		if err != nil {
			return nil, err
		}
		s := Snapshot{View: v, Data: data, FetchedAt: r.src.Now()}
		// a write confirmed mid-fetch leaves the slot to its own refresh
		r.views.SetIfUnchanged(string(v), s, epoch)
		r.logger.DebugContext(ctx, "View refreshed", log.FieldView, string(v), log.FieldDuration, time.Since(start).Milliseconds())
		return s, nil
	})
	if err != nil {
		r.logger.WarnContext(ctx, "View refresh failed", log.FieldView, string(v), log.FieldError, err)
		r.hub.Publish(Event{Type: EventRefreshFailed, View: v, Error: err.Error()})
		return Snapshot{}, fmt.Errorf("refresh %s: %w", v, err)
	}
	if !shared {
		r.hub.Publish(Event{Type: EventViewRefreshed, View: v})
	}
	return res.(Snapshot), nil
}

// RecordCreated refreshes every view that depends on kind. It must be
// called only after the backend confirmed the write. Views refresh
// concurrently and independently; the returned error joins every failure
// and refreshed lists the views that succeeded.
func (r *Refresher) RecordCreated(ctx context.Context, kind core.RecordKind) (refreshed []View, err error) {
	views := ViewsFor(kind)
	r.gen.Add(1)
	for _, v := range views {
		r.views.Delete(string(v))
	}
	r.hub.Publish(Event{Type: EventRecordCreated, Kind: string(kind)})

	var (
		mu   sync.Mutex
		errs []error
		g    errgroup.Group
	)
	g.SetLimit(maxParallel)
	for _, v := range views {
		g.Go(func() error {
			_, ferr := r.Refresh(ctx, v)
			mu.Lock()
			defer mu.Unlock()
			if ferr != nil {
				errs = append(errs, ferr)
			} else {
				refreshed = append(refreshed, v)
			}
			return nil
		})
	}
	_ = g.Wait()
	return refreshed, errors.Join(errs...)
}

// RefreshAll refreshes every view.
func (r *Refresher) RefreshAll(ctx context.Context) (map[View]Snapshot, error) {
	out := make(map[View]Snapshot, len(AllViews))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)
	for _, v := range AllViews {
		g.Go(func() error {
			s, err := r.Refresh(gctx, v)
			if err != nil {
				return err
			}
			mu.Lock()
			out[v] = s
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Refresher) fetch(ctx context.Context, v View) (any, error) {
	switch v {
	case ViewOverview:
		return r.src.Overview(ctx)
	case ViewExpenses:
		return r.src.Expenses(ctx)
	case ViewLoans:
		return r.src.Loans(ctx)
	case ViewCommittees:
		return r.src.Committees(ctx)
	case ViewMonthlySummary:
		return r.src.MonthlySummary(ctx)
	case ViewLoanTimeline:
		return r.src.LoanTimeline(ctx)
	case ViewNetValues:
		return r.src.NetValuesTrailing(ctx, core.MonthOf(r.src.Now()), r.trailing)
	case ViewRecentSpending:
		return r.src.RecentSpending(ctx)
	}
	return nil, fmt.Errorf("%w: view %q", core.ErrInvalidArgument, v)
}
