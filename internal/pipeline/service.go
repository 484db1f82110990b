// Package pipeline runs fetch, parse and translate for a trade date and
// exposes the results to the CLI and HTTP front ends.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/seenimoa/jsdabond/internal/analysis/curve"
	"github.com/seenimoa/jsdabond/internal/calendar"
	"github.com/seenimoa/jsdabond/internal/provider"
	"github.com/seenimoa/jsdabond/internal/providers/jsda"
	"github.com/seenimoa/jsdabond/pkg/models"
	"github.com/seenimoa/jsdabond/pkg/utils"
)

// ErrRangeTooLarge is returned by History for spans over Options.MaxDays business days.
var ErrRangeTooLarge = errors.New("date range too large")

// Options tunes a Service. Zero values pick defaults.
type Options struct {
	Concurrency int
	MaxDays     int
	MaxLookback int
	MinDate     time.Time
	Now         func() time.Time

	// LoadTimeout bounds a shared download once its callers have left.
	LoadTimeout time.Duration
}

// Service is safe for concurrent use.
type Service struct {
	registry *provider.Registry
	calendar *calendar.Calendar
	log      *logrus.Logger
	opts     Options
	group    singleflight.Group
}

// New returns a service over reg. cal may be nil for a built-in calendar.
func New(reg *provider.Registry, cal *calendar.Calendar, log *logrus.Logger, opts Options) *Service {
	if cal == nil {
		cal = calendar.New()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.MaxDays <= 0 {
		opts.MaxDays = 92
	}
	if opts.MaxLookback <= 0 {
		opts.MaxLookback = 10
	}
	if opts.MinDate.IsZero() {
		opts.MinDate, _ = utils.ParseDateJST("2000-01-01")
	}
	if opts.Now == nil {
		opts.Now = utils.NowJST
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = 2 * time.Minute
	}
	return &Service{registry: reg, calendar: cal, log: log, opts: opts}
}

// Calendar returns the business-day calendar in use.
func (s *Service) Calendar() *calendar.Calendar { return s.calendar }

// MinDate returns the earliest selectable date.
func (s *Service) MinDate() time.Time { return utils.DateOnly(s.opts.MinDate) }

// Today returns the current JST date.
func (s *Service) Today() time.Time { return utils.DateOnly(s.opts.Now()) }

// Dataset is the translated table of one trade date plus its typed quotes.
type Dataset struct {
	*jsda.DailyPrices
	Quotes []models.BondQuote `json:"-"`
	Cached bool               `json:"cached"`
}

// LoadError carries the calendar's explanation for a failed load.
type LoadError struct {
	Date   time.Time
	Reason string // "" on business days
	Err    error
}

func (e *LoadError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s (%s): %v", utils.FormatDateJST(e.Date), e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %v", utils.FormatDateJST(e.Date), e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Load returns the dataset for date. Concurrent calls for the same date
// share one download.
func (s *Service) Load(ctx context.Context, date time.Time, refresh bool) (*Dataset, error) {
	day := utils.FormatDateJST(date)
	key := day
	if refresh {
		key += ":refresh"
	}

	// The download is shared by every caller of the same key, so it runs
	// detached from any one caller. Each caller still stops at its own ctx.
	ch := s.group.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.LoadTimeout)
		defer cancel()
		return s.fetch(fctx, day, refresh)
	})

	var (
		v      any
		err    error
		shared bool
	)
	select {
	case <-ctx.Done():
		err = ctx.Err()
	case res := <-ch:
		v, err, shared = res.Val, res.Err, res.Shared
	}
	if err != nil {
		lerr := &LoadError{Date: utils.DateOnly(date), Reason: s.calendar.Reason(date), Err: err}
		s.log.WithFields(logrus.Fields{
			"date":   day,
			"reason": lerr.Reason,
		}).WithError(err).Warn("load reference prices")
		return nil, lerr
	}

	ds := v.(*Dataset)
	entry := s.log.WithFields(logrus.Fields{
		"date":   day,
		"url":    ds.URL,
		"rows":   ds.Table.Len(),
		"cached": ds.Cached,
		"shared": shared,
	})
	if len(ds.Unmapped) > 0 {
		entry.WithField("unmapped", ds.Unmapped).Warn("columns without English name")
	}
	entry.Debug("loaded reference prices")
	return ds, nil
}

func (s *Service) fetch(ctx context.Context, day string, refresh bool) (*Dataset, error) {
	params := provider.QueryParams{provider.ParamDate: day}
	if refresh {
		params[provider.ParamRefresh] = "1"
	}
	res, err := s.registry.Fetch(ctx, provider.ModelBondReferencePrices, params)
	if err != nil {
		return nil, err
	}
	prices, ok := res.Data.(*jsda.DailyPrices)
	if !ok {
		return nil, fmt.Errorf("unexpected %T from provider %q", res.Data, res.Provider)
	}
	return &Dataset{
		DailyPrices: prices,
		Quotes:      curve.Quotes(prices.Table, prices.Date),
		Cached:      res.Cached,
	}, nil
}

// Latest loads the newest published file on or before from, walking back
// over business days while the server reports no data.
func (s *Service) Latest(ctx context.Context, from time.Time) (*Dataset, error) {
	d := s.calendar.OnOrBefore(from)
	var lastErr error
	for i := 0; i < s.opts.MaxLookback; i++ {
		if d.Before(s.MinDate()) {
			break
		}
		ds, err := s.Load(ctx, d, false)
		if err == nil {
			return ds, nil
		}
		if !IsNoData(err) {
			return nil, err
		}
		lastErr = err
		d = s.calendar.PrevBusinessDay(d)
	}
	if lastErr == nil {
		lastErr = &LoadError{Date: utils.DateOnly(from), Err: jsda.ErrDateOutOfRange}
	}
	return nil, lastErr
}

// Curve builds the yield curve of one issuer on date.
func (s *Service) Curve(ctx context.Context, date time.Time, f curve.Filter) (*models.YieldCurve, *Dataset, error) {
	ds, err := s.Load(ctx, date, false)
	if err != nil {
		return nil, nil, err
	}
	c, err := curve.Build(ds.Quotes, ds.Date, f)
	if err != nil {
		return nil, ds, err
	}
	return c, ds, nil
}

// Issues lists the issuers present on date with per-issuer statistics.
func (s *Service) Issues(ctx context.Context, date time.Time) ([]curve.IssueSummary, error) {
	ds, err := s.Load(ctx, date, false)
	if err != nil {
		return nil, err
	}
	sums := curve.Summaries(ds.Quotes)
	if len(sums) == 0 {
		return nil, curve.ErrNoIssues
	}
	return sums, nil
}

// HistoryResult is the outcome of a multi-date load.
type HistoryResult struct {
	Filter  curve.Filter          `json:"filter"`
	Points  []models.HistoryPoint `json:"points"`
	Loaded  []time.Time           `json:"loaded"`
	Skipped []time.Time           `json:"skipped,omitempty"` // business days without a file
}

// History loads every business day in [from, to] concurrently and
// collects the yields of the bonds matching f.
func (s *Service) History(ctx context.Context, from, to time.Time, f curve.Filter) (*HistoryResult, error) {
	if to.Before(from) {
		from, to = to, from
	}
	if today := s.Today(); to.After(today) {
		to = today
	}
	days := s.calendar.BusinessDays(from, to)
	if len(days) > s.opts.MaxDays {
		return nil, fmt.Errorf("%w: %d business days, limit %d", ErrRangeTooLarge, len(days), s.opts.MaxDays)
	}

	var (
		mu      sync.Mutex
		snaps   []curve.Snapshot
		skipped []time.Time
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for _, d := range days {
		g.Go(func() error {
			ds, err := s.Load(gctx, d, false)
			if err != nil {
				if IsNoData(err) {
					mu.Lock()
					skipped = append(skipped, d)
					mu.Unlock()
					return nil
				}
				return err
			}
			mu.Lock()
			snaps = append(snaps, curve.Snapshot{Date: ds.Date, Quotes: ds.Quotes})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Date.Before(snaps[j].Date) })
	sort.Slice(skipped, func(i, j int) bool { return skipped[i].Before(skipped[j]) })

	res := &HistoryResult{Filter: f, Points: curve.History(snaps, f), Skipped: skipped}
	for _, sn := range snaps {
		res.Loaded = append(res.Loaded, sn.Date)
	}
	if len(res.Points) == 0 {
		return res, curve.ErrNoBondData
	}
	return res, nil
}

// RefreshHolidays merges the Cabinet Office holiday list into the calendar.
func (s *Service) RefreshHolidays(ctx context.Context, refresh bool) (int, error) {
	params := provider.QueryParams{}
	if refresh {
		params[provider.ParamRefresh] = "1"
	}
	res, err := s.registry.Fetch(ctx, provider.ModelHolidays, params)
	if err != nil {
		return 0, err
	}
	added := s.calendar.Merge(res.Data.([]models.Holiday))
	s.log.WithField("added", added).Info("merged holiday list")
	return added, nil
}

// Holidays returns the non-publication days of year.
func (s *Service) Holidays(year int) []models.Holiday {
	return s.calendar.Holidays(year)
}

// Notices returns the latest announcements. It returns nil without error
// when no feed is configured.
func (s *Service) Notices(ctx context.Context, limit int) ([]models.Notice, error) {
	params := provider.QueryParams{}
	if limit > 0 {
		params[provider.ParamLimit] = fmt.Sprint(limit)
	}
	res, err := s.registry.Fetch(ctx, provider.ModelNotices, params)
	if err != nil {
		var nf *provider.ErrProviderNotFound
		if errors.As(err, &nf) {
			return nil, nil
		}
		return nil, err
	}
	return res.Data.([]models.Notice), nil
}

// ProviderStatus is one provider's entry in a StatusReport.
type ProviderStatus struct {
	provider.ProviderInfo
	DefaultFor []provider.ModelType `json:"default_for,omitempty"`
	Error      string               `json:"error,omitempty"`
}

// StatusReport lists the providers, the models each one serves, and the
// models no provider serves (Notices without a feed URL, for example).
type StatusReport struct {
	Providers []ProviderStatus                `json:"providers"`
	Coverage  map[provider.ModelType][]string `json:"coverage"`
	Unserved  []provider.ModelType            `json:"unserved,omitempty"`
}

// Status pings every provider and reports model coverage.
func (s *Service) Status(ctx context.Context) *StatusReport {
	pings := s.registry.PingAll(ctx)
	rep := &StatusReport{Coverage: s.registry.ModelCoverage()}

	defaults := map[string][]provider.ModelType{}
	for _, m := range provider.AllModelTypes() {
		name, ok := s.registry.DefaultProvider(m)
		if !ok {
			rep.Unserved = append(rep.Unserved, m)
			continue
		}
		defaults[name] = append(defaults[name], m)
	}
	for _, info := range s.registry.List() {
		ps := ProviderStatus{ProviderInfo: info, DefaultFor: defaults[info.Name]}
		if err := pings[info.Name]; err != nil {
			ps.Error = err.Error()
		}
		rep.Providers = append(rep.Providers, ps)
	}
	return rep
}

// IsNoData reports whether err means no file was published for the date.
func IsNoData(err error) bool {
	var fe *jsda.FetchError
	return errors.As(err, &fe) && fe.NoData()
}
