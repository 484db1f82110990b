// Package jsda implements the JSDA OTC bond reference price provider.
// Daily files are downloaded from market.jsda.or.jp, parsed, and their
// Japanese headers translated to English. No API key required.
package jsda

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/seenimoa/jsdabond/internal/infra"
	"github.com/seenimoa/jsdabond/internal/provider"
	"github.com/seenimoa/jsdabond/internal/table"
	"github.com/seenimoa/jsdabond/internal/translate"
	"github.com/seenimoa/jsdabond/pkg/utils"
)

const providerName = "jsda"

// Options configures the provider.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  int // requests per second
	MinDate    time.Time
	MinColumns int
	CacheTTL   time.Duration
	UserAgent  string
}

// DailyPrices is the parsed reference price table of one trade date.
type DailyPrices struct {
	Date      time.Time    `json:"date"`
	URL       string       `json:"url"`
	FileName  string       `json:"file_name"`
	Raw       *table.Table `json:"-"`
	Table     *table.Table `json:"table"`
	Unmapped  []string     `json:"unmapped,omitempty"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// Provider is the JSDA data provider.
type Provider struct {
	provider.BaseProvider
	client *Client
}

// New creates a JSDA provider and registers its fetcher.
func New(opts Options) *Provider {
	client := NewClient(opts.BaseURL, opts.Timeout)
	if !opts.MinDate.IsZero() {
		client.MinDate = opts.MinDate
	}
	client.UserAgent = opts.UserAgent

	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"JSDA reference statistical prices for OTC bond transactions (free, no API key)",
			"https://market.jsda.or.jp",
		),
		client: client,
	}
	p.RegisterFetcher(newPricesFetcher(client, opts))
	return p
}

// Client exposes the underlying download client.
func (p *Provider) Client() *Client { return p.client }

// Ping checks that the JSDA host answers. Any HTTP response counts.
func (p *Provider) Ping(ctx context.Context) error {
	_, err := infra.Fetch(ctx, p.client.HTTP, p.client.BaseURL+"/", nil)
	var httpErr *infra.ErrHTTP
	if err != nil && !errors.As(err, &httpErr) {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// BondReferencePrices fetcher.
// ---------------------------------------------------------------------------

type pricesFetcher struct {
	provider.BaseFetcher
	client     *Client
	minColumns int
}

func newPricesFetcher(client *Client, opts Options) *pricesFetcher {
	ttl := opts.CacheTTL
	if ttl == 0 {
		ttl = 15 * time.Minute
	}
	rate := opts.RateLimit
	if rate <= 0 {
		rate = 2
	}
	return &pricesFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelBondReferencePrices,
			"JSDA daily reference prices with English column names",
			[]string{provider.ParamDate},
			[]string{provider.ParamRefresh},
			ttl, rate, time.Second,
		),
		client:     client,
		minColumns: opts.MinColumns,
	}
}

func (f *pricesFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	date, err := provider.DateParam(params, provider.ParamDate, utils.JST)
	if err != nil {
		return nil, err
	}

	// A refresh drops the cached copy first, so a failed refresh is not
	// followed by stale hits.
	cacheKey := provider.CacheKey(provider.ModelBondReferencePrices, params)
	if provider.WantsRefresh(params) {
		f.CacheInvalidate(cacheKey)
	} else if cached, ok := f.CacheGet(cacheKey); ok {
		res := *cached.(*provider.FetchResult)
		res.Cached = true
		return &res, nil
	}

	if err := f.client.CheckDate(date); err != nil {
		return nil, err
	}
	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}

	prices, err := f.load(ctx, date)
	if err != nil {
		return nil, err
	}

	result := &provider.FetchResult{Data: prices, FetchedAt: prices.FetchedAt}
	f.CacheSet(cacheKey, result)
	return result, nil
}

// load runs download, parse and translate for one date.
func (f *pricesFetcher) load(ctx context.Context, date time.Time) (*DailyPrices, error) {
	resp, err := f.client.Download(ctx, date)
	if err != nil {
		return nil, err
	}

	raw, err := table.Parse(resp.Body, resp.ContentType, translate.TableOptions(f.minColumns))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FileName(date), err)
	}
	translated, unmapped := translate.Table(raw)

	return &DailyPrices{
		Date:      utils.DateOnly(date),
		URL:       BuildURL(f.client.BaseURL, date),
		FileName:  FileName(date),
		Raw:       raw,
		Table:     translated,
		Unmapped:  unmapped,
		FetchedAt: time.Now(),
	}, nil
}
