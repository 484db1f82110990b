// Package cao implements a provider for the Japanese national holiday list
// published by the Cabinet Office (内閣府) as a Shift-JIS CSV.
package cao

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/seenimoa/jsdabond/internal/infra"
	"github.com/seenimoa/jsdabond/internal/provider"
	"github.com/seenimoa/jsdabond/internal/table"
	"github.com/seenimoa/jsdabond/pkg/models"
	"github.com/seenimoa/jsdabond/pkg/utils"
)

const (
	providerName = "cao"

	// DefaultSourceURL is the Cabinet Office holiday CSV.
	DefaultSourceURL = "https://www8.cao.go.jp/chosei/shukujitsu/syukujitsu.csv"
)

// Provider is the Cabinet Office holiday provider.
type Provider struct {
	provider.BaseProvider
	sourceURL string
}

// New creates the provider for sourceURL (DefaultSourceURL when empty).
func New(sourceURL string) *Provider {
	if sourceURL == "" {
		sourceURL = DefaultSourceURL
	}
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"Cabinet Office national holiday list (free, no API key)",
			"https://www8.cao.go.jp/chosei/shukujitsu/gaiyou.html",
		),
		sourceURL: sourceURL,
	}
	p.RegisterFetcher(newHolidaysFetcher(sourceURL))
	return p
}

// Ping verifies the CSV is downloadable.
func (p *Provider) Ping(ctx context.Context) error {
	body, _, err := infra.DoGet(ctx, p.sourceURL, nil)
	if err != nil {
		return err
	}
	return body.Close()
}

// ---------------------------------------------------------------------------
// Holidays fetcher.
// ---------------------------------------------------------------------------

type holidaysFetcher struct {
	provider.BaseFetcher
	sourceURL string
}

func newHolidaysFetcher(sourceURL string) *holidaysFetcher {
	return &holidaysFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelHolidays,
			"Japanese national holidays (syukujitsu.csv)",
			nil,
			[]string{provider.ParamYear, provider.ParamRefresh},
			24*time.Hour, 1, time.Second,
		),
		sourceURL: sourceURL,
	}
}

func (f *holidaysFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	year := 0
	if v := params[provider.ParamYear]; v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return nil, &provider.ErrInvalidParam{Param: provider.ParamYear, Value: v, Detail: "expected YYYY"}
		}
		year = y
	}

	// The whole file is cached once; year filtering happens per call.
	const cacheKey = "cao:holidays"
	var all []models.Holiday
	cached, hit := f.CacheGet(cacheKey)
	hit = hit && !provider.WantsRefresh(params)
	if hit {
		all = cached.([]models.Holiday)
	} else {
		if err := f.RateLimit(ctx); err != nil {
			return nil, err
		}
		resp, err := infra.Fetch(ctx, nil, f.sourceURL, nil)
		if err != nil {
			return nil, fmt.Errorf("holidays: %w", err)
		}
		all, err = ParseCSV(resp.Body, resp.ContentType)
		if err != nil {
			return nil, fmt.Errorf("holidays: %w", err)
		}
		f.CacheSet(cacheKey, all)
	}

	out := all
	if year != 0 {
		out = make([]models.Holiday, 0, 20)
		for _, h := range all {
			if h.Date.Year() == year {
				out = append(out, h)
			}
		}
	}
	return &provider.FetchResult{Data: out, FetchedAt: time.Now(), Cached: hit}, nil
}

// ParseCSV reads the two-column holiday CSV ("2026/1/1,元日").
// Rows whose first cell is not a date are skipped.
func ParseCSV(payload []byte, contentType string) ([]models.Holiday, error) {
	t, err := table.Parse(payload, contentType, table.Options{
		MinColumns: 2,
		IsHeader: func(cell string) bool {
			return strings.Contains(cell, "月日") || strings.Contains(cell, "名称")
		},
	})
	if err != nil {
		return nil, err
	}

	out := make([]models.Holiday, 0, len(t.Rows))
	for _, row := range t.Rows {
		d, err := time.ParseInLocation("2006/1/2", row[0], utils.JST)
		if err != nil {
			continue
		}
		out = append(out, models.Holiday{Date: d, Name: row[1], Source: providerName})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no holiday rows in %d records", len(t.Rows))
	}
	return out, nil
}
