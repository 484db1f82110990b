// Package notices implements a provider for an RSS/Atom announcements feed
// shown next to the price viewer, such as JSDA's "what's new" feed.
package notices

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/jsdabond/internal/infra"
	"github.com/seenimoa/jsdabond/internal/provider"
	"github.com/seenimoa/jsdabond/pkg/models"
)

const providerName = "notices"

// ErrNoFeed is returned when no feed URL is configured.
var ErrNoFeed = errors.New("notices feed is not configured")

// Provider reads one feed.
type Provider struct {
	provider.BaseProvider
	feedURL string
}

// New creates the provider. An empty feedURL yields a provider whose
// fetcher always fails with ErrNoFeed.
func New(feedURL string, defaultLimit int) *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"Announcements feed (RSS/Atom)",
			feedURL,
		),
		feedURL: feedURL,
	}
	p.RegisterFetcher(newNoticesFetcher(feedURL, defaultLimit))
	return p
}

// Ping fetches the feed once.
func (p *Provider) Ping(ctx context.Context) error {
	if p.feedURL == "" {
		return ErrNoFeed
	}
	body, _, err := infra.DoGet(ctx, p.feedURL, nil)
	if err != nil {
		return err
	}
	return body.Close()
}

type noticesFetcher struct {
	provider.BaseFetcher
	feedURL      string
	defaultLimit int
	parser       *gofeed.Parser
}

func newNoticesFetcher(feedURL string, defaultLimit int) *noticesFetcher {
	return &noticesFetcher{
		BaseFetcher: provider.NewBaseFetcherWithOpts(
			provider.ModelNotices,
			"Latest announcements, newest first",
			nil,
			[]string{provider.ParamLimit, provider.ParamRefresh},
			10*time.Minute, 2, time.Second,
		),
		feedURL:      feedURL,
		defaultLimit: defaultLimit,
		parser:       gofeed.NewParser(),
	}
}

func (f *noticesFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	if f.feedURL == "" {
		return nil, ErrNoFeed
	}
	limit := f.defaultLimit
	if v := params[provider.ParamLimit]; v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, &provider.ErrInvalidParam{Param: provider.ParamLimit, Value: v, Detail: "expected a non-negative integer"}
		}
		limit = n
	}

	cacheKey := provider.CacheKey(provider.ModelNotices, params)
	if cached, ok := f.CacheGet(cacheKey); ok && !provider.WantsRefresh(params) {
		return &provider.FetchResult{Data: cached, FetchedAt: time.Now(), Cached: true}, nil
	}

	if err := f.RateLimit(ctx); err != nil {
		return nil, err
	}
	items, err := f.fetchFeed(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	f.CacheSet(cacheKey, items)
	return &provider.FetchResult{Data: items, FetchedAt: time.Now()}, nil
}

func (f *noticesFetcher) fetchFeed(ctx context.Context) ([]models.Notice, error) {
	body, _, err := infra.DoGet(ctx, f.feedURL, map[string]string{
		"Accept": "application/rss+xml, application/atom+xml, application/xml, */*",
	})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	feed, err := f.parser.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", f.feedURL, err)
	}

	out := make([]models.Notice, 0, len(feed.Items))
	for _, item := range feed.Items {
		n := models.Notice{
			Title:   strings.TrimSpace(item.Title),
			Link:    item.Link,
			Summary: cleanHTML(item.Description),
			Source:  feed.Title,
		}
		switch {
		case item.PublishedParsed != nil:
			n.Published = *item.PublishedParsed
		case item.UpdatedParsed != nil:
			n.Published = *item.UpdatedParsed
		}
		out = append(out, n)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Published.After(out[j].Published) })
	return out, nil
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}
