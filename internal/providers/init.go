// Package providers creates the concrete data providers from config and
// registers them with a provider registry.
package providers

import (
	"time"

	"github.com/seenimoa/jsdabond/internal/config"
	"github.com/seenimoa/jsdabond/internal/provider"
	"github.com/seenimoa/jsdabond/internal/providers/cao"
	"github.com/seenimoa/jsdabond/internal/providers/jsda"
	"github.com/seenimoa/jsdabond/internal/providers/notices"
	"github.com/seenimoa/jsdabond/pkg/utils"
)

// RegisterAllTo registers every provider to the given registry.
// The notices provider is registered only when a feed URL is configured.
func RegisterAllTo(reg *provider.Registry, cfg *config.Config) error {
	minDate, _ := utils.ParseDateJST(cfg.JSDA.MinDate)

	// --- JSDA reference prices (free, no API key) ---
	if err := reg.Register(jsda.New(jsda.Options{
		BaseURL:    cfg.JSDA.BaseURL,
		Timeout:    cfg.JSDA.Timeout(),
		RateLimit:  cfg.JSDA.RateLimit,
		MinDate:    minDate,
		MinColumns: cfg.JSDA.MinColumns,
		CacheTTL:   time.Duration(cfg.Cache.TTL) * time.Second,
		UserAgent:  cfg.JSDA.UserAgent,
	})); err != nil {
		return err
	}

	// --- Cabinet Office holidays ---
	if err := reg.Register(cao.New(cfg.Calendar.SourceURL)); err != nil {
		return err
	}

	// --- Announcements feed (optional) ---
	if cfg.Notices.FeedURL != "" {
		if err := reg.Register(notices.New(cfg.Notices.FeedURL, cfg.Notices.Limit)); err != nil {
			return err
		}
	}

	return nil
}
