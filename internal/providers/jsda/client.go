package jsda

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/seenimoa/jsdabond/internal/infra"
	"github.com/seenimoa/jsdabond/pkg/utils"
)

// DefaultBaseURL is the directory holding the yearly folders of daily files.
const DefaultBaseURL = "https://market.jsda.or.jp/shijyo/saiken/baibai/baisanchi/files"

// ErrDateOutOfRange is wrapped by FetchError for dates before the first
// published file or after today.
var ErrDateOutOfRange = errors.New("date out of range")

// FetchError reports a failed download of a daily file.
type FetchError struct {
	Date       time.Time
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	day := utils.FormatDateJST(e.Date)
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d from %s", day, e.StatusCode, e.URL)
	}
	return fmt.Sprintf("fetch %s: %v", day, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NoData reports whether the server said no file exists for the date.
func (e *FetchError) NoData() bool {
	switch e.StatusCode {
	case http.StatusNotFound, http.StatusForbidden, http.StatusGone:
		return true
	}
	return false
}

// FileName returns the daily file name for date, e.g. S261016.csv.
func FileName(date time.Time) string {
	return "S" + date.In(utils.JST).Format("060102") + ".csv"
}

// BuildURL returns the download URL of the daily file for date under base.
func BuildURL(base string, date time.Time) string {
	return strings.TrimRight(base, "/") + "/" + date.In(utils.JST).Format("2006") + "/" + FileName(date)
}

// Client downloads daily files.
type Client struct {
	BaseURL   string
	HTTP      *http.Client
	MinDate   time.Time
	UserAgent string

	// Now returns the current time; tests pin it.
	Now func() time.Time
}

// NewClient returns a client for base with the given request timeout.
func NewClient(base string, timeout time.Duration) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	minDate, _ := utils.ParseDateJST("2000-01-01")
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: timeout},
		MinDate: minDate,
		Now:     utils.NowJST,
	}
}

// CheckDate rejects dates outside [MinDate, today].
func (c *Client) CheckDate(date time.Time) error {
	d := utils.DateOnly(date)
	today := utils.DateOnly(c.Now())
	if d.Before(utils.DateOnly(c.MinDate)) || d.After(today) {
		return &FetchError{
			Date: d,
			Err: fmt.Errorf("%w: %s is outside %s to %s", ErrDateOutOfRange,
				utils.FormatDateJST(d), utils.FormatDateJST(c.MinDate), utils.FormatDateJST(today)),
		}
	}
	return nil
}

// Download fetches the raw daily file for date.
func (c *Client) Download(ctx context.Context, date time.Time) (*infra.Response, error) {
	if err := c.CheckDate(date); err != nil {
		return nil, err
	}
	url := BuildURL(c.BaseURL, date)

	var headers map[string]string
	if c.UserAgent != "" {
		headers = map[string]string{"User-Agent": c.UserAgent}
	}
	resp, err := infra.Fetch(ctx, c.HTTP, url, headers)
	if err != nil {
		fe := &FetchError{Date: utils.DateOnly(date), URL: url, Err: err}
		var httpErr *infra.ErrHTTP
		if errors.As(err, &httpErr) {
			fe.StatusCode = httpErr.StatusCode
		}
		return nil, fe
	}
	return resp, nil
}
