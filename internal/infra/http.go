package infra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultUserAgent is the user agent string used for outbound requests.
const DefaultUserAgent = "jsdabond/1.0 (+https://github.com/seenimoa/jsdabond)"

// maxBodyBytes caps downloaded payloads. A daily JSDA file is a few MB.
var maxBodyBytes int64 = 64 << 20

// ErrBodyTooLarge is returned by Fetch when a payload exceeds the size cap.
var ErrBodyTooLarge = errors.New("response body too large")

// ErrHTTP is returned for a response with a non-2xx status.
type ErrHTTP struct {
	URL        string
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("HTTP %s: %s", e.Status, e.URL)
	}
	return fmt.Sprintf("HTTP %s: %s: %s", e.Status, e.URL, e.Body)
}

// HTTPClient is the shared client used by DoGet.
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}

// Response is a fully read HTTP response.
type Response struct {
	Body        []byte
	ContentType string
	StatusCode  int
}

// DoGet performs a GET request with the given URL and headers, returning the response body.
// The caller is responsible for closing the returned ReadCloser.
// Any status outside 2xx yields *ErrHTTP together with the status code.
func DoGet(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, int, error) {
	resp, err := doRequest(ctx, HTTPClient, url, headers)
	if err != nil {
		return nil, 0, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, resp.StatusCode, httpError(url, resp)
	}
	return resp.Body, resp.StatusCode, nil
}

// Fetch performs a GET with client (HTTPClient when nil) and reads the whole body.
func Fetch(ctx context.Context, client *http.Client, url string, headers map[string]string) (*Response, error) {
	if client == nil {
		client = HTTPClient
	}
	resp, err := doRequest(ctx, client, url, headers)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Response{StatusCode: resp.StatusCode}, httpError(url, resp)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", url, err)
	}
	if int64(len(body)) > maxBodyBytes {
		return nil, fmt.Errorf("read body %s: %w (over %d bytes)", url, ErrBodyTooLarge, maxBodyBytes)
	}
	return &Response{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}, nil
}

func doRequest(ctx context.Context, client *http.Client, url string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "text/csv, text/html, application/xml, */*")
	req.Header.Set("Accept-Language", "ja,en;q=0.8")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", url, err)
	}
	return resp, nil
}

func httpError(url string, resp *http.Response) *ErrHTTP {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return &ErrHTTP{
		URL:        url,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(body),
	}
}
