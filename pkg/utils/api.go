package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/kerbaras/mangamirror/pkg/data"
)

const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:133.0) Gecko/20100101 Firefox/133.0"

// ClientOptions configures every HTTP client the mirror creates.
type ClientOptions struct {
	Timeout   time.Duration
	UserAgent string
}

// NewClient builds a resty client. Retries stay disabled: a failed request
// aborts the run.
func NewClient(opts ClientOptions) *resty.Client {
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	client := resty.New().
		SetLogger(disableLogger{}).
		SetRetryCount(0).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept-Charset", "utf-8")
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	return client
}

// API is a thin GET helper over a base URL.
type API struct {
	client  *resty.Client
	baseURL string
}

func NewAPI(client *resty.Client, baseURL string) *API {
	return &API{client: client, baseURL: baseURL}
}

// Get fetches an absolute URL. Any non-2xx status is an upstream failure.
func (a *API) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := a.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", data.ErrUpstreamFailure, url, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: GET %s: %s", data.ErrUpstreamFailure, url, resp.Status())
	}
	return resp.Body(), nil
}

// URL joins path onto the base URL.
func (a *API) URL(path string) string {
	return a.baseURL + path
}

type disableLogger struct{}

func (d disableLogger) Errorf(string, ...interface{}) {}
func (d disableLogger) Warnf(string, ...interface{})  {}
func (d disableLogger) Debugf(string, ...interface{}) {}
