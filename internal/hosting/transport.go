package hosting

import (
	"net/http"

	"github.com/grokify/mogo/net/http/retryhttp"
)

// tokenTransport adds the "Authorization: token <value>" header.
type tokenTransport struct {
	token string
	base  http.RoundTripper
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.token == "" || req.Header.Get("Authorization") != "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "token "+t.token)
	return t.base.RoundTrip(r)
}

// transportRetryStatusCodes are retried inside the transport. Rate-limit
// responses (403, 429) are left to the typed retry loop so they surface as
// KindRateLimited; a Retry-After sleep in the transport would otherwise run
// into the request timeout.
var transportRetryStatusCodes = []int{
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// newHTTPClient builds the HTTP client used to talk to the API. cfg must
// already have its defaults applied.
func newHTTPClient(cfg Config) *http.Client {
	if cfg.HTTPClient != nil {
		base := cfg.HTTPClient.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		hc := *cfg.HTTPClient
		hc.Transport = &tokenTransport{token: cfg.Token, base: base}
		return &hc
	}

	retryOpts := []retryhttp.Option{
		retryhttp.WithMaxRetries(cfg.MaxRetries),
		retryhttp.WithInitialBackoff(cfg.InitialBackoff),
		retryhttp.WithMaxBackoff(cfg.MaxBackoff),
		retryhttp.WithRetryableStatusCodes(transportRetryStatusCodes),
	}
	rt := retryhttp.NewWithOptions(retryOpts...)

	return &http.Client{
		Transport: &tokenTransport{token: cfg.Token, base: rt},
	}
}
