package hosting

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/go-github/v84/github"

	"github.com/grokify/versionrewind/pkg/model"
)

// classify maps an error returned by go-github onto a typed *model.Error.
func classify(op string, repo model.RepoRef, err error) *model.Error {
	var typed *model.Error
	if errors.As(err, &typed) {
		return typed
	}

	e := model.NewError(model.KindUnexpectedResponse, op, repo, err)

	var (
		rateErr   *github.RateLimitError
		abuseErr  *github.AbuseRateLimitError
		respErr   *github.ErrorResponse
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
		netErr    net.Error
	)

	switch {
	case errors.As(err, &rateErr):
		e.Kind = model.KindRateLimited
		if d := time.Until(rateErr.Rate.Reset.Time); d > 0 {
			e.RetryAfter = d
		}
	case errors.As(err, &abuseErr):
		e.Kind = model.KindRateLimited
		if abuseErr.RetryAfter != nil {
			e.RetryAfter = *abuseErr.RetryAfter
		}
	case errors.As(err, &respErr):
		if respErr.Response != nil {
			e.Kind = kindForStatus(respErr.Response.StatusCode)
			e.RetryAfter = retryAfter(respErr.Response)
		}
	case errors.Is(err, context.DeadlineExceeded):
		e.Kind = model.KindTransientNetwork
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
		e.Kind = model.KindUnexpectedResponse
	case errors.As(err, &netErr), errors.Is(err, io.ErrUnexpectedEOF):
		e.Kind = model.KindTransientNetwork
	}

	return e
}

func kindForStatus(code int) model.Kind {
	switch {
	case code == http.StatusNotFound, code == http.StatusGone, code == http.StatusUnprocessableEntity:
		return model.KindNotFound
	case code == http.StatusUnauthorized:
		return model.KindConfiguration
	case code == http.StatusForbidden, code == http.StatusTooManyRequests:
		return model.KindRateLimited
	case code >= 500:
		return model.KindTransientNetwork
	default:
		return model.KindUnexpectedResponse
	}
}

// retryAfter reads the Retry-After header in seconds, if present.
func retryAfter(resp *http.Response) time.Duration {
	v := resp.Header.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// withPages records how many pages were consumed before err.
func withPages(err error, pages int) error {
	var typed *model.Error
	if errors.As(err, &typed) {
		typed.Pages = pages
	}
	return err
}
