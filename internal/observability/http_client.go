package observability

import (
	"net/http"
	"time"

	sentryhttpclient "github.com/getsentry/sentry-go/httpclient"
)

var tracePropagationTargets = []string{
	"api.stripe.com",
	"api.ekartlogistics.com",
}

func WrapRoundTripper(base http.RoundTripper) http.RoundTripper {
	return sentryhttpclient.NewSentryRoundTripper(
		base,
		sentryhttpclient.WithTracePropagationTargets(tracePropagationTargets),
	)
}

// NewHTTPClient returns an instrumented client for vendor calls. Timeout
// bounds every outbound request so a hung vendor surfaces as an error.
func NewHTTPClient(timeout time.Duration) *http.Client {
	client := &http.Client{
		Transport: WrapRoundTripper(http.DefaultTransport),
	}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return client
}
