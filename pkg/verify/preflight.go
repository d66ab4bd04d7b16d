package verify

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/simple-container-com/go-aws-lambda-sdk/pkg/util/retry"

	"github.com/integrail/chatbot-verify/pkg/browser"
)

// PreflightCooldown is the pause between server probes.
var PreflightCooldown = 500 * time.Millisecond

// WaitForServer probes url with GET until it answers below 500 or attempts
// run out. Exhaustion is reported as a navigation error.
func WaitForServer(ctx context.Context, url string, attempts int, log *slog.Logger) error {
	httpClient := &http.Client{Timeout: 2 * time.Second}
	_, err := retry.With(retry.Config[any]{
		AttemptErrorCallback: func(i int, err error) {
			log.Warn("server is not ready", "url", url, "attempt", i+1, "err", err)
			select {
			case <-ctx.Done():
			case <-time.After(PreflightCooldown):
			}
		},
		Action: func() (any, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return nil, err
			}
			resp, err := httpClient.Do(req)
			if err != nil {
				return nil, err
			}
			_ = resp.Body.Close()
			if resp.StatusCode >= http.StatusInternalServerError {
				return nil, errors.Errorf("status code %d", resp.StatusCode)
			}
			return nil, nil
		},
		MaxRetries: lo.If(attempts <= 0, 1).Else(attempts),
	})
	if err != nil {
		return browser.Navigation(url, errors.Wrapf(err, "server did not become ready after %d attempts", attempts))
	}
	return nil
}
