package services

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

// presignWithRetry runs a credential-issuing call with a small bounded
// retry. Credential issuance sits on the critical path of both upload
// initiation and download gating, so transient store errors get a few
// chances before surfacing.
func presignWithRetry(ctx context.Context, fn func(ctx context.Context) (string, error)) (string, error) {
	var url string

	backoff := retry.WithMaxRetries(3, retry.NewExponential(100*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		u, err := fn(ctx)
		if err != nil {
			return retry.RetryableError(err)
		}
		url = u
		return nil
	})
	if err != nil {
		return "", err
	}
	return url, nil
}
