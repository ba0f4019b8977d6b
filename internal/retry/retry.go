// Package retry implements the shared backoff/retry engine,
// parameterized by media_type.
package retry

import (
	"context"
	"time"

	"github.com/relaynet/pushgateway/internal/model"
)

// Policy bounds the number of attempts for a given media type.
type Policy struct {
	MaxAttempts int
}

// PolicyFor returns the attempt budget for a media type: 11 for
// media_type=sms or missing, 7 otherwise.
func PolicyFor(mediaType model.MediaType, present bool) Policy {
	if !present || mediaType == model.MediaSMS {
		return Policy{MaxAttempts: 11}
	}
	return Policy{MaxAttempts: 7}
}

// Backoff returns the sleep duration before attempt n+1 (0-indexed n):
// 0.5 * 2^n seconds.
func Backoff(attempt int) time.Duration {
	base := 500 * time.Millisecond
	return base << attempt
}

// Attempt is one try against the vendor; retriable=true marks a retriable
// failure (5xx, transport error, stream reset), and so does a non-nil
// err; retriable=false with a nil err stops the loop regardless of the
// result's code.
type Attempt func(ctx context.Context, attemptNum int) (result model.VendorResult, retriable bool, err error)

// Run drives attempt through the policy's backoff schedule. exhausted is
// true when every attempt up to the cap was retriable/erroring, i.e. the
// caller must synthesize the "maximum retries reached" outcome (spec
// §4.3); the last observed result/error is still returned in that case.
func Run(ctx context.Context, p Policy, attempt Attempt) (result model.VendorResult, exhausted bool, err error) {
	for n := 0; n < p.MaxAttempts; n++ {
		var retriable bool
		result, retriable, err = attempt(ctx, n)
		if err == nil && !retriable {
			return result, false, nil
		}
		if n == p.MaxAttempts-1 {
			return result, true, err
		}

		select {
		case <-ctx.Done():
			return result, false, ctx.Err()
		case <-time.After(Backoff(n)):
		}
	}

	return result, true, err
}
