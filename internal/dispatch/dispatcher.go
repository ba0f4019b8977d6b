// Package dispatch implements the dispatch() and fanout() operations:
// validation, registry lookup, rendering, the retry/backoff drive
// around the vendor client, and the token-expiry prune on the fanout
// path.
package dispatch

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strconv"
	"sync"

	"github.com/relaynet/pushgateway/internal/apierr"
	"github.com/relaynet/pushgateway/internal/auditlog"
	"github.com/relaynet/pushgateway/internal/model"
	"github.com/relaynet/pushgateway/internal/registry"
	"github.com/relaynet/pushgateway/internal/retry"
	"github.com/relaynet/pushgateway/internal/store"
	"github.com/relaynet/pushgateway/internal/vendor/apns"
)

// Dispatcher drives the two operations. It holds no per-request state;
// the registry's current generation is taken once per request.
type Dispatcher struct {
	Registry *registry.Registry
	Store    store.TokenStore
	Metrics  *Metrics
	Debug    bool
}

func outcomeFromErr(e *apierr.Error) model.Outcome {
	return model.Outcome{Code: e.Status(), Description: e.Error()}
}

// Dispatch is the single-device path.
func (d *Dispatcher) Dispatch(ctx context.Context, req model.PushRequest) model.Outcome {
	if verr := Validate(req); verr != nil {
		return outcomeFromErr(verr)
	}

	table := d.Registry.Current()
	binding, err := table.Lookup(req.AppID, req.Platform)
	if err != nil || binding.Invalid {
		return outcomeFromErr(apierr.NotConfigured(req.AppID, string(req.Platform)))
	}

	if verr := ValidateFamily(req, binding.Family); verr != nil {
		return outcomeFromErr(verr)
	}

	headers := binding.Renderer.Headers(req)
	payload, err := binding.Renderer.Payload(req)
	if err != nil {
		return outcomeFromErr(apierr.Internal(fmt.Sprintf("renderer %T failed to render payload", binding.Renderer), err))
	}

	policy := retry.PolicyFor(req.MediaType, req.HasMediaType)
	rendered := model.RenderedMessage{Headers: headers, Payload: payload}
	result, exhausted, runErr := retry.Run(ctx, policy, d.sendAttempt(binding, rendered, req.Token))

	outcome := d.mapResult(binding, result, exhausted, runErr)
	auditlog.Send(binding.Audit, auditlog.Entry{Request: req, Outcome: outcome})
	return outcome
}

func (d *Dispatcher) sendAttempt(b *registry.Binding, rendered model.RenderedMessage, token string) retry.Attempt {
	return func(ctx context.Context, n int) (model.VendorResult, bool, error) {
		if d.Metrics != nil {
			d.Metrics.Attempts.WithLabelValues(string(b.Key.Platform), b.Key.AppID).Inc()
		}

		var (
			result    model.VendorResult
			retriable bool
			err       error
		)
		switch b.Key.Platform {
		case model.PlatformApple:
			result, retriable, err = b.APNSClient.Send(token, rendered.Headers, rendered.Payload)
		case model.PlatformFirebase:
			result, retriable, err = b.FCMClient.Send(rendered.Headers, rendered.Payload)
		}

		if d.Metrics != nil {
			d.Metrics.Outcomes.WithLabelValues(string(b.Key.Platform), b.Key.AppID, strconv.Itoa(result.Code)).Inc()
		}
		if d.Debug {
			log.Printf("dispatch: attempt=%d app_id=%s headers=%v payload=%s -> code=%d reason=%s body=%s",
				n, b.Key.AppID, rendered.Headers, rendered.Payload, result.Code, result.Reason, result.Body)
		}
		return result, retriable, err
	}
}

func (d *Dispatcher) mapResult(b *registry.Binding, result model.VendorResult, exhausted bool, err error) model.Outcome {
	if exhausted {
		return model.Outcome{Code: result.Code, Description: "maximum retries reached"}
	}
	if err != nil {
		return model.Outcome{Code: 500, Description: err.Error()}
	}

	description := result.Reason
	if b.Key.Platform == model.PlatformApple && result.Reason != "" {
		description = apns.Describe(result.Reason)
	}
	return model.Outcome{Code: result.Code, Description: description}
}

// Fanout is the account path.
func (d *Dispatcher) Fanout(ctx context.Context, account string, req model.PushRequest) model.Outcome {
	devices, err := d.Store.Get(ctx, account)
	if err != nil {
		return outcomeFromErr(apierr.Store(err))
	}
	if len(devices) == 0 {
		_ = d.Store.Remove(ctx, account)
		return outcomeFromErr(apierr.UserNotFound(account))
	}

	type job struct {
		req model.PushRequest
	}
	var jobs []job

	for _, key := range sortedKeys(devices) {
		record := devices[key]
		if req.ExplicitDevice != "" && record.DeviceID != req.ExplicitDevice {
			continue
		}
		merged := mergeDeviceRequest(record, req)
		if verr := Validate(merged); verr != nil {
			return outcomeFromErr(verr)
		}
		jobs = append(jobs, job{req: merged})
	}

	type result struct {
		appID, deviceID string
		outcome         model.Outcome
	}
	results := make([]result, len(jobs))

	var wg sync.WaitGroup
	for i, j := range jobs {
		wg.Add(1)
		go func(i int, j job) {
			defer wg.Done()
			results[i] = result{
				appID:    j.req.AppID,
				deviceID: j.req.DeviceID,
				outcome:  d.Dispatch(ctx, j.req),
			}
		}(i, j)
	}
	wg.Wait()

	outcomes := make([]model.Outcome, len(results))
	type removal struct{ appID, deviceID string }
	var toRemove []removal

	for i, r := range results {
		outcomes[i] = r.outcome
		if r.outcome.Code == 410 {
			toRemove = append(toRemove, removal{appID: r.appID, deviceID: r.deviceID})
			outcomes[i].Code = 200
		}
	}

	for _, rm := range toRemove {
		if err := d.Store.RemoveDevice(ctx, account, rm.appID, rm.deviceID); err != nil {
			log.Printf("dispatch: failed to remove expired device account=%s app_id=%s device_id=%s: %v", account, rm.appID, rm.deviceID, err)
		}
	}

	return model.Outcome{Code: 200, Description: "fanout complete", Data: outcomes}
}

// mergeDeviceRequest applies the merge rule: device-specific fields
// win for {platform, token, silent, app_id, device_id}; caller-specified
// fields win for the rest. A {cancel, message} event additionally
// substitutes the device's background token for the foreground one.
func mergeDeviceRequest(record model.DeviceRecord, req model.PushRequest) model.PushRequest {
	merged := req
	merged.Platform = record.Platform
	merged.Token = record.Token
	merged.Silent = record.Silent
	merged.AppID = record.AppID
	merged.DeviceID = record.DeviceID

	if (merged.Event == model.EventCancel || merged.Event == model.EventMessage) && record.BackgroundToken != "" {
		merged.Token = record.BackgroundToken
	}
	return merged
}

// sortedKeys gives a deterministic device order. The store contract
// returns a map; Go maps have no iteration order, so this order is
// this implementation's own choice, not a promise the store makes.
func sortedKeys(devices map[string]model.DeviceRecord) []string {
	keys := make([]string, 0, len(devices))
	for k := range devices {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
