// Package auditlog implements the remote audit-log fan-out. Each
// application binding's optional {urls, key, timeout_s} is POSTed the
// request/response pair, fire-and-forget, one goroutine per target
// guarded by its own context.WithTimeout.
package auditlog

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/relaynet/pushgateway/internal/model"
)

const defaultTimeout = 2 * time.Second

// Entry is the payload posted to each configured audit target.
type Entry struct {
	Request any `json:"request"`
	Outcome any `json:"outcome"`
}

// Send fans the entry out to every URL in target, each bounded by its
// own timeout, and does not block the caller's response path.
func Send(target *model.AuditTarget, entry Entry) {
	if target == nil || len(target.URLs) == 0 {
		return
	}

	body, err := json.Marshal(entry)
	if err != nil {
		log.Printf("auditlog: encode entry: %v", err)
		return
	}

	timeout := defaultTimeout
	if target.TimeoutS > 0 {
		timeout = time.Duration(target.TimeoutS) * time.Second
	}

	for _, url := range target.URLs {
		go post(url, target.Key, body, timeout)
	}
}

func post(url, key string, body []byte, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Printf("auditlog: build request for %s: %v", url, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Authorization", "key="+key)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Printf("auditlog: post to %s: %v", url, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		log.Printf("auditlog: target %s responded %d", url, resp.StatusCode)
	}
}
