// Package store implements the token store contract: account ->
// {device_key -> device_record} persistence, with two interchangeable
// backends.
package store

import (
	"context"
	"strings"

	"github.com/relaynet/pushgateway/internal/model"
)

// TokenStore is the contract shared by both backends.
type TokenStore interface {
	// Get returns the account's devices, keyed by DeviceRecord.Key().
	// A never-seen account returns an empty map, not an error.
	Get(ctx context.Context, account string) (map[string]model.DeviceRecord, error)
	// Add upserts a device record, splitting an APNs token into
	// {token, background_token} when applicable.
	Add(ctx context.Context, account string, record model.DeviceRecord) error
	// Remove deletes every device registered for account.
	Remove(ctx context.Context, account string) error
	// RemoveDevice deletes one device from account.
	RemoveDevice(ctx context.Context, account, appID, deviceID string) error
	// Close releases backend resources.
	Close() error
}

// tokenSplitDelimiter uses the newer-variant "#" delimiter, not the
// legacy "-", to separate a combined token from its background half.
const tokenSplitDelimiter = "#"

// splitAPNsToken splits a combined "token#background_token" value. It
// returns the original string and an empty background token when the
// delimiter is absent.
func splitAPNsToken(raw string) (token, background string) {
	idx := strings.Index(raw, tokenSplitDelimiter)
	if idx < 0 {
		return raw, ""
	}
	return raw[:idx], raw[idx+len(tokenSplitDelimiter):]
}

// applyTokenSplit mutates an APNs record's Token/BackgroundToken in
// place per the Add() upsert rule.
func applyTokenSplit(record *model.DeviceRecord) {
	if record.Platform != model.PlatformApple {
		return
	}
	token, background := splitAPNsToken(record.Token)
	record.Token = token
	if background != "" {
		record.BackgroundToken = background
	}
}
