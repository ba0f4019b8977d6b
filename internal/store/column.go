// ColumnStore is the token store's distributed backend, built on Redis
// (see DESIGN.md for the substitution rationale). The partition by
// (username, domain), clustering by (device_id, app_id) contract maps
// onto a Redis hash per account, field-keyed by device, plus a
// companion presence key mirroring a SIP presence table.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/relaynet/pushgateway/internal/model"
)

// ColumnStore implements TokenStore against Redis.
type ColumnStore struct {
	client *redis.Client
}

// NewColumnStore connects to a Redis instance acting as the contact
// point for the column-store backend.
func NewColumnStore(addr string) *ColumnStore {
	return &ColumnStore{client: redis.NewClient(&redis.Options{Addr: addr})}
}

func accountKey(account string) string {
	return "pushgateway:tokens:" + account
}

// presenceKey derives the (username, domain) partition key from
// "user@domain", matching the companion presence table's key shape.
func presenceKey(account string) string {
	username, domain := splitAccount(account)
	return fmt.Sprintf("pushgateway:presence:%s@%s", username, domain)
}

func splitAccount(account string) (username, domain string) {
	idx := strings.Index(account, "@")
	if idx < 0 {
		return account, ""
	}
	return account[:idx], account[idx+1:]
}

func (c *ColumnStore) Get(ctx context.Context, account string) (map[string]model.DeviceRecord, error) {
	raw, err := c.client.HGetAll(ctx, accountKey(account)).Result()
	if err != nil {
		return nil, fmt.Errorf("column store get %s: %w", account, err)
	}

	devices := make(map[string]model.DeviceRecord, len(raw))
	for key, value := range raw {
		var record model.DeviceRecord
		if err := json.Unmarshal([]byte(value), &record); err != nil {
			return nil, fmt.Errorf("decode device record %s/%s: %w", account, key, err)
		}
		devices[key] = record
	}
	return devices, nil
}

func (c *ColumnStore) Add(ctx context.Context, account string, record model.DeviceRecord) error {
	applyTokenSplit(&record)
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode device record: %w", err)
	}

	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, accountKey(account), record.Key(), raw)
	pipe.Set(ctx, presenceKey(account), "1", 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("column store add %s: %w", account, err)
	}
	return nil
}

func (c *ColumnStore) Remove(ctx context.Context, account string) error {
	pipe := c.client.TxPipeline()
	pipe.Del(ctx, accountKey(account))
	pipe.Del(ctx, presenceKey(account))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("column store remove %s: %w", account, err)
	}
	return nil
}

func (c *ColumnStore) RemoveDevice(ctx context.Context, account, appID, deviceID string) error {
	if err := c.client.HDel(ctx, accountKey(account), appID+"-"+deviceID).Err(); err != nil {
		return fmt.Errorf("column store remove device %s/%s-%s: %w", account, appID, deviceID, err)
	}

	remaining, err := c.client.HLen(ctx, accountKey(account)).Result()
	if err != nil {
		return fmt.Errorf("column store count %s: %w", account, err)
	}
	if remaining == 0 {
		if err := c.client.Del(ctx, presenceKey(account)).Err(); err != nil {
			return fmt.Errorf("column store presence cleanup %s: %w", account, err)
		}
	}
	return nil
}

func (c *ColumnStore) Close() error {
	return c.client.Close()
}
