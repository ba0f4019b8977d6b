package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/relaynet/pushgateway/internal/model"
)

// engine is the per-account byte-oriented KV primitive the File backend
// is built on. Two implementations exist behind a build tag: a real
// embedded column-family store (gorocksdb, +build rocksdb) and a
// single-blob-file fallback (+build !rocksdb) that gives the same
// load-on-start, rewrite-on-mutation, single-process contract without
// a cgo dependency.
type engine interface {
	get(key string) ([]byte, bool, error)
	put(key string, value []byte) error
	delete(key string) error
	close() error
}

// FileStore is the token store's local-file backend.
type FileStore struct {
	mu  sync.Mutex
	eng engine
}

// NewFileStore opens (or creates) the spool at spoolDir.
func NewFileStore(spoolDir string) (*FileStore, error) {
	eng, err := newEngine(spoolDir)
	if err != nil {
		return nil, fmt.Errorf("open file token store at %s: %w", spoolDir, err)
	}
	return &FileStore{eng: eng}, nil
}

func (s *FileStore) Get(_ context.Context, account string) (map[string]model.DeviceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(account)
}

func (s *FileStore) load(account string) (map[string]model.DeviceRecord, error) {
	raw, ok, err := s.eng.get(account)
	if err != nil {
		return nil, err
	}
	if !ok {
		return map[string]model.DeviceRecord{}, nil
	}
	var devices map[string]model.DeviceRecord
	if err := json.Unmarshal(raw, &devices); err != nil {
		return nil, fmt.Errorf("decode spool entry for %s: %w", account, err)
	}
	return devices, nil
}

func (s *FileStore) Add(_ context.Context, account string, record model.DeviceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices, err := s.load(account)
	if err != nil {
		return err
	}
	applyTokenSplit(&record)
	devices[record.Key()] = record

	raw, err := json.Marshal(devices)
	if err != nil {
		return fmt.Errorf("encode spool entry for %s: %w", account, err)
	}
	return s.eng.put(account, raw)
}

func (s *FileStore) Remove(_ context.Context, account string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.delete(account)
}

func (s *FileStore) RemoveDevice(_ context.Context, account, appID, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	devices, err := s.load(account)
	if err != nil {
		return err
	}
	delete(devices, appID+"-"+deviceID)

	if len(devices) == 0 {
		return s.eng.delete(account)
	}
	raw, err := json.Marshal(devices)
	if err != nil {
		return fmt.Errorf("encode spool entry for %s: %w", account, err)
	}
	return s.eng.put(account, raw)
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.close()
}
