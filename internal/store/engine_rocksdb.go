//go:build rocksdb

package store

import "github.com/tecbot/gorocksdb"

// rocksdbEngine is the embedded column-family engine used when the
// binary is built with the "rocksdb" tag. It replaces the stub's
// single JSON blob with a real on-disk LSM store, one key per account.
type rocksdbEngine struct {
	db *gorocksdb.DB
	ro *gorocksdb.ReadOptions
	wo *gorocksdb.WriteOptions
}

func newEngine(spoolDir string) (engine, error) {
	opts := gorocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(true)

	db, err := gorocksdb.OpenDb(opts, spoolDir)
	if err != nil {
		return nil, err
	}

	return &rocksdbEngine{
		db: db,
		ro: gorocksdb.NewDefaultReadOptions(),
		wo: gorocksdb.NewDefaultWriteOptions(),
	}, nil
}

func (e *rocksdbEngine) get(key string) ([]byte, bool, error) {
	slice, err := e.db.Get(e.ro, []byte(key))
	if err != nil {
		return nil, false, err
	}
	defer slice.Free()
	if !slice.Exists() {
		return nil, false, nil
	}
	value := make([]byte, slice.Size())
	copy(value, slice.Data())
	return value, true, nil
}

func (e *rocksdbEngine) put(key string, value []byte) error {
	return e.db.Put(e.wo, []byte(key), value)
}

func (e *rocksdbEngine) delete(key string) error {
	return e.db.Delete(e.wo, []byte(key))
}

func (e *rocksdbEngine) close() error {
	e.db.Close()
	return nil
}
