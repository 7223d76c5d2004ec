package rdbstore

import (
	"bytes"
	"encoding/gob"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	rocksdb "github.com/tecbot/gorocksdb"

	"github.com/mbabramo/ACESim4-sub001"
)

var iterKey = []byte{0xFF, 'i', 't', 'e', 'r'}

// Checkpoint is a RocksDB database holding a snapshot of the stores.
type Checkpoint struct {
	params Params
	db     *rocksdb.DB
}

// Open opens (or creates) the checkpoint database described by params.
func Open(params Params) (*Checkpoint, error) {
	db, err := rocksdb.OpenDb(params.Options, params.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "open rocksdb checkpoint %s", params.Path)
	}

	return &Checkpoint{params: params, db: db}, nil
}

// Close implements io.Closer.
func (c *Checkpoint) Close() error {
	c.db.Close()
	return nil
}

// Save writes every record of the stores, along with the iteration
// count, in one atomic batch.
func (c *Checkpoint) Save(stores []cfr.InformationSetStore, iter int) error {
	wb := rocksdb.NewWriteBatch()
	defer wb.Destroy()

	for player, store := range stores {
		var err error
		store.Range(func(key string, record cfr.GameStateRecord) bool {
			var buf []byte
			if buf, err = cfr.MarshalRecord(record); err != nil {
				return false
			}

			wb.Put(recordKey(player, key), buf)
			return true
		})

		if err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(iter); err != nil {
		return err
	}
	wb.Put(iterKey, buf.Bytes())

	n := wb.Count() - 1
	if err := c.db.Write(c.params.WriteOptions, wb); err != nil {
		return errors.Wrapf(err, "write checkpoint %s", c.params.Path)
	}

	glog.Infof("Saved %d records at iteration %d to %s", n, iter, c.params.Path)
	return nil
}

// Load restores the saved records into the given (empty) stores and
// returns the saved iteration count, or 0 if nothing has been saved.
func (c *Checkpoint) Load(stores []cfr.InformationSetStore) (int, error) {
	it := c.db.NewIterator(c.params.ReadOptions)
	defer it.Close()

	iter, n := 0, 0
	for it.SeekToFirst(); it.Valid(); it.Next() {
		key, value := it.Key(), it.Value()
		restored, err := c.restore(stores, key.Data(), value.Data(), &iter)
		key.Free()
		value.Free()
		if err != nil {
			return 0, err
		}

		if restored {
			n++
		}
	}

	if err := it.Err(); err != nil {
		return 0, errors.Wrapf(err, "read checkpoint %s", c.params.Path)
	}

	glog.Infof("Loaded %d records at iteration %d from %s", n, iter, c.params.Path)
	return iter, nil
}

// restore decodes one entry, reporting whether it was a record.
func (c *Checkpoint) restore(stores []cfr.InformationSetStore, key, value []byte, iter *int) (bool, error) {
	if bytes.Equal(key, iterKey) {
		err := gob.NewDecoder(bytes.NewReader(value)).Decode(iter)
		return false, errors.Wrap(err, "decode iteration count")
	}

	player := int(key[0])
	if player >= len(stores) {
		return false, errors.Errorf("checkpoint record for player %d, but only %d stores", player, len(stores))
	}

	record, err := cfr.UnmarshalRecord(value)
	if err != nil {
		return false, err
	}

	// The store copies the key, so it may alias memory freed by the caller.
	return true, cfr.RestoreRecord(stores[player], key[1:], record)
}

func recordKey(player int, key string) []byte {
	result := make([]byte, 0, len(key)+1)
	result = append(result, byte(player))
	return append(result, key...)
}
