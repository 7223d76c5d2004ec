package ldbstore

import (
	"bytes"
	"encoding/gob"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/mbabramo/ACESim4-sub001"
)

// iterKey holds the iteration count. It sorts after every record key,
// whose first byte is a player index.
var iterKey = []byte{0xFF, 'i', 't', 'e', 'r'}

// Checkpoint is a LevelDB database holding a snapshot of the stores.
type Checkpoint struct {
	path  string
	db    *leveldb.DB
	rOpts *opt.ReadOptions
	wOpts *opt.WriteOptions
}

// Open opens (or creates) the checkpoint database at the given path.
func Open(path string, opts *opt.Options) (*Checkpoint, error) {
	db, err := leveldb.OpenFile(path, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "open leveldb checkpoint %s", path)
	}

	return &Checkpoint{
		path:  path,
		db:    db,
		wOpts: &opt.WriteOptions{Sync: true},
	}, nil
}

// Close implements io.Closer.
func (c *Checkpoint) Close() error {
	return c.db.Close()
}

// Save writes every record of the stores, along with the iteration
// count, in one atomic batch.
func (c *Checkpoint) Save(stores []cfr.InformationSetStore, iter int) error {
	batch := new(leveldb.Batch)
	for player, store := range stores {
		var err error
		store.Range(func(key string, record cfr.GameStateRecord) bool {
			var buf []byte
			if buf, err = cfr.MarshalRecord(record); err != nil {
				return false
			}

			batch.Put(recordKey(player, key), buf)
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
	batch.Put(iterKey, buf.Bytes())

	if err := c.db.Write(batch, c.wOpts); err != nil {
		return errors.Wrapf(err, "write checkpoint %s", c.path)
	}

	glog.Infof("Saved %d records at iteration %d to %s", batch.Len()-1, iter, c.path)
	return nil
}

// Load restores the saved records into the given (empty) stores and
// returns the saved iteration count, or 0 if nothing has been saved.
func (c *Checkpoint) Load(stores []cfr.InformationSetStore) (int, error) {
	it := c.db.NewIterator(nil, c.rOpts)
	defer it.Release()

	iter, n := 0, 0
	for it.Next() {
		key, value := it.Key(), it.Value()
		if bytes.Equal(key, iterKey) {
			if err := gob.NewDecoder(bytes.NewReader(value)).Decode(&iter); err != nil {
				return 0, errors.Wrap(err, "decode iteration count")
			}
			continue
		}

		player := int(key[0])
		if player >= len(stores) {
			return 0, errors.Errorf("checkpoint record for player %d, but only %d stores", player, len(stores))
		}

		record, err := cfr.UnmarshalRecord(value)
		if err != nil {
			return 0, err
		}

		if err := cfr.RestoreRecord(stores[player], key[1:], record); err != nil {
			return 0, err
		}
		n++
	}

	if err := it.Error(); err != nil {
		return 0, errors.Wrapf(err, "read checkpoint %s", c.path)
	}

	glog.Infof("Loaded %d records at iteration %d from %s", n, iter, c.path)
	return iter, nil
}

func recordKey(player int, key string) []byte {
	result := make([]byte, 0, len(key)+1)
	result = append(result, byte(player))
	return append(result, key...)
}
