// Package rdbstore checkpoints the statistics stores of a solve to a
// RocksDB database, so that a long-running solve can be resumed.
//
// It uses the same key layout as ldbstore: the owning player's index
// followed by the observation sequence.
package rdbstore

import (
	rocksdb "github.com/tecbot/gorocksdb"
)

type Params struct {
	Path         string
	Options      *rocksdb.Options
	ReadOptions  *rocksdb.ReadOptions
	WriteOptions *rocksdb.WriteOptions
}

func DefaultParams(path string) Params {
	opts := rocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(true)

	wOpts := rocksdb.NewDefaultWriteOptions()
	wOpts.SetSync(true)

	return Params{
		Path:         path,
		Options:      opts,
		ReadOptions:  rocksdb.NewDefaultReadOptions(),
		WriteOptions: wOpts,
	}
}

func (p Params) Close() {
	p.Options.Destroy()
	p.ReadOptions.Destroy()
	p.WriteOptions.Destroy()
}
