package cfr

import (
	"sync"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

const (
	tableShardCount = 64
	tableShardMask  = tableShardCount - 1
)

type tableShard struct {
	mu      sync.RWMutex
	records map[string]GameStateRecord
}

// InformationSetTable implements InformationSetStore with an in-memory
// map sharded by key hash. It is safe for concurrent use.
type InformationSetTable struct {
	name   string
	shards [tableShardCount]tableShard
	n      atomic.Int64
}

var _ InformationSetStore = &InformationSetTable{}

// NewInformationSetTable returns an empty table. The name is used in log messages.
func NewInformationSetTable(name string) *InformationSetTable {
	t := &InformationSetTable{name: name}
	for i := range t.shards {
		t.shards[i].records = make(map[string]GameStateRecord)
	}
	return t
}

// NewInformationSetTables returns one empty table per player of the game.
func NewInformationSetTables(game GameDefinition) []InformationSetStore {
	players := game.Players()
	stores := make([]InformationSetStore, len(players))
	for i, p := range players {
		stores[i] = NewInformationSetTable(p.Name)
	}
	return stores
}

// Get implements InformationSetStore.
func (t *InformationSetTable) Get(key []byte) (GameStateRecord, bool) {
	shard := t.shardFor(key)
	shard.mu.RLock()
	record, ok := shard.records[string(key)]
	shard.mu.RUnlock()
	return record, ok
}

// GetOrCreate implements InformationSetStore.
func (t *InformationSetTable) GetOrCreate(key []byte, decisionIndex int, factory func() GameStateRecord) GameStateRecord {
	shard := t.shardFor(key)

	shard.mu.RLock()
	record, ok := shard.records[string(key)]
	shard.mu.RUnlock()
	if ok {
		checkDecisionIndex(record, decisionIndex, key)
		return record
	}

	shard.mu.Lock()
	defer shard.mu.Unlock()
	if record, ok = shard.records[string(key)]; ok {
		checkDecisionIndex(record, decisionIndex, key)
		return record
	}

	record = factory()
	checkDecisionIndex(record, decisionIndex, key)
	shard.records[string(key)] = record
	if n := t.n.Inc(); n%100000 == 0 {
		glog.V(2).Infof("%s - %d information sets", t.name, n)
	}

	return record
}

func checkDecisionIndex(record GameStateRecord, decisionIndex int, key []byte) {
	if record.DecisionIndex() != decisionIndex {
		panic(errors.Errorf("record for key %v has decision index %d, expected %d",
			key, record.DecisionIndex(), decisionIndex))
	}
}

// Range implements InformationSetStore. fn must not create records in t.
func (t *InformationSetTable) Range(fn func(key string, record GameStateRecord) bool) {
	for i := range t.shards {
		shard := &t.shards[i]
		shard.mu.RLock()
		for k, v := range shard.records {
			if !fn(k, v) {
				shard.mu.RUnlock()
				return
			}
		}
		shard.mu.RUnlock()
	}
}

// Len implements InformationSetStore.
func (t *InformationSetTable) Len() int {
	return int(t.n.Load())
}

func (t *InformationSetTable) shardFor(key []byte) *tableShard {
	return &t.shards[hashKey(key)&tableShardMask]
}

// hashKey is 32-bit FNV-1a.
func hashKey(key []byte) uint32 {
	const offset32 = 2166136261
	const prime32 = 16777619
	var hash uint32 = offset32
	for _, b := range key {
		hash ^= uint32(b)
		hash *= prime32
	}
	return hash
}
