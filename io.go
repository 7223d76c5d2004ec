package cfr

import (
	"bytes"
	"encoding/gob"
	"io"

	"github.com/pkg/errors"
)

// Kinds of serialized records.
const (
	kindTally byte = iota + 1
	kindChanceEqual
	kindChanceUnequal
	kindTerminalPayoffs
)

type tallyState struct {
	DecisionByteCode   byte
	DecisionIndex      int
	PlayerIndex        int
	Regrets            []float64
	CumulativeStrategy []float64
}

type chanceState struct {
	DecisionIndex int
	PlayerIndex   int
	NumActions    int
	Probabilities []float64
}

// GobEncode implements gob.GobEncoder.
func (t *InformationSetNodeTally) GobEncode() ([]byte, error) {
	state := tallyState{
		DecisionByteCode:   t.decisionByteCode,
		DecisionIndex:      t.decisionIndex,
		PlayerIndex:        t.playerIndex,
		Regrets:            make([]float64, len(t.regrets)),
		CumulativeStrategy: make([]float64, len(t.cumulativeStrategy)),
	}

	for i := range t.regrets {
		state.Regrets[i] = t.regrets[i].Load()
		state.CumulativeStrategy[i] = t.cumulativeStrategy[i].Load()
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&state); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// GobDecode implements gob.GobDecoder.
func (t *InformationSetNodeTally) GobDecode(buf []byte) error {
	var state tallyState
	if err := gob.NewDecoder(bytes.NewReader(buf)).Decode(&state); err != nil {
		return err
	}

	if len(state.Regrets) != len(state.CumulativeStrategy) {
		return errors.Errorf("tally has %d regrets but %d strategy weights",
			len(state.Regrets), len(state.CumulativeStrategy))
	}

	*t = *newTally(state.DecisionByteCode, state.DecisionIndex, state.PlayerIndex, len(state.Regrets))
	for i := range state.Regrets {
		t.regrets[i].Store(state.Regrets[i])
		t.cumulativeStrategy[i].Store(state.CumulativeStrategy[i])
	}

	return nil
}

// MarshalRecord serializes a record for checkpointing.
func MarshalRecord(record GameStateRecord) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	var err error
	switch r := record.(type) {
	case *InformationSetNodeTally:
		buf.WriteByte(kindTally)
		err = enc.Encode(r)
	case *ChanceNodeEqualProbabilities:
		buf.WriteByte(kindChanceEqual)
		err = enc.Encode(&chanceState{
			DecisionIndex: r.decisionIndex,
			PlayerIndex:   r.playerIndex,
			NumActions:    r.numActions,
		})
	case *ChanceNodeUnequalProbabilities:
		buf.WriteByte(kindChanceUnequal)
		err = enc.Encode(&chanceState{
			DecisionIndex: r.decisionIndex,
			PlayerIndex:   r.playerIndex,
			NumActions:    r.numActions,
			Probabilities: r.probabilities,
		})
	case *TerminalPayoffs:
		buf.WriteByte(kindTerminalPayoffs)
		err = enc.Encode(r)
	default:
		return nil, errors.Errorf("cannot marshal record of type %T", record)
	}

	if err != nil {
		return nil, errors.Wrapf(err, "marshal %T", record)
	}

	return buf.Bytes(), nil
}

// UnmarshalRecord decodes a record written by MarshalRecord.
func UnmarshalRecord(buf []byte) (GameStateRecord, error) {
	if len(buf) == 0 {
		return nil, errors.New("empty record")
	}

	dec := gob.NewDecoder(bytes.NewReader(buf[1:]))
	switch buf[0] {
	case kindTally:
		t := &InformationSetNodeTally{}
		if err := dec.Decode(t); err != nil {
			return nil, errors.Wrap(err, "decode tally")
		}
		return t, nil
	case kindChanceEqual, kindChanceUnequal:
		var state chanceState
		if err := dec.Decode(&state); err != nil {
			return nil, errors.Wrap(err, "decode chance settings")
		}
		return state.record(buf[0] == kindChanceEqual)
	case kindTerminalPayoffs:
		tp := &TerminalPayoffs{}
		if err := dec.Decode(tp); err != nil {
			return nil, errors.Wrap(err, "decode terminal payoffs")
		}
		return tp, nil
	default:
		return nil, errors.Errorf("unknown record kind %d", buf[0])
	}
}

func (s *chanceState) record(equal bool) (GameStateRecord, error) {
	if s.NumActions < 1 || s.NumActions > MaxNumActions {
		return nil, errors.Errorf("chance settings have %d actions", s.NumActions)
	}

	d := Decision{PlayerIndex: s.PlayerIndex, NumPossibleActions: byte(s.NumActions)}
	if equal {
		return NewChanceNodeEqualProbabilities(s.DecisionIndex, d), nil
	}

	if len(s.Probabilities) != s.NumActions {
		return nil, errors.Errorf("chance settings have %d actions but %d probabilities",
			s.NumActions, len(s.Probabilities))
	}

	return NewChanceNodeUnequalProbabilities(s.DecisionIndex, d, s.Probabilities), nil
}

// RestoreRecord inserts a deserialized record into store under key. It is
// an error if a different record is already stored there.
func RestoreRecord(store InformationSetStore, key []byte, record GameStateRecord) error {
	stored := store.GetOrCreate(key, record.DecisionIndex(), func() GameStateRecord { return record })
	if !sameRecord(stored, record) {
		return errors.Errorf("key %v already holds %v", key, stored)
	}

	return nil
}

// WriteStores writes every record of the given stores to w.
func WriteStores(w io.Writer, stores []InformationSetStore) error {
	enc := gob.NewEncoder(w)
	if err := enc.Encode(len(stores)); err != nil {
		return err
	}

	for _, store := range stores {
		if err := enc.Encode(store.Len()); err != nil {
			return err
		}

		var err error
		store.Range(func(key string, record GameStateRecord) bool {
			var buf []byte
			if buf, err = MarshalRecord(record); err != nil {
				return false
			}

			if err = enc.Encode(key); err != nil {
				return false
			}

			err = enc.Encode(buf)
			return err == nil
		})

		if err != nil {
			return err
		}
	}

	return nil
}

// ReadStores restores records written by WriteStores into the given
// stores, which should be empty.
func ReadStores(r io.Reader, stores []InformationSetStore) error {
	dec := gob.NewDecoder(r)
	var nStores int
	if err := dec.Decode(&nStores); err != nil {
		return err
	}

	if nStores != len(stores) {
		return errors.Errorf("checkpoint has %d stores, expected %d", nStores, len(stores))
	}

	for _, store := range stores {
		var n int
		if err := dec.Decode(&n); err != nil {
			return err
		}

		for i := 0; i < n; i++ {
			var key string
			if err := dec.Decode(&key); err != nil {
				return err
			}

			var buf []byte
			if err := dec.Decode(&buf); err != nil {
				return err
			}

			record, err := UnmarshalRecord(buf)
			if err != nil {
				return err
			}

			if err := RestoreRecord(store, []byte(key), record); err != nil {
				return err
			}
		}
	}

	return nil
}
