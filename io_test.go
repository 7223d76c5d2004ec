package cfr

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMarshalRecord(t *testing.T) {
	tally := NewInformationSetNodeTally(2, Decision{DecisionByteCode: 9, PlayerIndex: 1, NumPossibleActions: 3})
	tally.IncrementRegret(1, 1.5)
	tally.IncrementRegret(3, -2)
	tally.IncrementCumulativeStrategy(2, 0.25)

	buf, err := MarshalRecord(tally)
	require.NoError(t, err)
	record, err := UnmarshalRecord(buf)
	require.NoError(t, err)

	restored, ok := record.(*InformationSetNodeTally)
	require.True(t, ok, "expected tally, got %T", record)
	require.Equal(t, byte(9), restored.DecisionByteCode())
	require.Equal(t, 2, restored.DecisionIndex())
	require.Equal(t, 1, restored.PlayerIndex())
	for a := byte(1); a <= 3; a++ {
		require.Equal(t, tally.Regret(a), restored.Regret(a))
		require.Equal(t, tally.CumulativeStrategy(a), restored.CumulativeStrategy(a))
	}
}

func TestMarshalChanceAndPayoffs(t *testing.T) {
	d := Decision{PlayerIndex: 2, NumPossibleActions: 3}
	records := []GameStateRecord{
		NewChanceNodeEqualProbabilities(0, d),
		NewChanceNodeUnequalProbabilities(1, d, []float64{0.5, 0, 0.5}),
		&TerminalPayoffs{Utilities: []float64{2, -2}, ResolutionPlayer: 3},
	}

	for _, r := range records {
		buf, err := MarshalRecord(r)
		require.NoError(t, err)
		restored, err := UnmarshalRecord(buf)
		require.NoError(t, err)
		require.Equal(t, r, restored)
	}

	_, err := UnmarshalRecord([]byte{42})
	require.Error(t, err)
	_, err = UnmarshalRecord(nil)
	require.Error(t, err)
}

func TestWriteReadStores(t *testing.T) {
	stores := []InformationSetStore{NewInformationSetTable("p0"), NewInformationSetTable("p1")}
	tally := stores[1].GetOrCreate([]byte{1, 2, 3}, 3, func() GameStateRecord {
		return NewInformationSetNodeTally(3, Decision{PlayerIndex: 1, NumPossibleActions: 2})
	}).(*InformationSetNodeTally)
	tally.IncrementRegret(2, 7)
	stores[0].GetOrCreate([]byte{0xFF}, -1, func() GameStateRecord {
		return &TerminalPayoffs{Utilities: []float64{1, -1}}
	})

	var buf bytes.Buffer
	require.NoError(t, WriteStores(&buf, stores))

	restored := []InformationSetStore{NewInformationSetTable("p0"), NewInformationSetTable("p1")}
	require.NoError(t, ReadStores(bytes.NewReader(buf.Bytes()), restored))
	require.Equal(t, 1, restored[0].Len())
	require.Equal(t, 1, restored[1].Len())

	record, ok := restored[1].Get([]byte{1, 2, 3})
	require.True(t, ok)
	require.Equal(t, 7.0, record.(*InformationSetNodeTally).Regret(2))

	// Restoring into populated stores is an error.
	err := ReadStores(bytes.NewReader(buf.Bytes()), restored)
	require.Error(t, err)

	err = ReadStores(bytes.NewReader(buf.Bytes()), restored[:1])
	require.Error(t, err)
}
