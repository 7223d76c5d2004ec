package cfr

import (
	"fmt"

	"github.com/pkg/errors"
)

// historyRecord packs one step of the game: the decision made, the action
// taken (1-based) and a bitmask of the players informed of it.
type historyRecord struct {
	decisionIndex uint8
	action        uint8
	informed      uint16
}

// History records the sequence of actions taken to reach a point in the game.
// It is presized, rather than a slice, so that copying a History by value
// never shares storage with the original and branching does not allocate.
type History struct {
	records  [MaxHistoryLength]historyRecord
	n        uint8
	complete bool
}

func (h *History) String() string {
	return fmt.Sprintf("%v", h.Actions())
}

// Len returns the number of actions in the history.
func (h *History) Len() int {
	return int(h.n)
}

// Get returns the decision index and action of the ith step.
func (h *History) Get(i int) (decisionIndex int, action byte) {
	if i >= int(h.n) {
		panic(errors.Errorf("index out of range: %d %v", i, h))
	}

	r := h.records[i]
	return int(r.decisionIndex), r.action
}

// ActionFor returns the action taken at the given decision, if it has been reached.
func (h *History) ActionFor(decisionIndex int) (byte, bool) {
	for i := int(h.n) - 1; i >= 0; i-- {
		if int(h.records[i].decisionIndex) == decisionIndex {
			return h.records[i].action, true
		}
	}

	return 0, false
}

// LastDecisionIndex returns the decision index of the most recent step, or -1
// if the history is empty.
func (h *History) LastDecisionIndex() int {
	if h.n == 0 {
		return -1
	}

	return int(h.records[h.n-1].decisionIndex)
}

// Append records that action was taken at the given decision, observed
// by the players in the informed bitmask.
func (h *History) Append(decisionIndex int, action byte, informed uint16) {
	if h.complete {
		panic(errors.Errorf("cannot append to complete history: %v", h))
	}

	if int(h.n) >= len(h.records) {
		panic(errors.Errorf("history exceeded max length: %v", h))
	}

	h.records[h.n] = historyRecord{
		decisionIndex: uint8(decisionIndex),
		action:        action,
		informed:      informed,
	}
	h.n++
}

// MarkComplete records that the game is over.
func (h *History) MarkComplete() {
	h.complete = true
}

// IsComplete reports whether the game is over.
func (h *History) IsComplete() bool {
	return h.complete
}

// Actions returns the actions taken, in order.
func (h *History) Actions() []byte {
	result := make([]byte, h.n)
	for i, r := range h.records[:h.n] {
		result[i] = r.action
	}
	return result
}

// InformationSet decodes the observation sequence of the given player into is.
func (h *History) InformationSet(player int, is *InformationSet) {
	is.Reset()
	mask := uint16(1) << uint(player)
	for _, r := range h.records[:h.n] {
		if r.informed&mask != 0 {
			is.append(r.decisionIndex, r.action)
		}
	}
}

// InformationSet is a bounded buffer holding a player's observation
// sequence: one (decision index, action) pair per observed step.
// It is meant to live on the stack of the traversal that uses it.
type InformationSet struct {
	buf [MaxInformationSetLength + 1]byte
	n   int
}

// Reset empties the buffer.
func (is *InformationSet) Reset() {
	is.n = 0
}

// Len returns the number of encoded bytes.
func (is *InformationSet) Len() int {
	return is.n
}

// Bytes returns the encoded observation sequence. The returned slice
// aliases the buffer.
func (is *InformationSet) Bytes() []byte {
	return is.buf[:is.n]
}

func (is *InformationSet) append(decisionIndex, action uint8) {
	if is.n+2 > MaxInformationSetLength {
		panic(errors.Errorf("information set exceeded max length %d", MaxInformationSetLength))
	}

	is.buf[is.n] = decisionIndex
	is.buf[is.n+1] = action
	is.n += 2
}

// key returns the observation sequence suffixed with the given byte,
// identifying the sequence at one decision. The returned slice aliases the buffer.
func (is *InformationSet) key(suffix byte) []byte {
	is.buf[is.n] = suffix
	return is.buf[:is.n+1]
}
