// Package ldbstore checkpoints the statistics stores of a solve to a
// LevelDB database, so that a long-running solve can be resumed.
//
// Records are keyed by the owning player's index followed by the
// observation sequence they belong to.
package ldbstore
