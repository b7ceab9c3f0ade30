// Package hashtree builds the two-level SHA-1 Merkle structure (sub-hash
// tables rolled up into a single master-hash-table) that a GOD container
// uses for on-device integrity verification.
package hashtree

import (
	"fmt"

	"github.com/x360tools/iso2god/pkg/blockhash"
	"github.com/x360tools/iso2god/pkg/common"
)

// HashSize is the length in bytes of a single SHA-1 digest entry.
const HashSize = 20

// BlocksPerSHT is the number of payload-block hashes accumulated into one
// sub-hash-table before it rolls over.
const BlocksPerSHT = 204

// SHTPerMHT is the number of sub-hash-tables summarized by one
// master-hash-table.
const SHTPerMHT = 203

// SHTSize is the byte length of one sub-hash-table image (zero-padded if
// fewer than BlocksPerSHT hashes were contributed).
const SHTSize = BlocksPerSHT * HashSize

// MHTSize is the byte length of the master-hash-table image (zero-padded if
// fewer than SHTPerMHT sub-hash-tables exist).
const MHTSize = SHTPerMHT * HashSize

// Builder accumulates per-block hashes into sub-hash-tables and, once
// finalized, a master-hash-table.
type Builder struct {
	currentSHT      []byte
	blocksInCurrent int
	shts            [][]byte
	master          []byte
	finalized       bool
}

// NewBuilder returns an empty Builder ready to accept block hashes.
func NewBuilder() *Builder {
	return &Builder{currentSHT: make([]byte, 0, SHTSize)}
}

// AddBlock appends the block's 20-byte hash to the current sub-hash-table,
// rolling over to a new sub-hash-table once 204 blocks have accumulated.
func (b *Builder) AddBlock(hash [HashSize]byte) {
	if b.finalized {
		return
	}

	b.currentSHT = append(b.currentSHT, hash[:]...)
	b.blocksInCurrent++

	if b.blocksInCurrent == BlocksPerSHT {
		b.shts = append(b.shts, b.currentSHT)
		common.LogDebug(common.DebugSubHashTableDone, len(b.shts)-1, len(b.currentSHT))
		b.currentSHT = make([]byte, 0, SHTSize)
		b.blocksInCurrent = 0
	}
}

// Finalize flushes any partial sub-hash-table (zero-padded to SHTSize) and
// computes the master-hash-table: the SHA-1 of each full sub-hash-table
// image, zero-padded to SHTPerMHT entries. Idempotent.
func (b *Builder) Finalize() {
	if b.finalized {
		return
	}

	if b.blocksInCurrent > 0 {
		padded := make([]byte, SHTSize)
		copy(padded, b.currentSHT)
		b.shts = append(b.shts, padded)
		b.currentSHT = nil
		b.blocksInCurrent = 0
	}

	master := make([]byte, 0, MHTSize)
	for i, sht := range b.shts {
		digest := blockhash.SumBytes(sht)
		master = append(master, digest[:]...)
		common.LogDebug(common.DebugMasterHashEntry, len(master)/HashSize-1, i)
	}
	padded := make([]byte, MHTSize)
	copy(padded, master)
	b.master = padded

	b.finalized = true
}

// SHTCount returns the number of sub-hash-tables produced, valid only
// after Finalize.
func (b *Builder) SHTCount() int {
	return len(b.shts)
}

// SHT returns the i-th sub-hash-table's 4080-byte image, valid only after
// Finalize.
func (b *Builder) SHT(i int) ([]byte, error) {
	if !b.finalized {
		return nil, fmt.Errorf("hashtree: SHT requested before Finalize")
	}
	if i < 0 || i >= len(b.shts) {
		return nil, fmt.Errorf("hashtree: SHT index %d out of range (have %d)", i, len(b.shts))
	}
	return b.shts[i], nil
}

// Master returns the 4060-byte master-hash-table image, valid only after
// Finalize.
func (b *Builder) Master() ([]byte, error) {
	if !b.finalized {
		return nil, fmt.Errorf("hashtree: Master requested before Finalize")
	}
	return b.master, nil
}
