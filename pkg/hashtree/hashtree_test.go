package hashtree

import (
	"bytes"
	"testing"

	"github.com/x360tools/iso2god/pkg/blockhash"
)

func hashOf(b byte) [HashSize]byte {
	var h [HashSize]byte
	for i := range h {
		h[i] = b
	}
	return h
}

func TestBuilder_EmptyFinalize(t *testing.T) {
	b := NewBuilder()
	b.Finalize()

	if b.SHTCount() != 0 {
		t.Errorf("SHTCount() = %d, want 0 for no blocks added", b.SHTCount())
	}

	master, err := b.Master()
	if err != nil {
		t.Fatalf("Master() failed: %v", err)
	}
	if !bytes.Equal(master, make([]byte, MHTSize)) {
		t.Error("Master() should be fully zero for an empty builder")
	}
}

func TestBuilder_SingleBlock(t *testing.T) {
	b := NewBuilder()
	b.AddBlock(hashOf(0xAB))
	b.Finalize()

	if b.SHTCount() != 1 {
		t.Fatalf("SHTCount() = %d, want 1", b.SHTCount())
	}

	sht, err := b.SHT(0)
	if err != nil {
		t.Fatalf("SHT(0) failed: %v", err)
	}
	if len(sht) != SHTSize {
		t.Fatalf("SHT(0) length = %d, want %d", len(sht), SHTSize)
	}

	wantFirstHash := hashOf(0xAB)
	if !bytes.Equal(sht[0:HashSize], wantFirstHash[:]) {
		t.Error("SHT(0)'s first entry should be the single block's hash")
	}
	if !bytes.Equal(sht[HashSize:], make([]byte, SHTSize-HashSize)) {
		t.Error("SHT(0)'s remaining entries should be zero-padded")
	}

	master, err := b.Master()
	if err != nil {
		t.Fatalf("Master() failed: %v", err)
	}
	wantMasterEntry := blockhash.SumBytes(sht)
	if !bytes.Equal(master[0:HashSize], wantMasterEntry[:]) {
		t.Error("Master()'s first entry should be SHA1(sht(0))")
	}
	if !bytes.Equal(master[HashSize:], make([]byte, MHTSize-HashSize)) {
		t.Error("Master()'s remaining entries should be zero-padded")
	}
}

func TestBuilder_ExactSHTBoundary(t *testing.T) {
	b := NewBuilder()
	for i := 0; i < BlocksPerSHT; i++ {
		b.AddBlock(hashOf(byte(i)))
	}
	b.Finalize()

	if b.SHTCount() != 1 {
		t.Fatalf("SHTCount() = %d, want 1 for exactly 204 blocks", b.SHTCount())
	}

	sht, err := b.SHT(0)
	if err != nil {
		t.Fatalf("SHT(0) failed: %v", err)
	}
	if len(sht) != SHTSize {
		t.Fatalf("SHT(0) length = %d, want %d", len(sht), SHTSize)
	}

	// All 204 entries should be populated, no padding.
	lastEntry := sht[SHTSize-HashSize:]
	wantLast := hashOf(byte(BlocksPerSHT - 1))
	if !bytes.Equal(lastEntry, wantLast[:]) {
		t.Error("SHT(0)'s last entry should be the 204th block's hash, not zero padding")
	}
}

func TestBuilder_SHTRollover(t *testing.T) {
	b := NewBuilder()
	totalBlocks := BlocksPerSHT*2 + 1
	for i := 0; i < totalBlocks; i++ {
		b.AddBlock(hashOf(byte(i % 256)))
	}
	b.Finalize()

	wantSHTCount := 3 // ceil(409/204) = 3
	if b.SHTCount() != wantSHTCount {
		t.Errorf("SHTCount() = %d, want %d", b.SHTCount(), wantSHTCount)
	}
}

func TestBuilder_FullMHT(t *testing.T) {
	b := NewBuilder()
	totalBlocks := BlocksPerSHT * SHTPerMHT
	for i := 0; i < totalBlocks; i++ {
		b.AddBlock(hashOf(byte(i % 256)))
	}
	b.Finalize()

	if b.SHTCount() != SHTPerMHT {
		t.Fatalf("SHTCount() = %d, want %d (fully populated MHT)", b.SHTCount(), SHTPerMHT)
	}

	master, err := b.Master()
	if err != nil {
		t.Fatalf("Master() failed: %v", err)
	}
	if len(master) != MHTSize {
		t.Fatalf("Master() length = %d, want %d", len(master), MHTSize)
	}
}

func TestBuilder_FinalizeIdempotent(t *testing.T) {
	b := NewBuilder()
	b.AddBlock(hashOf(0x01))
	b.Finalize()

	master1, _ := b.Master()
	master1Copy := append([]byte(nil), master1...)

	b.Finalize() // second call must be a no-op

	master2, _ := b.Master()
	if !bytes.Equal(master1Copy, master2) {
		t.Error("Finalize() should be idempotent")
	}
}

func TestBuilder_AccessBeforeFinalize(t *testing.T) {
	b := NewBuilder()
	b.AddBlock(hashOf(0x01))

	if _, err := b.SHT(0); err == nil {
		t.Error("SHT() should fail before Finalize()")
	}
	if _, err := b.Master(); err == nil {
		t.Error("Master() should fail before Finalize()")
	}
}
