package gdf

import (
	"bytes"
	"encoding/binary"
	"os"
	"testing"
)

// writeRecord appends one GDF directory record (14-byte fixed portion plus
// name plus 4-byte-aligned padding) to buf.
func writeRecord(buf *bytes.Buffer, left, right uint16, sector, size uint32, attrs uint8, name string) {
	binary.Write(buf, binary.LittleEndian, left)
	binary.Write(buf, binary.LittleEndian, right)
	binary.Write(buf, binary.LittleEndian, sector)
	binary.Write(buf, binary.LittleEndian, size)
	buf.WriteByte(attrs)
	buf.WriteByte(uint8(len(name)))
	buf.WriteString(name)

	written := 14 + len(name)
	padded := (written + 3) &^ 3
	for i := written; i < padded; i++ {
		buf.WriteByte(0)
	}
}

func writeTerminator(buf *bytes.Buffer) {
	binary.Write(buf, binary.LittleEndian, uint16(0xFFFF))
	binary.Write(buf, binary.LittleEndian, uint16(0xFFFF))
}

// buildSyntheticISO constructs a minimal GDF-formatted ISO at the given
// variant containing a root directory with the supplied entries, and
// returns the backing temp file path. Entry payloads are not written.
func buildSyntheticISO(t *testing.T, variant DiscVariant, rootDirSector uint32, rootDirBytes []byte) string {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "synthetic-*.iso")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	root := variant.RootOffset()
	descOffset := root + 32*SectorSize

	// Pad the file up to the descriptor offset.
	if _, err := f.WriteAt([]byte{0}, descOffset+35); err != nil {
		t.Fatalf("failed to pad file: %v", err)
	}

	var desc bytes.Buffer
	desc.WriteString(gdfMagic)
	binary.Write(&desc, binary.LittleEndian, rootDirSector)
	binary.Write(&desc, binary.LittleEndian, uint32(len(rootDirBytes)))
	desc.Write(make([]byte, 8)) // creation timestamp, unused

	if _, err := f.WriteAt(desc.Bytes(), descOffset); err != nil {
		t.Fatalf("failed to write volume descriptor: %v", err)
	}

	rootOffset := root + int64(rootDirSector)*SectorSize
	if _, err := f.WriteAt(rootDirBytes, rootOffset); err != nil {
		t.Fatalf("failed to write root directory: %v", err)
	}

	return f.Name()
}

func TestOpen_DetectsXGD2(t *testing.T) {
	var root bytes.Buffer
	writeRecord(&root, 0, 0, 100, 12345, 0, "default.xex")
	writeTerminator(&root)

	path := buildSyntheticISO(t, XGD2, 10, root.Bytes())

	vol, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer vol.Close()

	if vol.Variant != XGD2 {
		t.Errorf("Open() detected variant %v, want XGD2", vol.Variant)
	}
}

func TestOpen_DetectsXGD3_StrictlyVerified(t *testing.T) {
	var root bytes.Buffer
	writeRecord(&root, 0, 0, 50, 4096, 0, "default.xex")
	writeTerminator(&root)

	path := buildSyntheticISO(t, XGD3, 10, root.Bytes())

	vol, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer vol.Close()

	if vol.Variant != XGD3 {
		t.Errorf("Open() detected variant %v, want XGD3", vol.Variant)
	}
}

func TestOpen_NoMagicAnywhere(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "garbage-*.iso")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	defer f.Close()

	garbage := bytes.Repeat([]byte{0xAB}, 4096)
	if _, err := f.Write(garbage); err != nil {
		t.Fatalf("failed to write garbage: %v", err)
	}

	_, err = Open(f.Name())
	if err == nil {
		t.Error("Open() should fail when no variant's magic is present")
	}
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open("/nonexistent/path/to/file.iso")
	if err == nil {
		t.Error("Open() should fail for a nonexistent file")
	}
}

func TestParseRoot_SingleFile(t *testing.T) {
	var root bytes.Buffer
	writeRecord(&root, 0, 0, 200, 777, 0, "default.xex")
	writeTerminator(&root)

	path := buildSyntheticISO(t, XGD2, 10, root.Bytes())

	vol, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer vol.Close()

	listing, err := vol.ParseRoot()
	if err != nil {
		t.Fatalf("ParseRoot() failed: %v", err)
	}

	sector, size, ok := listing.Find("default.xex")
	if !ok {
		t.Fatal("Find() did not locate default.xex")
	}
	if sector != 200 || size != 777 {
		t.Errorf("Find() = (%d, %d), want (200, 777)", sector, size)
	}
}

func TestParseRoot_WithSubdirectory(t *testing.T) {
	var subdir bytes.Buffer
	writeRecord(&subdir, 0, 0, 500, 999, 0, "nested.bin")
	writeTerminator(&subdir)

	var root bytes.Buffer
	writeRecord(&root, 0, 0, 300, uint32(subdir.Len()), attrDirectory, "media")
	writeRecord(&root, 0, 0, 200, 777, 0, "default.xex")
	writeTerminator(&root)

	path := buildSyntheticISO(t, XGD2, 10, root.Bytes())

	vol, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer vol.Close()

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("failed to open for subdirectory write: %v", err)
	}
	defer f.Close()

	subdirOffset := vol.root + 300*SectorSize // unexported field access via same package
	if _, err := f.WriteAt(subdir.Bytes(), subdirOffset); err != nil {
		t.Fatalf("failed to write subdirectory contents: %v", err)
	}

	listing, err := vol.ParseRoot()
	if err != nil {
		t.Fatalf("ParseRoot() failed: %v", err)
	}

	if len(listing.Entries) != 3 {
		t.Fatalf("ParseRoot() found %d entries, want 3 (media, nested.bin, default.xex)", len(listing.Entries))
	}

	sector, size, ok := listing.Find("nested.bin")
	if !ok {
		t.Fatal("Find() did not locate nested.bin inside subdirectory")
	}
	if sector != 500 || size != 999 {
		t.Errorf("Find() = (%d, %d), want (500, 999)", sector, size)
	}
}

func TestParseRoot_EmptyDirectory(t *testing.T) {
	var root bytes.Buffer
	writeTerminator(&root)

	path := buildSyntheticISO(t, XGD2, 10, root.Bytes())

	vol, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer vol.Close()

	listing, err := vol.ParseRoot()
	if err != nil {
		t.Fatalf("ParseRoot() failed: %v", err)
	}

	if len(listing.Entries) != 0 {
		t.Errorf("ParseRoot() found %d entries in empty directory, want 0", len(listing.Entries))
	}
}

func TestDiscVariant_RootOffset(t *testing.T) {
	testCases := []struct {
		variant  DiscVariant
		expected int64
	}{
		{Xsf, 0},
		{XGD1, 0x00020000},
		{XGD2, 0x00FDA000},
		{XGD3, 0x02080000},
	}

	for _, tc := range testCases {
		if got := tc.variant.RootOffset(); got != tc.expected {
			t.Errorf("%v.RootOffset() = 0x%X, want 0x%X", tc.variant, got, tc.expected)
		}
	}
}
