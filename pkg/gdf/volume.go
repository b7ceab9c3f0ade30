package gdf

import (
	"fmt"
	"os"

	"github.com/x360tools/iso2god/pkg/common"
)

// gdfMagic is the 20-byte volume descriptor magic literal.
const gdfMagic = "MICROSOFT*XBOX*MEDIA"

// Volume is an opened GDF filesystem inside an ISO image.
type Volume struct {
	file    *os.File
	Variant DiscVariant
	root    int64
}

// Open attempts each of the four candidate root offsets in order
// Xsf, XGD1, XGD2, XGD3, reading 20 bytes at root_offset + 32*SectorSize and
// comparing against the volume magic. The first match wins.
//
// XGD3 is strictly verified rather than assumed by elimination (see
// DESIGN.md for the rationale): if none of the first three offsets match,
// the XGD3 offset is probed and must itself produce the magic, or Open
// fails with ErrGDFMagicNotFound.
func Open(isoPath string) (*Volume, error) {
	file, err := os.Open(isoPath)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToOpenISO, err)
	}

	for _, variant := range candidateVariants {
		offset := variant.RootOffset() + 32*SectorSize
		common.LogDebug(common.DebugRootOffsetProbe, variant.RootOffset())

		magic, err := readAt(file, offset, 20)
		if err != nil {
			continue
		}
		if string(magic) == gdfMagic {
			common.LogInfo(common.InfoDiscVariantDetected+": %s", variant)
			return &Volume{file: file, Variant: variant, root: variant.RootOffset()}, nil
		}
	}

	file.Close()
	return nil, fmt.Errorf("%s", common.ErrGDFMagicNotFound)
}

// Close releases the underlying ISO file handle.
func (v *Volume) Close() error {
	return v.file.Close()
}

// ParseRoot reads the root directory's sector and size from the volume
// descriptor, then walks the directory tree to produce a flat listing.
func (v *Volume) ParseRoot() (*DirectoryListing, error) {
	descOffset := v.root + 32*SectorSize

	buf, err := readAt(v.file, descOffset, 36)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToReadVolumeDesc, err)
	}

	var magic [20]byte
	copy(magic[:], buf[:20])
	if err := common.ValidateGDFMagic(magic); err != nil {
		return nil, fmt.Errorf("%s: %w", common.ErrGDFMagicNotFound, err)
	}

	rootSector := leUint32(buf[20:24])
	rootSize := leUint32(buf[24:28])

	w := &walker{vol: v}
	entries, err := w.walk(int64(rootSector), rootSize, 0)
	if err != nil {
		return nil, err
	}

	return &DirectoryListing{Entries: entries}, nil
}

// ReadAt exposes random-access reads on the underlying ISO file relative to
// the detected root offset, for callers (such as C5) that need to fetch a
// file's raw bytes once Find has resolved its (sector, size).
func (v *Volume) ReadAt(sector uint32, size uint32) ([]byte, error) {
	offset := v.root + int64(sector)*SectorSize
	common.LogDebug(common.DebugReadSpan, sector, common.GetSizeInSectors(size))

	data, err := readAt(v.file, offset, int(size))
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToReadExecutable, err)
	}
	return data, nil
}

func readAt(f *os.File, offset int64, n int) ([]byte, error) {
	buf := make([]byte, n)
	read, err := f.ReadAt(buf, offset)
	if err != nil {
		return nil, err
	}
	if read != n {
		return nil, fmt.Errorf("short read at offset %d: got %d of %d bytes", offset, read, n)
	}
	return buf, nil
}

func leUint32(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}

func leUint16(b []byte) uint16 {
	return uint16(b[0]) | uint16(b[1])<<8
}
