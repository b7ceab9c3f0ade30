package gdf

import (
	"bytes"
	"io"

	"github.com/x360tools/iso2god/pkg/common"
)

// maxWalkDepth caps directory recursion against a malformed image whose
// on-disk tree contains a cycle.
const maxWalkDepth = 64

const attrDirectory = 0x10

// walker holds the state needed to safely recurse into subdirectories:
// the open volume, and the set of directory sectors already visited.
type walker struct {
	vol     *Volume
	visited map[int64]bool
}

// walk seeks to sector*SectorSize + root_offset, reads size bytes into
// memory, then advances a sequential reader through directory records
// until the 0xFFFF/0xFFFF terminator or the stream runs out. Directory
// entries are recursed into; every entry is appended to the flat listing
// in encounter order.
func (w *walker) walk(sector int64, size uint32, depth int) ([]Entry, error) {
	if depth > maxWalkDepth {
		return nil, common.FormatErrorString(common.ErrDirectoryTooDeep, "depth %d exceeds maximum %d", depth, maxWalkDepth)
	}

	if w.visited == nil {
		w.visited = make(map[int64]bool)
	}
	if w.visited[sector] {
		return nil, common.FormatErrorString(common.ErrDirectoryCycleDetected, "sector %d already visited", sector)
	}
	w.visited[sector] = true

	offset := int64(sector)*SectorSize + w.vol.root
	buf, err := readAt(w.vol.file, offset, int(size))
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToReadDirectory, err)
	}

	r := bytes.NewReader(buf)
	var entries []Entry

	for {
		left, err := common.ReadUint16LE(r)
		if err != nil {
			break
		}
		right, err := common.ReadUint16LE(r)
		if err != nil {
			break
		}
		if left == 0xFFFF && right == 0xFFFF {
			break
		}

		firstSector, err := common.ReadUint32LE(r)
		if err != nil {
			break
		}
		entrySize, err := common.ReadUint32LE(r)
		if err != nil {
			break
		}
		attrsBuf, err := common.ReadBytes(r, 1)
		if err != nil {
			break
		}
		nameLenBuf, err := common.ReadBytes(r, 1)
		if err != nil {
			break
		}

		attrs := attrsBuf[0]
		nameLen := int(nameLenBuf[0])

		nameBuf, err := common.ReadBytes(r, nameLen)
		if err != nil {
			break
		}
		name := string(nameBuf)
		isDir := attrs&attrDirectory != 0

		consumed := len(buf) - r.Len()
		padding := common.AlignUp(consumed, 4) - consumed
		if padding > 0 {
			if err := common.SkipBytes(r, padding); err != nil && err != io.EOF {
				break
			}
		}

		if !common.IsValidFileName(name) {
			common.LogWarn(common.WarnInvalidDirectoryName+": %q", name)
			continue
		}

		entries = append(entries, Entry{
			Name:   name,
			Sector: firstSector,
			Size:   entrySize,
			IsDir:  isDir,
		})
		common.LogDebug(common.DebugDirectoryEntry, name, firstSector, entrySize, isDir)

		if isDir {
			children, err := w.walk(int64(firstSector), entrySize, depth+1)
			if err != nil {
				return nil, err
			}
			entries = append(entries, children...)
		}
	}

	return entries, nil
}
