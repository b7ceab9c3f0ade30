// Package xex walks the big-endian tagged-header table of an Xbox 360
// XEX2 executable to locate its ExecutionInfo record.
package xex

import (
	"bytes"
	"fmt"

	"github.com/x360tools/iso2god/pkg/common"
)

const magic = "XEX2"

// execInfoSignature is the optional-header signature that tags the
// ExecutionInfo record.
const execInfoSignature = 0x00040006

// execInfoSize is the length in bytes of the ExecutionInfo blob.
const execInfoSize = 20

// optHeaderCountOffset is the file offset of the u32 BE optional-header
// count.
const optHeaderCountOffset = 20

// optHeaderTableOffset is the file offset at which the (signature,
// data-offset) pairs begin.
const optHeaderTableOffset = 24

// ExecutionInfo is the 20-byte, big-endian ExecutionInfo record embedded in
// a XEX2 optional header.
type ExecutionInfo struct {
	MediaID        [4]byte
	Version        uint32
	BaseVersion    uint32
	TitleID        [4]byte
	Platform       uint8
	ExecutableType uint8
	DiscNumber     uint8
	DiscCount      uint8
}

// TitleIDHex renders the title-id as 8 uppercase hex digits, no separators.
func (e *ExecutionInfo) TitleIDHex() string {
	return fmt.Sprintf("%02X%02X%02X%02X", e.TitleID[0], e.TitleID[1], e.TitleID[2], e.TitleID[3])
}

// MediaIDHex renders the media-id as 8 uppercase hex digits, no separators.
func (e *ExecutionInfo) MediaIDHex() string {
	return fmt.Sprintf("%02X%02X%02X%02X", e.MediaID[0], e.MediaID[1], e.MediaID[2], e.MediaID[3])
}

// Parse verifies the buffer starts with the XEX2 magic, walks the
// optional-header table for the ExecutionInfo signature, and decodes the
// 20-byte record it points to.
func Parse(data []byte) (*ExecutionInfo, error) {
	if len(data) < optHeaderTableOffset {
		return nil, fmt.Errorf("%s", common.ErrXexTooSmall)
	}
	if string(data[0:4]) != magic {
		return nil, fmt.Errorf("%s", common.ErrInvalidXexMagic)
	}

	countReader := bytes.NewReader(data[optHeaderCountOffset:])
	count, err := common.ReadUint32BE(countReader)
	if err != nil {
		return nil, fmt.Errorf("%s", common.ErrXexTooSmall)
	}

	tableReader := bytes.NewReader(data[optHeaderTableOffset:])

	for i := uint32(0); i < count; i++ {
		signature, err := common.ReadUint32BE(tableReader)
		if err != nil {
			break
		}
		dataOffset, err := common.ReadUint32BE(tableReader)
		if err != nil {
			break
		}
		common.LogDebug(common.DebugOptionalHeader, i, signature, dataOffset)

		if signature != execInfoSignature {
			continue
		}

		start := int(dataOffset)
		end := start + execInfoSize
		if end > len(data) {
			return nil, fmt.Errorf("%s", common.ErrXexExecInfoTruncated)
		}

		return decodeExecutionInfo(data[start:end])
	}

	return nil, fmt.Errorf("%s", common.ErrXexExecInfoMissing)
}

func decodeExecutionInfo(b []byte) (*ExecutionInfo, error) {
	r := bytes.NewReader(b)
	info := &ExecutionInfo{}

	mediaID, err := common.ReadBytes(r, 4)
	if err != nil {
		return nil, fmt.Errorf("%s", common.ErrXexExecInfoTruncated)
	}
	copy(info.MediaID[:], mediaID)

	if info.Version, err = common.ReadUint32BE(r); err != nil {
		return nil, fmt.Errorf("%s", common.ErrXexExecInfoTruncated)
	}
	if info.BaseVersion, err = common.ReadUint32BE(r); err != nil {
		return nil, fmt.Errorf("%s", common.ErrXexExecInfoTruncated)
	}

	titleID, err := common.ReadBytes(r, 4)
	if err != nil {
		return nil, fmt.Errorf("%s", common.ErrXexExecInfoTruncated)
	}
	copy(info.TitleID[:], titleID)

	rest, err := common.ReadBytes(r, 4)
	if err != nil {
		return nil, fmt.Errorf("%s", common.ErrXexExecInfoTruncated)
	}
	info.Platform = rest[0]
	info.ExecutableType = rest[1]
	info.DiscNumber = rest[2]
	info.DiscCount = rest[3]

	return info, nil
}
