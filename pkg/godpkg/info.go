package godpkg

import (
	"fmt"
	"os"

	"github.com/x360tools/iso2god/pkg/common"
	"github.com/x360tools/iso2god/pkg/gdf"
	"github.com/x360tools/iso2god/pkg/xex"
)

// IsoInfo is the result of inspecting a GDF-formatted ISO without
// converting it: the identifiers a host would otherwise only learn by
// running a full conversion.
type IsoInfo struct {
	GameName    string `yaml:"gameName"`
	TitleID     string `yaml:"titleId"`
	MediaID     string `yaml:"mediaId"`
	Platform    string `yaml:"platform"`
	DiscVariant string `yaml:"discVariant"`
	SizeBytes   int64  `yaml:"sizeBytes"`
}

// Inspect opens the volume and walks to default.xex exactly as Convert
// does, but stops short of creating any output directory or streaming any
// block — a read-only counterpart to Convert for hosts that only need the
// identifiers.
func Inspect(isoPath string) (*IsoInfo, error) {
	stat, err := os.Stat(isoPath)
	if err != nil {
		return nil, FormatPipelineError(ErrIoOpen, err)
	}

	volume, err := gdf.Open(isoPath)
	if err != nil {
		return nil, FormatPipelineError(ErrGdfMalformed, err)
	}
	defer volume.Close()

	listing, err := volume.ParseRoot()
	if err != nil {
		return nil, FormatPipelineError(ErrGdfMalformed, err)
	}

	sector, size, ok := listing.Find(defaultXexName)
	if !ok {
		return nil, FormatPipelineError(ErrExecutableMissing, nil)
	}
	if size > maxXexSize {
		return nil, FormatPipelineError(ErrExecutableTooLarge, nil)
	}

	xexData, err := volume.ReadAt(sector, size)
	if err != nil {
		return nil, FormatPipelineError(ErrIoRead, err)
	}

	execInfo, err := xex.Parse(xexData)
	if err != nil {
		return nil, mapXexError(err)
	}

	common.LogInfo(common.InfoDiscVariantDetected+": %s", volume.Variant)

	return &IsoInfo{
		GameName:    defaultXexName,
		TitleID:     execInfo.TitleIDHex(),
		MediaID:     execInfo.MediaIDHex(),
		Platform:    "Xbox 360",
		DiscVariant: volume.Variant.String(),
		SizeBytes:   stat.Size(),
	}, nil
}

// FormatPipelineError wraps a sentinel pipeline error with an optional
// underlying cause, for call sites (like Inspect) outside the main
// Convert flow that still want errors.Is-compatible results.
func FormatPipelineError(sentinel error, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %v", sentinel, cause)
}
