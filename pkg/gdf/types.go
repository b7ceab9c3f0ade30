// Package gdf reads the Xbox 360 Game Disc Format volume embedded in an
// ISO image: disc-variant detection, the root directory descriptor, and a
// flattened listing of the on-disk directory tree.
package gdf

// SectorSize is the fixed size in bytes of a GDF sector.
const SectorSize = 2048

// DiscVariant identifies which of the four known root offsets the volume
// descriptor was found at.
type DiscVariant int

const (
	Xsf DiscVariant = iota
	XGD1
	XGD2
	XGD3
)

func (v DiscVariant) String() string {
	switch v {
	case Xsf:
		return "Xsf"
	case XGD1:
		return "XGD1"
	case XGD2:
		return "XGD2"
	case XGD3:
		return "XGD3"
	default:
		return "Unknown"
	}
}

// RootOffset returns the byte offset added to every logical sector address
// when translating to a byte offset in the ISO for this variant.
func (v DiscVariant) RootOffset() int64 {
	switch v {
	case Xsf:
		return 0
	case XGD1:
		return 0x00020000
	case XGD2:
		return 0x00FDA000
	case XGD3:
		return 0x02080000
	default:
		return 0
	}
}

// candidateVariants lists the variants in probe order.
var candidateVariants = []DiscVariant{Xsf, XGD1, XGD2, XGD3}

// Entry is a single flattened GDF directory record: a file or directory
// encountered while walking the on-disk tree, in encounter order.
type Entry struct {
	Name    string
	Sector  uint32
	Size    uint32
	IsDir   bool
}

// DirectoryListing is the flat, in-encounter-order result of walking the
// root directory and all of its subdirectories.
type DirectoryListing struct {
	Entries []Entry
}

// Find performs a linear scan for a non-directory entry with the exact
// name. The on-disk BST layout is not exploited, matching the source.
func (d *DirectoryListing) Find(name string) (sector uint32, size uint32, ok bool) {
	for _, e := range d.Entries {
		if !e.IsDir && e.Name == name {
			return e.Sector, e.Size, true
		}
	}
	return 0, 0, false
}
