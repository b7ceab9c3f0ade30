// Package godpkg drives the end-to-end conversion of a GDF-formatted ISO
// into an Xbox 360 GOD on-device container: it composes pkg/gdf, pkg/xex,
// pkg/blockhash and pkg/hashtree into the single synchronous pipeline
// described for the "GOD packager" component.
package godpkg

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/x360tools/iso2god/pkg/blockhash"
	"github.com/x360tools/iso2god/pkg/common"
	"github.com/x360tools/iso2god/pkg/gdf"
	"github.com/x360tools/iso2god/pkg/hashtree"
	"github.com/x360tools/iso2god/pkg/xex"
)

const (
	maxXexSize             = 100 * 1024 * 1024
	maxISOSize             = 15 * 1024 * 1024 * 1024
	maxConsecutiveFailures = 10
	blockPerPart           = 41412
	hashPrefixSize         = hashtree.MHTSize + hashtree.SHTPerMHT*hashtree.SHTSize

	defaultXexName = "default.xex"
	contentDirName = "Content"
	profileDirName = "0000000000000000"
)

// Convert runs the full GDF-to-GOD pipeline described for the packager:
// locate the executable, derive the output path, stream the ISO as fixed
// blocks through the block hasher and hash-tree builder, emit multi-part
// Data files, and finally write the hash tables back into the head of
// part 0.
func Convert(isoPath, outDir string, progress Progress, cancel *CancelToken) Result {
	if progress == nil {
		progress = noopProgress{}
	}

	state := Analyzing
	logStateTransition(state)
	titleHex, volume, err := analyze(isoPath, progress)
	if err != nil {
		state = Failed
		common.LogError("analysis failed: %v", err)
		return Result{Code: codeForError(err), Err: err, State: state}
	}
	defer volume.Close()

	if cancel.Cancelled() {
		state = Cancelled
		return Result{Code: ResultCancelled, Err: ErrCancelled, State: state}
	}

	state = CreatingStructure
	logStateTransition(state)
	partDir, err := createStructure(outDir, titleHex, progress)
	if err != nil {
		state = Failed
		common.LogError("structure creation failed: %v", err)
		return Result{Code: codeForError(err), Err: err, State: state}
	}

	if cancel.Cancelled() {
		state = Cancelled
		return Result{Code: ResultCancelled, Err: ErrCancelled, State: state}
	}

	state = Converting
	logStateTransition(state)
	err = convertBlocks(isoPath, partDir, progress, cancel, &state)
	switch {
	case err != nil && errors.Is(err, ErrCancelled):
		state = Cancelled
	case err != nil:
		state = Failed
		common.LogError("conversion failed: %v", err)
	default:
		state = Done
	}
	logStateTransition(state)

	return Result{Code: codeForError(err), Err: err, State: state}
}

func logStateTransition(state State) {
	common.LogDebug(common.DebugStateTransition, state)
}

// analyze performs steps 1-3: open the volume, locate default.xex, and
// parse its ExecutionInfo for the title id.
func analyze(isoPath string, progress Progress) (string, *gdf.Volume, error) {
	progress.Report(0.05, "analyzing")
	common.LogInfo(common.InfoAnalyzingISO)

	volume, err := gdf.Open(isoPath)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrGdfMalformed, err)
	}

	listing, err := volume.ParseRoot()
	if err != nil {
		volume.Close()
		return "", nil, fmt.Errorf("%w: %v", ErrGdfMalformed, err)
	}

	sector, size, ok := listing.Find(defaultXexName)
	if !ok {
		volume.Close()
		return "", nil, fmt.Errorf("%w", ErrExecutableMissing)
	}

	if size > maxXexSize {
		volume.Close()
		return "", nil, fmt.Errorf("%w: %d bytes", ErrExecutableTooLarge, size)
	}

	xexData, err := volume.ReadAt(sector, size)
	if err != nil {
		volume.Close()
		return "", nil, fmt.Errorf("%w: %v", ErrIoRead, err)
	}

	execInfo, err := xex.Parse(xexData)
	if err != nil {
		volume.Close()
		return "", nil, mapXexError(err)
	}

	common.LogInfo(common.InfoExecutableFound+": title=%s media=%s", execInfo.TitleIDHex(), execInfo.MediaIDHex())

	return execInfo.TitleIDHex(), volume, nil
}

func mapXexError(err error) error {
	switch err.Error() {
	case common.ErrInvalidXexMagic, common.ErrXexTooSmall:
		return fmt.Errorf("%w: %v", ErrXexInvalid, err)
	case common.ErrXexExecInfoMissing:
		return fmt.Errorf("%w: %v", ErrXexExecInfoMissing, err)
	case common.ErrXexExecInfoTruncated:
		return fmt.Errorf("%w: %v", ErrXexTruncated, err)
	default:
		return fmt.Errorf("%w: %v", ErrUnexpected, err)
	}
}

// createStructure performs step 4: build the output directory skeleton and
// return the directory that will hold the Data parts.
func createStructure(outDir, titleHex string, progress Progress) (string, error) {
	partDir := filepath.Join(outDir, titleHex, contentDirName, profileDirName)

	if err := os.MkdirAll(partDir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrIoCreateDir, err)
	}

	progress.Report(0.1, "creating structure")
	common.LogInfo(common.InfoCreatingStructure)

	return partDir, nil
}

// convertBlocks performs steps 5-10: stream the ISO, write Data parts, and
// write the finalized hash tables back into Data0000. state is advanced to
// FinalizingHashes and WritingHashes as those phases begin, so the caller's
// Result reflects exactly where a failure occurred.
func convertBlocks(isoPath, partDir string, progress Progress, cancel *CancelToken, state *State) error {
	stat, err := os.Stat(isoPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIoOpen, err)
	}

	isoSize := stat.Size()
	if isoSize > maxISOSize {
		return fmt.Errorf("%w: %d bytes", ErrIsoTooLarge, isoSize)
	}

	expectedBlocks := common.GetSizeInBlocks(isoSize)

	reader, err := os.Open(isoPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIoOpen, err)
	}
	defer reader.Close()

	part0Path := dataPartPath(partDir, 0)
	currentPart, err := os.Create(part0Path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIoCreatePart, err)
	}
	common.LogInfo(common.InfoDataPartCreated+": %s", part0Path)

	if err := reservePrefix(currentPart); err != nil {
		currentPart.Close()
		return fmt.Errorf("%w: %v", ErrIoWrite, err)
	}

	progress.Report(0.15, "converting")
	common.LogInfo(common.InfoConvertingBlocks)

	builder := hashtree.NewBuilder()

	var (
		consumed   int64
		blockCount int64
		partIndex  int
		partBytes  int64
	)

	for consumed < isoSize {
		if cancel.Cancelled() {
			currentPart.Close()
			return fmt.Errorf("%w", ErrCancelled)
		}

		block, n, err := readBlock(reader, isoSize-consumed)
		if err != nil {
			currentPart.Close()
			return fmt.Errorf("%w: %v", ErrIoRead, err)
		}

		hash := blockhash.Sum(&block)
		builder.AddBlock(hash)

		if _, err := currentPart.Write(block[:]); err != nil {
			currentPart.Close()
			return fmt.Errorf("%w: %v", ErrIoWrite, err)
		}

		consumed += int64(n)
		blockCount++
		partBytes += blockhash.BlockSize

		if partBytes >= blockPerPart*blockhash.BlockSize && consumed < isoSize {
			common.LogDebug(common.DebugPartRollover, partIndex, partIndex+1)
			if err := currentPart.Close(); err != nil {
				return fmt.Errorf("%w: %v", ErrIoWrite, err)
			}
			partIndex++
			partBytes = 0
			nextPath := dataPartPath(partDir, partIndex)
			currentPart, err = os.Create(nextPath)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrIoCreatePart, err)
			}
			common.LogInfo(common.InfoDataPartCreated+": %s", nextPath)
		}

		if blockCount%1000 == 0 || consumed >= isoSize {
			fraction := 0.15 + 0.75*(float64(consumed)/float64(isoSize))
			progress.Report(fraction, fmt.Sprintf("block %d of %d", blockCount, expectedBlocks))
			common.LogDebug(common.DebugBlockProgress, blockCount, expectedBlocks, fraction*100)
		}

		if blockCount > expectedBlocks+100 {
			currentPart.Close()
			return fmt.Errorf("%w: block count exceeded expected+100 safety margin", ErrUnexpected)
		}
	}

	if err := currentPart.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrIoWrite, err)
	}

	*state = FinalizingHashes
	logStateTransition(*state)
	progress.Report(0.9, "finalizing hashes")
	common.LogInfo(common.InfoFinalizingHashes)
	builder.Finalize()

	*state = WritingHashes
	logStateTransition(*state)
	progress.Report(0.95, "writing hashes")
	common.LogInfo(common.InfoWritingHashes)
	if err := writeHashPrefix(part0Path, builder); err != nil {
		return err
	}

	progress.Report(1.0, "done")
	common.LogInfo(common.InfoConversionDone)

	return nil
}

// readBlock fills a 4096-byte buffer (zero-padded on a short final read),
// retrying a short read before EOF up to maxConsecutiveFailures times.
func readBlock(r io.Reader, remaining int64) (buf [blockhash.BlockSize]byte, filled int, err error) {
	want := int64(blockhash.BlockSize)
	if remaining < want {
		want = remaining
	}

	failures := 0
	for int64(filled) < want {
		n, rerr := r.Read(buf[filled:want])
		if n > 0 {
			filled += n
			failures = 0
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return buf, filled, rerr
		}
		if n == 0 {
			failures++
			if failures >= maxConsecutiveFailures {
				return buf, filled, fmt.Errorf("%s", common.ErrTooManyConsecutiveFailures)
			}
		}
	}

	return buf, filled, nil
}

func dataPartPath(partDir string, index int) string {
	return filepath.Join(partDir, fmt.Sprintf("Data%04d", index))
}

// reservePrefix materializes the hashPrefixSize-byte reservation at the
// head of a freshly created Data0000 so the file grows monotonically and
// writeHashPrefix can later seek back and overwrite it in place.
func reservePrefix(f *os.File) error {
	_, err := f.Write(make([]byte, hashPrefixSize))
	return err
}

// writeHashPrefix performs step 10: overwrite the reserved prefix of
// Data0000 with master || sht[0] || sht[1] || ... || sht[202].
func writeHashPrefix(part0Path string, builder *hashtree.Builder) error {
	f, err := os.OpenFile(part0Path, os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIoOpen, err)
	}
	defer f.Close()

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", ErrIoSeek, err)
	}

	master, err := builder.Master()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpected, err)
	}
	if _, err := f.Write(master); err != nil {
		return fmt.Errorf("%s: %w", common.ErrFailedToWriteHashPrefix, err)
	}

	for i := 0; i < hashtree.SHTPerMHT; i++ {
		sht := make([]byte, hashtree.SHTSize)
		if i < builder.SHTCount() {
			data, err := builder.SHT(i)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrUnexpected, err)
			}
			copy(sht, data)
		}
		if _, err := f.Write(sht); err != nil {
			return fmt.Errorf("%s: %w", common.ErrFailedToWriteHashPrefix, err)
		}
	}

	return nil
}
