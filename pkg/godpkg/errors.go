package godpkg

import "errors"

// Sentinel errors corresponding to the abstract error kinds of the
// conversion pipeline. Concrete failures are wrapped around these with
// fmt.Errorf("...: %w", ...) so callers can errors.Is/errors.As them.
var (
	ErrGdfMalformed       = errors.New("gdf malformed")
	ErrExecutableMissing  = errors.New("default.xex not found")
	ErrExecutableTooLarge = errors.New("default.xex exceeds maximum supported size")
	ErrIsoTooLarge        = errors.New("iso exceeds maximum supported size")
	ErrXexInvalid         = errors.New("xex invalid")
	ErrXexExecInfoMissing = errors.New("xex execution info missing")
	ErrXexTruncated       = errors.New("xex execution info truncated")
	ErrCancelled          = errors.New("conversion cancelled")
	ErrIoOpen             = errors.New("io open failure")
	ErrIoRead             = errors.New("io read failure")
	ErrIoWrite            = errors.New("io write failure")
	ErrIoSeek             = errors.New("io seek failure")
	ErrIoCreateDir        = errors.New("io create directory failure")
	ErrIoCreatePart       = errors.New("io create data part failure")
	ErrUnexpected         = errors.New("unexpected failure")
)

// ResultCode mirrors the integer result codes returned by the original
// converter: 0=ok, -1=header/GDF failure, -2=structure-create failure,
// -3=conversion failure, -4=cancelled.
type ResultCode int

const (
	ResultOK                ResultCode = 0
	ResultHeaderFailure     ResultCode = -1
	ResultStructureFailure  ResultCode = -2
	ResultConversionFailure ResultCode = -3
	ResultCancelled         ResultCode = -4
)

// Result is the outcome of a Convert call.
type Result struct {
	Code  ResultCode
	Err   error
	State State
}

// codeForError maps an error produced during the pipeline to the result
// code the original converter would have returned for an equivalent
// failure. Classification is by pipeline phase, not error kind alone:
// ErrIoCreateDir (the output-skeleton MkdirAll in createStructure) maps to
// ResultStructureFailure, while ErrIoCreatePart (creating a Data#### part
// file during convertBlocks) maps to ResultConversionFailure, mirroring
// the phase split in the original converter (createGodStructure -> -2,
// convertData -> -3).
func codeForError(err error) ResultCode {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, ErrCancelled):
		return ResultCancelled
	case errors.Is(err, ErrGdfMalformed),
		errors.Is(err, ErrExecutableMissing),
		errors.Is(err, ErrExecutableTooLarge),
		errors.Is(err, ErrXexInvalid),
		errors.Is(err, ErrXexExecInfoMissing),
		errors.Is(err, ErrXexTruncated):
		return ResultHeaderFailure
	case errors.Is(err, ErrIoCreateDir):
		return ResultStructureFailure
	case errors.Is(err, ErrIoCreatePart):
		return ResultConversionFailure
	default:
		return ResultConversionFailure
	}
}
