package verrors

// ErrorCode standardizes error categories across the write path so callers
// can branch on the failure kind without parsing messages.
type ErrorCode string

// Base codes, applicable to any component.
const (
	ErrorCodeIO            ErrorCode = "IO_ERROR"
	ErrorCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrorCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrorCodePermission    ErrorCode = "PERMISSION_DENIED"
	ErrorCodeDiskFull      ErrorCode = "DISK_FULL"
	ErrorCodeReadOnlyFS    ErrorCode = "FILESYSTEM_READONLY"
)

// Format errors: malformed on-disk bytes.
const (
	ErrorCodeZeroLengthLevel   ErrorCode = "FORMAT_ZERO_LENGTH_LEVEL"
	ErrorCodeBadChecksum       ErrorCode = "FORMAT_BAD_CHECKSUM"
	ErrorCodeVersionMismatch   ErrorCode = "FORMAT_VERSION_MISMATCH"
	ErrorCodeCorruptSegment    ErrorCode = "FORMAT_CORRUPT_SEGMENT"
	ErrorCodeCorruptManifest   ErrorCode = "FORMAT_CORRUPT_MANIFEST"
)

// Index errors: logical invariant violations while reading.
const (
	ErrorCodeNonMonotonicDocID ErrorCode = "INDEX_NON_MONOTONIC_DOC_ID"
	ErrorCodeIncompatibleField ErrorCode = "INDEX_INCOMPATIBLE_FIELD"
	ErrorCodeKeyNotFound       ErrorCode = "INDEX_KEY_NOT_FOUND"
)

// Analyzer errors: token-stream reset failures.
const (
	ErrorCodeAnalyzerReset   ErrorCode = "ANALYZER_RESET_FAILED"
	ErrorCodeAnalyzerUnknown ErrorCode = "ANALYZER_UNKNOWN_TYPE"
)

// Partial-insert errors: a field or attribute write returned false.
const (
	ErrorCodePartialInsert ErrorCode = "PARTIAL_INSERT"
)
