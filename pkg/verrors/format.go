package verrors

// FormatError reports malformed on-disk bytes: a zero-length skip level, a
// bad checksum, a version mismatch, or any other structural violation of
// the bit-exact on-disk contracts. Format errors are always fatal to the
// operation that discovered them.
type FormatError struct {
	*baseError
	file   string
	offset int64
	reason string
}

// NewFormatError creates a FormatError wrapping cause with the given code and message.
func NewFormatError(cause error, code ErrorCode, msg string) *FormatError {
	return &FormatError{baseError: NewBaseError(cause, code, msg)}
}

func (fe *FormatError) WithMessage(msg string) *FormatError {
	fe.baseError.WithMessage(msg)
	return fe
}

func (fe *FormatError) WithCode(code ErrorCode) *FormatError {
	fe.baseError.WithCode(code)
	return fe
}

func (fe *FormatError) WithDetail(key string, value any) *FormatError {
	fe.baseError.WithDetail(key, value)
	return fe
}

// WithFile records which on-disk file was being parsed.
func (fe *FormatError) WithFile(file string) *FormatError {
	fe.file = file
	return fe
}

// WithOffset records the byte offset where the malformed data was found.
func (fe *FormatError) WithOffset(offset int64) *FormatError {
	fe.offset = offset
	return fe
}

// WithReason describes, in prose, what was wrong with the bytes.
func (fe *FormatError) WithReason(reason string) *FormatError {
	fe.reason = reason
	return fe
}

func (fe *FormatError) File() string   { return fe.file }
func (fe *FormatError) Offset() int64  { return fe.offset }
func (fe *FormatError) Reason() string { return fe.reason }

// NewZeroLengthLevelError is returned by the skip-list reader when an
// intermediate or trailing level advertises a zero byte length, which is a
// format error per spec (open question ii resolved: never legal).
func NewZeroLengthLevelError(file string, level int) *FormatError {
	return NewFormatError(nil, ErrorCodeZeroLengthLevel, "skip list level has zero length").
		WithFile(file).
		WithDetail("level", level).
		WithReason("every skip level, intermediate or bottom, must be non-empty")
}
