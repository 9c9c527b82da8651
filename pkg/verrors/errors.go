// Package verrors implements the structured error taxonomy for vex's write
// path: FormatError for malformed on-disk bytes, IOError for failed
// directory operations, IndexError for logical invariant violations,
// AnalyzerError for token-stream reset failures, and PartialInsertError
// for per-document field/attribute write failures. Every type embeds a
// common baseError so callers get consistent chaining (errors.Is/As),
// error codes, and structured details regardless of which domain raised
// the error.
package verrors

import stdErrors "errors"

// IsFormatError reports whether err is or wraps a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return stdErrors.As(err, &fe)
}

// IsIOError reports whether err is or wraps an *IOError.
func IsIOError(err error) bool {
	var ie *IOError
	return stdErrors.As(err, &ie)
}

// IsIndexError reports whether err is or wraps an *IndexError.
func IsIndexError(err error) bool {
	var ie *IndexError
	return stdErrors.As(err, &ie)
}

// AsFormatError extracts a *FormatError from err's chain.
func AsFormatError(err error) (*FormatError, bool) {
	var fe *FormatError
	if stdErrors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// AsIOError extracts an *IOError from err's chain.
func AsIOError(err error) (*IOError, bool) {
	var ie *IOError
	if stdErrors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// AsIndexError extracts an *IndexError from err's chain.
func AsIndexError(err error) (*IndexError, bool) {
	var ie *IndexError
	if stdErrors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// GetErrorCode extracts the ErrorCode from any error in the taxonomy, or
// ErrorCodeInternal for anything else.
func GetErrorCode(err error) ErrorCode {
	if fe, ok := AsFormatError(err); ok {
		return fe.Code()
	}
	if ie, ok := AsIOError(err); ok {
		return ie.Code()
	}
	if ie, ok := AsIndexError(err); ok {
		return ie.Code()
	}
	var ae *AnalyzerError
	if stdErrors.As(err, &ae) {
		return ae.Code()
	}
	var pe *PartialInsertError
	if stdErrors.As(err, &pe) {
		return pe.Code()
	}
	return ErrorCodeInternal
}
