package verrors

// baseError is the common error shape every domain-specific error in this
// package embeds. It follows the error wrapping pattern so callers can keep
// chaining errors.Is/errors.As while attaching structured context at the
// point of failure.
type baseError struct {
	cause   error
	message string
	code    ErrorCode
	details map[string]any
}

// NewBaseError creates a new baseError wrapping err with the given code and message.
func NewBaseError(err error, code ErrorCode, msg string) *baseError {
	return &baseError{cause: err, code: code, message: msg}
}

// WithMessage updates the error message.
func (be *baseError) WithMessage(msg string) *baseError {
	be.message = msg
	return be
}

// WithCode sets the error code.
func (be *baseError) WithCode(code ErrorCode) *baseError {
	be.code = code
	return be
}

// WithDetail adds a lazily-allocated key/value of context to the error.
func (be *baseError) WithDetail(key string, value any) *baseError {
	if be.details == nil {
		be.details = make(map[string]any)
	}
	be.details[key] = value
	return be
}

// Error implements the error interface.
func (be *baseError) Error() string {
	return be.message
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (be *baseError) Unwrap() error {
	return be.cause
}

// Code returns the error's category.
func (be *baseError) Code() ErrorCode {
	return be.code
}

// Details returns the structured context attached to the error.
func (be *baseError) Details() map[string]any {
	return be.details
}
