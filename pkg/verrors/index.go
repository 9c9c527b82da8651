package verrors

// IndexError reports a logical invariant violated while reading an index,
// such as non-monotonic doc_ids within a posting list or incompatible
// feature sets across a merged field.
type IndexError struct {
	*baseError
	field string
	term  string
	docID uint32
}

// NewIndexError creates an IndexError wrapping cause with the given code and message.
func NewIndexError(cause error, code ErrorCode, msg string) *IndexError {
	return &IndexError{baseError: NewBaseError(cause, code, msg)}
}

func (ie *IndexError) WithMessage(msg string) *IndexError {
	ie.baseError.WithMessage(msg)
	return ie
}

func (ie *IndexError) WithCode(code ErrorCode) *IndexError {
	ie.baseError.WithCode(code)
	return ie
}

func (ie *IndexError) WithDetail(key string, value any) *IndexError {
	ie.baseError.WithDetail(key, value)
	return ie
}

func (ie *IndexError) WithField(field string) *IndexError {
	ie.field = field
	return ie
}

func (ie *IndexError) WithTerm(term string) *IndexError {
	ie.term = term
	return ie
}

func (ie *IndexError) WithDocID(docID uint32) *IndexError {
	ie.docID = docID
	return ie
}

func (ie *IndexError) Field() string { return ie.field }
func (ie *IndexError) Term() string  { return ie.term }
func (ie *IndexError) DocID() uint32 { return ie.docID }

// NewNonMonotonicDocIDError reports that a posting list's doc_ids were not
// strictly ascending, which breaks invariant 1 of the write path.
func NewNonMonotonicDocIDError(field, term string, prev, got uint32) *IndexError {
	return NewIndexError(nil, ErrorCodeNonMonotonicDocID, "doc_id sequence is not strictly ascending").
		WithField(field).WithTerm(term).WithDocID(got).
		WithDetail("previous", prev)
}
