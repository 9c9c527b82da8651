package verrors

// AnalyzerError reports a failure inside Analyzer.Reset. Per the
// propagation policy the affected field is skipped and the document is
// masked rather than failing the whole insert.
type AnalyzerError struct {
	*baseError
	field string
}

// NewAnalyzerError creates an AnalyzerError wrapping cause with the given code and message.
func NewAnalyzerError(cause error, code ErrorCode, msg string) *AnalyzerError {
	return &AnalyzerError{baseError: NewBaseError(cause, code, msg)}
}

func (ae *AnalyzerError) WithMessage(msg string) *AnalyzerError {
	ae.baseError.WithMessage(msg)
	return ae
}

func (ae *AnalyzerError) WithDetail(key string, value any) *AnalyzerError {
	ae.baseError.WithDetail(key, value)
	return ae
}

func (ae *AnalyzerError) WithField(field string) *AnalyzerError {
	ae.field = field
	return ae
}

func (ae *AnalyzerError) Field() string { return ae.field }

// PartialInsertError reports that a field or attribute write returned
// false during Segment.Writer.Insert. The document receives a doc_id but
// is masked; other documents proceed.
type PartialInsertError struct {
	*baseError
	docID     uint32
	fieldName string
}

// NewPartialInsertError creates a PartialInsertError.
func NewPartialInsertError(docID uint32, fieldName string) *PartialInsertError {
	return &PartialInsertError{
		baseError: NewBaseError(nil, ErrorCodePartialInsert, "field or attribute write failed"),
		docID:     docID,
		fieldName: fieldName,
	}
}

func (pe *PartialInsertError) DocID() uint32     { return pe.docID }
func (pe *PartialInsertError) FieldName() string { return pe.fieldName }
