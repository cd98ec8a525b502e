package evidence

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRecorderClosed is returned by Record once the recorder has shut down.
	ErrRecorderClosed = errors.New("recorder closed")

	// ErrBufferFull is returned when a record could not be queued before
	// the write timeout elapsed.
	ErrBufferFull = errors.New("evidence buffer full")
)

// describe renders "evidence <what> (k=v, ...): cause", skipping empty values.
func describe(what string, cause error, attrs ...string) string {
	var b strings.Builder
	b.WriteString("evidence ")
	b.WriteString(what)

	var parts []string
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i+1] == "" {
			continue
		}
		parts = append(parts, attrs[i]+"="+attrs[i+1])
	}
	if len(parts) > 0 {
		b.WriteString(" (")
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(")")
	}
	if cause != nil {
		b.WriteString(": ")
		b.WriteString(cause.Error())
	}
	return b.String()
}

// StorageError wraps a failure inside a storage backend.
type StorageError struct {
	Backend   string
	Operation string
	Err       error
}

func (e *StorageError) Error() string {
	return describe(e.Backend+" "+e.Operation, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError records which backend operation failed.
func NewStorageError(backend, operation string, err error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Err: err}
}

// QueryError reports a query that failed validation or execution.
type QueryError struct {
	Query *Query
	Err   error
}

func (e *QueryError) Error() string {
	return describe("query", e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

func NewQueryError(q *Query, err error) *QueryError {
	return &QueryError{Query: q, Err: err}
}

// RecorderError is returned when a record is dropped before it reaches
// storage.
type RecorderError struct {
	RecordID string
	Err      error
}

func (e *RecorderError) Error() string {
	return describe("record dropped", e.Err, "id", e.RecordID)
}

func (e *RecorderError) Unwrap() error { return e.Err }

func NewRecorderError(recordID string, err error) *RecorderError {
	return &RecorderError{RecordID: recordID, Err: err}
}

// RetentionError reports a failed pruning run.
type RetentionError struct {
	RetentionDays int
	Err           error
}

func (e *RetentionError) Error() string {
	days := "forever"
	if e.RetentionDays > 0 {
		days = fmt.Sprintf("%dd", e.RetentionDays)
	}
	return describe("prune", e.Err, "keep", days)
}

func (e *RetentionError) Unwrap() error { return e.Err }

func NewRetentionError(retentionDays int, err error) *RetentionError {
	return &RetentionError{RetentionDays: retentionDays, Err: err}
}

// ExportError reports a failed export. Written is the number of records
// already emitted when the failure happened.
type ExportError struct {
	Format  string
	Written int
	Err     error
}

func (e *ExportError) Error() string {
	return describe(e.Format+" export", e.Err, "written", fmt.Sprint(e.Written))
}

func (e *ExportError) Unwrap() error { return e.Err }

func NewExportError(format string, written int, err error) *ExportError {
	return &ExportError{Format: format, Written: written, Err: err}
}
