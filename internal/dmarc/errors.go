package dmarc

import "errors"

// Error kinds returned by ReadFile and Parse. Callers match them with errors.Is,
// the wrapped message carries the path or offending field.
var (
	ErrFileNotFound        = errors.New("file not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrNoXMLInZip          = errors.New("no xml file found in zip archive")
	ErrMalformedReport     = errors.New("malformed report")
	ErrDecompression       = errors.New("decompression error")
)

// FieldError names a missing or invalid element of a report. Parse wraps all
// field errors of a document together with ErrMalformedReport.
type FieldError struct {
	Path   string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Path + ": " + e.Reason
}
