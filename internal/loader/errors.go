package loader

import "errors"

// Fatal load conditions. Any of these aborts the load entirely; the caller
// must not proceed with a partial table.
var (
	ErrWorkbookOpen   = errors.New("workbook could not be opened")
	ErrNoUsableSheets = errors.New("no sheet could be parsed")
	ErrEmptyTable     = errors.New("no usable rows after normalization")
)

// ErrMissingHeaders marks a single sheet whose header row does not carry the
// required columns. It is recoverable: the sheet is skipped with a warning.
var ErrMissingHeaders = errors.New("sheet is missing required headers")
