package dataprep

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrMissingColumn     = errors.New("column not found")
	ErrEmptyFile         = errors.New("file has no header row")
	ErrSheetNotFound     = errors.New("sheet not found")
	ErrInvalidQuantity   = errors.New("invalid quantity")

	// ErrOutsideRoot is returned for paths that escape the configured data root.
	ErrOutsideRoot = errors.New("path is outside the data root")
)

// DataLoadError reports a source file that could not be read or mapped.
type DataLoadError struct {
	Path string
	Row  int
	Err  error
}

func (e *DataLoadError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("load %s row %d: %v", e.Path, e.Row, e.Err)
	}
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *DataLoadError) Unwrap() error {
	return e.Err
}
