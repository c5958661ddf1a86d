package excel

import "errors"

var (
	// ErrMissingFilePath is returned when file path is not specified
	ErrMissingFilePath = errors.New("file path is required")

	// ErrInvalidFileFormat is returned when the file is not a valid Excel file
	ErrInvalidFileFormat = errors.New("invalid Excel file format")

	// ErrUnknownSheetID is returned when a structural request names a sheet
	// id the workbook does not have
	ErrUnknownSheetID = errors.New("unknown sheet id")

	// ErrSheetExists is returned when adding a sheet whose title is taken
	ErrSheetExists = errors.New("sheet already exists")
)
