package excel

import "errors"

var (
	ErrNotFound      = errors.New("no file stored")
	ErrEmptyFile     = errors.New("file is empty")
	ErrFileTooLarge  = errors.New("file too large")
	ErrInvalidFormat = errors.New("only Excel files are allowed")
	ErrNameRequired  = errors.New("file name required")
)
