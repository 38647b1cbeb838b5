package excel

import "time"

const (
	// MaxFileSize предел размера загружаемого файла (10 MiB).
	MaxFileSize = 10 << 20
	MaxNameLen  = 255

	MIMEXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MIMEXLS  = "application/vnd.ms-excel"
)

var allowedMIME = map[string]struct{}{
	MIMEXLSX: {},
	MIMEXLS:  {},
}

// File единственный хранимый файл.
type File struct {
	ID         int
	Name       string
	Data       []byte
	UploadedAt time.Time
}

// Info описание файла без содержимого.
type Info struct {
	ID         int
	Name       string
	UploadedAt time.Time
}
