package excel

import (
	"mime"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ValidateUpload проверяет размер и MIME-тип до чтения файла в память.
func ValidateUpload(contentType string, size int64) error {
	if size > MaxFileSize {
		return ErrFileTooLarge
	}
	if !AllowedContentType(contentType) {
		return ErrInvalidFormat
	}
	return nil
}

func AllowedContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	_, ok := allowedMIME[strings.ToLower(mediaType)]
	return ok
}

// SanitizeName оставляет только базовое имя без управляющих символов, не длиннее MaxNameLen байт.
func SanitizeName(name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	name = path.Base(strings.TrimSpace(name))
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == utf8.RuneError {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)

	if name == "" || name == "." || name == "/" || name == ".." {
		return "", ErrNameRequired
	}

	if len(name) > MaxNameLen {
		ext := path.Ext(name)
		if len(ext) >= MaxNameLen {
			ext = ""
		}
		name = truncateUTF8(strings.TrimSuffix(name, ext), MaxNameLen-len(ext)) + ext
	}
	return name, nil
}

// ContentTypeFor выбирает MIME-тип для скачивания по расширению.
func ContentTypeFor(name string) string {
	if strings.EqualFold(path.Ext(name), ".xls") {
		return MIMEXLS
	}
	return MIMEXLSX
}

func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
