package excel

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateUpload(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		size        int64
		wantErr     error
	}{
		{name: "xlsx", contentType: MIMEXLSX, size: 1024},
		{name: "xls", contentType: MIMEXLS, size: 1024},
		{name: "xls with params", contentType: "application/vnd.ms-excel; charset=binary", size: 10},
		{name: "exact limit", contentType: MIMEXLSX, size: MaxFileSize},
		{name: "over limit", contentType: MIMEXLSX, size: MaxFileSize + 1, wantErr: ErrFileTooLarge},
		{name: "csv", contentType: "text/csv", size: 10, wantErr: ErrInvalidFormat},
		{name: "pdf", contentType: "application/pdf", size: 10, wantErr: ErrInvalidFormat},
		{name: "empty type", contentType: "", size: 10, wantErr: ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUpload(tt.contentType, tt.size)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "inventario.xlsx", want: "inventario.xlsx"},
		{in: "/etc/passwd.xlsx", want: "passwd.xlsx"},
		{in: `..\..\repuestos.xls`, want: "repuestos.xls"},
		{in: "  lista\x00 precios.xlsx  ", want: "lista precios.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := SanitizeName(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeName_Truncates(t *testing.T) {
	long := strings.Repeat("ñ", 200) + ".xlsx"

	got, err := SanitizeName(long)

	require.NoError(t, err)
	assert.LessOrEqual(t, len(got), MaxNameLen)
	assert.True(t, strings.HasSuffix(got, ".xlsx"))
	assert.True(t, utf8.ValidString(got))
}

func TestContentTypeFor(t *testing.T) {
	assert.Equal(t, MIMEXLS, ContentTypeFor("old.XLS"))
	assert.Equal(t, MIMEXLSX, ContentTypeFor("new.xlsx"))
	assert.Equal(t, MIMEXLSX, ContentTypeFor("noext"))
}
