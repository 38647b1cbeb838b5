package excel

import (
	"net/http"

	"excelkeeper/internal/domain/excel"

	"github.com/danielgtaylor/huma/v2"
)

const (
	UploadPath = "/api/v1/upload-excel"
	// UploadBodyLimit запас на заголовки multipart поверх размера файла.
	UploadBodyLimit = excel.MaxFileSize + 1<<20
)

var bearer = []map[string][]string{{"bearer": {}}}

func (h *Handler) uploadOp() huma.Operation {
	return huma.Operation{
		OperationID: "upload-excel",
		Method:      http.MethodPost,
		Path:        UploadPath,
		Summary:     "Загрузка Excel-файла, заменяет хранимый",
		Tags:        []string{"excel"},
		Security:    bearer,
		Middlewares: h.middleware.Upload,
	}
}

func (h *Handler) downloadOp() huma.Operation {
	return huma.Operation{
		OperationID: "get-excel",
		Method:      http.MethodGet,
		Path:        "/api/v1/get-excel",
		Summary:     "Скачивание хранимого файла",
		Tags:        []string{"excel"},
		Security:    bearer,
		Middlewares: h.middleware.Read,
	}
}

func (h *Handler) deleteOp() huma.Operation {
	return huma.Operation{
		OperationID: "delete-excel",
		Method:      http.MethodDelete,
		Path:        "/api/v1/delete-excel",
		Summary:     "Удаление хранимого файла",
		Tags:        []string{"excel"},
		Security:    bearer,
		Middlewares: h.middleware.Admin,
	}
}

func (h *Handler) filesOp() huma.Operation {
	return huma.Operation{
		OperationID: "files",
		Method:      http.MethodGet,
		Path:        "/api/v1/files",
		Summary:     "Сведения о хранимом файле",
		Tags:        []string{"excel"},
		Security:    bearer,
		Middlewares: h.middleware.Read,
	}
}
