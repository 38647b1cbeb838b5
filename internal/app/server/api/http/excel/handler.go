package excel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"excelkeeper/internal/app/server/api/http/apierr"
	"excelkeeper/internal/app/server/api/http/middleware"
	"excelkeeper/internal/domain/excel"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

const dateLayout = "2006-01-02"

// Middlewares цепочки для чтения, удаления и загрузки.
type Middlewares struct {
	Read   huma.Middlewares
	Admin  huma.Middlewares
	Upload huma.Middlewares
}

type Handler struct {
	service    excel.Servicer
	log        *slog.Logger
	middleware Middlewares
}

func NewHandler(service excel.Servicer, log *slog.Logger, mws Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log.With(slog.String("component", "excel_handler")),
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.uploadOp(), h.upload)
	huma.Register(api, h.downloadOp(), h.download)
	huma.Register(api, h.deleteOp(), h.delete)
	huma.Register(api, h.filesOp(), h.files)
}

func (h *Handler) upload(ctx context.Context, input *uploadInput) (*messageOutput, error) {
	defer func() { _ = input.RawBody.RemoveAll() }()

	headers := input.RawBody.File[FormField]
	if len(headers) == 0 {
		return nil, apierr.Validation("No se subió ningún archivo")
	}
	fh := headers[0]

	if err := excel.ValidateUpload(fh.Header.Get("Content-Type"), fh.Size); err != nil {
		return nil, mapFileError(err)
	}

	f, err := fh.Open()
	if err != nil {
		h.logError(ctx, "open uploaded file", err)
		return nil, apierr.Internal()
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, excel.MaxFileSize+1))
	if err != nil {
		h.logError(ctx, "read uploaded file", err)
		return nil, apierr.Internal()
	}

	if err := h.service.Store(context.WithoutCancel(ctx), fh.Filename, data); err != nil {
		if e := mapFileError(err); e != nil {
			return nil, e
		}
		h.logError(ctx, "store file", err)
		return nil, apierr.Infra(err, "Error al guardar el archivo")
	}

	return &messageOutput{
		Body: MessageResponse{Success: true, Message: "Archivo Excel actualizado correctamente"},
	}, nil
}

func (h *Handler) download(ctx context.Context, _ *struct{}) (*downloadOutput, error) {
	file, err := h.service.Retrieve(context.WithoutCancel(ctx))
	if err != nil {
		if errors.Is(err, excel.ErrNotFound) {
			return nil, apierr.NotFound("No hay archivo almacenado")
		}
		h.logError(ctx, "retrieve file", err)
		return nil, apierr.Infra(err, "Error al recuperar el archivo")
	}

	return &downloadOutput{
		ContentType:        excel.ContentTypeFor(file.Name),
		ContentDisposition: disposition(file.Name),
		ContentLength:      strconv.Itoa(len(file.Data)),
		Body:               file.Data,
	}, nil
}

func (h *Handler) delete(ctx context.Context, _ *struct{}) (*messageOutput, error) {
	if err := h.service.Remove(context.WithoutCancel(ctx)); err != nil {
		h.logError(ctx, "remove file", err)
		return nil, apierr.Infra(err, "Error al eliminar el archivo")
	}

	return &messageOutput{
		Body: MessageResponse{Success: true, Message: "Archivo eliminado con éxito!"},
	}, nil
}

func (h *Handler) files(ctx context.Context, _ *struct{}) (*filesOutput, error) {
	info, err := h.service.Describe(context.WithoutCancel(ctx))
	if err != nil {
		if errors.Is(err, excel.ErrNotFound) {
			return &filesOutput{Body: FilesResponse{Message: "No hay archivos cargados"}}, nil
		}
		h.logError(ctx, "describe file", err)
		return nil, apierr.Infra(err, "Error al obtener los archivos")
	}

	return &filesOutput{
		Body: FilesResponse{
			ID:           info.ID,
			FileName:     info.Name,
			UploadedDate: info.UploadedAt.Format(dateLayout),
			Success:      true,
		},
	}, nil
}

func (h *Handler) logError(ctx context.Context, msg string, err error) {
	h.log.Error(msg,
		slog.String("request_id", middleware.RequestIDFromContext(ctx)),
		slog.String("error", err.Error()),
	)
}

// mapFileError переводит ошибки валидации файла в ответ 400, для прочих возвращает nil.
func mapFileError(err error) *apierr.Error {
	switch {
	case errors.Is(err, excel.ErrFileTooLarge):
		return apierr.New(http.StatusBadRequest, apierr.CodeFileTooLarge,
			fmt.Sprintf("Archivo demasiado grande (máximo %dMB)", excel.MaxFileSize>>20))
	case errors.Is(err, excel.ErrInvalidFormat):
		return apierr.New(http.StatusBadRequest, apierr.CodeInvalidFormat, "Formato de archivo inválido")
	case errors.Is(err, excel.ErrEmptyFile):
		return apierr.Validation("El archivo está vacío")
	case errors.Is(err, excel.ErrNameRequired):
		return apierr.Validation("Nombre de archivo inválido")
	}
	return nil
}

// disposition кодирует имя по RFC 2231, если оно не ASCII.
func disposition(name string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}
