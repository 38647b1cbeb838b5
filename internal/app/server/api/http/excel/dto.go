package excel

import "mime/multipart"

// FormField имя поля multipart-формы с файлом.
const FormField = "excelFile"

type uploadInput struct {
	RawBody multipart.Form
}

type downloadOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	ContentLength      string `header:"Content-Length"`
	Body               []byte
}

type messageOutput struct {
	Body MessageResponse
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type filesOutput struct {
	Body FilesResponse
}

// FilesResponse при отсутствии файла содержит только success=false и message.
type FilesResponse struct {
	ID           int    `json:"id,omitempty"`
	FileName     string `json:"file_name,omitempty"`
	UploadedDate string `json:"uploaded_date,omitempty" doc:"Дата загрузки в формате YYYY-MM-DD"`
	Success      bool   `json:"success"`
	Message      string `json:"message,omitempty"`
}
