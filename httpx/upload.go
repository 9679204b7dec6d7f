package httpx

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
)

// ErrNoFile is returned by ReadUpload when the request carries no file.
var ErrNoFile = errors.New("no file uploaded")

// ErrTooLarge is returned by ReadUpload when the file exceeds the limit.
type ErrTooLarge struct {
	Limit int64
}

func (e ErrTooLarge) Error() string {
	return fmt.Sprintf("file larger than %d bytes", e.Limit)
}

// Upload is a single file posted as multipart field "file".
type Upload struct {
	Name     string
	MimeType string
	Data     []byte
	// other form fields sent along with the file
	Fields map[string]string
}

func (u Upload) Size() int64 {
	return int64(len(u.Data))
}

// ReadUpload reads the "file" field of a multipart request, at most maxSize
// bytes. The mime type is sniffed from the content.
func ReadUpload(w http.ResponseWriter, r *http.Request, maxSize int64) (Upload, error) {
	// room for the other fields and multipart framing
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1<<20)
	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return Upload{}, ErrTooLarge{maxSize}
		}
		return Upload{}, err
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return Upload{}, ErrNoFile
	}
	if err != nil {
		return Upload{}, err
	}
	defer file.Close()

	if header.Size > maxSize {
		return Upload{}, ErrTooLarge{maxSize}
	}
	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return Upload{}, err
	}
	if int64(len(data)) > maxSize {
		return Upload{}, ErrTooLarge{maxSize}
	}

	upload := Upload{
		Name:     header.Filename,
		MimeType: mimetype.Detect(data).String(),
		Data:     data,
		Fields:   map[string]string{},
	}
	for key, values := range r.MultipartForm.Value {
		if len(values) > 0 {
			upload.Fields[key] = values[0]
		}
	}
	return upload, nil
}
