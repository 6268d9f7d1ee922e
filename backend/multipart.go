package backend

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// Upload - файл, пришедший из формы дашборда.
type Upload struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

// UploadFromHeader оборачивает файл multipart-формы gin.
// nil или пустой файл даёт nil.
func UploadFromHeader(fh *multipart.FileHeader) *Upload {
	if fh == nil || fh.Size == 0 {
		return nil
	}
	return &Upload{
		Filename: fh.Filename,
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// usable - настоящий непустой файл
func (u *Upload) usable() bool {
	return u != nil && u.Size > 0 && u.Open != nil
}

// formBuilder собирает multipart-тело в памяти.
type formBuilder struct {
	buf bytes.Buffer
	w   *multipart.Writer
	err error
}

func newForm() *formBuilder {
	f := &formBuilder{}
	f.w = multipart.NewWriter(&f.buf)
	return f
}

// field всегда добавляет поле.
func (f *formBuilder) field(name, value string) {
	if f.err != nil {
		return
	}
	f.err = f.w.WriteField(name, value)
}

// optional добавляет поле только с непустым значением.
func (f *formBuilder) optional(name, value string) {
	if value != "" {
		f.field(name, value)
	}
}

// file добавляет файл, если он действительно передан.
func (f *formBuilder) file(name string, u *Upload) {
	if f.err != nil || !u.usable() {
		return
	}
	src, err := u.Open()
	if err != nil {
		f.err = fmt.Errorf("open upload %s: %w", u.Filename, err)
		return
	}
	defer src.Close()

	part, err := f.w.CreateFormFile(name, u.Filename)
	if err != nil {
		f.err = err
		return
	}
	if _, err := io.Copy(part, src); err != nil {
		f.err = fmt.Errorf("copy upload %s: %w", u.Filename, err)
	}
}

// finish закрывает writer и возвращает тело и Content-Type.
func (f *formBuilder) finish() (io.Reader, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	if err := f.w.Close(); err != nil {
		return nil, "", err
	}
	return &f.buf, f.w.FormDataContentType(), nil
}
