package api

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

// Field is a plain form value.
type Field struct {
	Name  string
	Value string
}

// File is a file part. ContentType defaults to application/octet-stream.
// Open is called each time the body is encoded, so a File can be sent again after a failed attempt.
type File struct {
	Field       string
	Name        string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// BytesFile is a File backed by an in-memory copy of data.
func BytesFile(name, contentType string, data []byte) File {
	content := bytes.Clone(data)
	return File{
		Name:        name,
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(content)), nil
		},
	}
}

// PathFile is a File read from path on every send. The content type is guessed from the extension.
func PathFile(path string) File {
	return File{
		Name:        filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// MultipartBody is a multipart/form-data payload.
type MultipartBody struct {
	Fields []Field
	Files  []File
}

// AddField appends a form value and returns the body for chaining.
func (m *MultipartBody) AddField(name, value string) *MultipartBody {
	m.Fields = append(m.Fields, Field{Name: name, Value: value})
	return m
}

func (m *MultipartBody) AddFile(f File) *MultipartBody {
	m.Files = append(m.Files, f)
	return m
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (m *MultipartBody) encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range m.Fields {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", fmt.Errorf("field %q: %w", f.Name, err)
		}
	}

	for _, f := range m.Files {
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(f.Field), quoteEscaper.Replace(f.Name)))
		h.Set("Content-Type", ct)

		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("file %q: %w", f.Name, err)
		}
		if f.Open != nil {
			if err := copyFile(part, f); err != nil {
				return nil, "", err
			}
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func copyFile(dst io.Writer, f File) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("open file %q: %w", f.Name, err)
	}
	defer rc.Close()
	if _, err := io.Copy(dst, rc); err != nil {
		return fmt.Errorf("file %q: %w", f.Name, err)
	}
	return nil
}
