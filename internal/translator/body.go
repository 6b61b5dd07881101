package translator

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/raysh454/httpbrowser/internal/model"
)

// FormURLEncoded is the only content type that lets parameters become an
// urlencoded body.
const FormURLEncoded = "application/x-www-form-urlencoded"

// Part is one multipart/form-data part.
type Part struct {
	Name        string
	Contents    []byte
	Filename    string
	ContentType string
}

func methodIn(method string, allowed ...string) bool {
	method = strings.ToUpper(method)
	for _, m := range allowed {
		if method == m {
			return true
		}
	}
	return false
}

// MultipartData returns the multipart parts for req: files first, then the
// parameters flattened with bracket notation. It returns nil unless the
// method carries a body and at least one file is attached.
func MultipartData(req *model.Request) ([]Part, error) {
	if !methodIn(req.Method, "POST", "PUT", "PATCH") {
		return nil, nil
	}

	parts, err := MapFiles(req.Files, "")
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, nil
	}

	for _, kv := range req.Parameters.Flatten() {
		parts = append(parts, Part{Name: kv.Key, Contents: []byte(kv.Value)})
	}
	return parts, nil
}

// MapFiles converts file inputs to parts. Nested inputs are named
// prefix[name]; empty upload slots are skipped.
func MapFiles(files model.Files, prefix string) ([]Part, error) {
	var parts []Part
	for _, f := range files {
		name := f.Name
		if prefix != "" {
			name = prefix + "[" + f.Name + "]"
		}

		if f.Children != nil {
			nested, err := MapFiles(f.Children, name)
			if err != nil {
				return nil, err
			}
			parts = append(parts, nested...)
			continue
		}
		if f.File.Empty() {
			continue
		}

		contents, err := readUpload(f.File)
		if err != nil {
			return nil, fmt.Errorf("read upload %q: %w", name, err)
		}

		filename := f.File.Name
		if filename == "" && f.File.Path != "" {
			filename = filepath.Base(f.File.Path)
		}
		parts = append(parts, Part{
			Name:        name,
			Contents:    contents,
			Filename:    filename,
			ContentType: f.File.Type,
		})
	}
	return parts, nil
}

func readUpload(f *model.UploadedFile) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// FormData returns the parameters to send urlencoded, or false when the
// request is not a form submission: wrong method, a content type other than
// urlencoded, or a raw body.
func FormData(req *model.Request, headers *model.Headers) (model.Params, bool) {
	if !methodIn(req.Method, "POST", "PUT", "PATCH", "DELETE") {
		return nil, false
	}
	if ct, ok := headers.Get("Content-Type"); ok && ct != FormURLEncoded {
		return nil, false
	}
	if req.HasContent {
		return nil, false
	}
	return req.Parameters, true
}
