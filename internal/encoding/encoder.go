package encoding

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// sniffLen matches http.DetectContentType's limit.
const sniffLen = 512

// InlineImage is the transportable form of a user-supplied image: the raw
// bytes plus the MIME type the downstream generation request needs alongside
// them.
type InlineImage struct {
	MIMEType string
	Data     []byte
}

// DataURI renders the image as a base64 data URI, the reference format the
// presentation layer displays directly.
func (img *InlineImage) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", img.MIMEType, base64.StdEncoding.EncodeToString(img.Data))
}

// IOError reports a user-supplied image that could not be read.
type IOError struct {
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("reading uploaded image: %v", e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// EncodeImage reads the full image from r and packages it for submission to
// the generation service. declaredType is the content type claimed by the
// upload; when it is missing or generic the bytes are sniffed instead, so the
// MIME type sent downstream always describes the actual payload.
func EncodeImage(r io.Reader, declaredType string) (*InlineImage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &IOError{Err: err}
	}
	if len(data) == 0 {
		return nil, &IOError{Err: io.ErrUnexpectedEOF}
	}

	mimeType := strings.TrimSpace(declaredType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data[:minInt(len(data), sniffLen)])
	}
	// Strip any parameters a browser may have attached ("image/png; x=y").
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}

	return &InlineImage{MIMEType: mimeType, Data: data}, nil
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
