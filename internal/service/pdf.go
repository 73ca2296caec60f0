package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrInvalidPDF indicates the supplied payload was not a decodable PDF.
var ErrInvalidPDF = errors.New("payload is not a valid pdf")

// FileUploader abstracts the ingestion service that stores a binary blob and
// returns an opaque reference usable by the AI backend.
type FileUploader interface {
	UploadPDF(ctx context.Context, name string, data []byte) (string, error)
}

// decodePDFDataURL decodes a base64 data-URL (or bare base64 string) and
// verifies the payload really is a PDF before it is uploaded anywhere.
func decodePDFDataURL(dataURL string) ([]byte, error) {
	payload := strings.TrimSpace(dataURL)
	if payload == "" {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidPDF)
	}

	if strings.HasPrefix(payload, "data:") {
		_, encoded, found := strings.Cut(payload, ",")
		if !found {
			return nil, fmt.Errorf("%w: malformed data url", ErrInvalidPDF)
		}
		payload = encoded
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPDF, err)
	}

	if !mimetype.Detect(data).Is("application/pdf") {
		return nil, fmt.Errorf("%w: unexpected content type", ErrInvalidPDF)
	}

	return data, nil
}
