// internal/utils/dataurl.go
package utils

import (
	"encoding/base64"
	"errors"
	"strings"
)

var ErrInvalidDataURL = errors.New("invalid data URL")

// DecodeDataURL decodes a base64 "data:" URL into its bytes and content
// type. Bare base64 input is accepted and reported as image/jpeg.
func DecodeDataURL(value string) ([]byte, string, error) {
	contentType := "image/jpeg"
	payload := strings.TrimSpace(value)

	if strings.HasPrefix(payload, "data:") {
		header, body, ok := strings.Cut(payload, ",")
		if !ok || !strings.HasSuffix(header, ";base64") {
			return nil, "", ErrInvalidDataURL
		}
		if mediaType := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64"); mediaType != "" {
			contentType = mediaType
		}
		payload = body
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", ErrInvalidDataURL
	}
	if len(data) == 0 {
		return nil, "", ErrInvalidDataURL
	}
	return data, contentType, nil
}
