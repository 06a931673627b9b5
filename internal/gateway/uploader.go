package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/labdesk/helpdesk/internal/domain"
)

// HTTPUploader posts attachments as multipart/form-data to {baseURL}/uploads and
// reads back {"url": "..."}.
type HTTPUploader struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

// NewHTTPUploader builds an uploader sharing the gateway's token source.
func NewHTTPUploader(baseURL string, tokens TokenSource, httpClient *http.Client) *HTTPUploader {
	if httpClient == nil {
		httpClient = NewHTTPClient(0)
	}
	if tokens == nil {
		tokens = TokenFunc(func(context.Context) string { return "" })
	}
	return &HTTPUploader{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient, tokens: tokens}
}

// Upload sends one file and returns the stored reference.
func (u *HTTPUploader) Upload(ctx context.Context, file domain.ImageUpload) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, file.Name))
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(file.Data); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/uploads", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", u.tokens.Token(ctx))

	resp, err := u.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", NewAPIError(resp.StatusCode, data)
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if out.URL == "" {
		return "", errors.New("upload response missing url")
	}
	return out.URL, nil
}
