package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

// ImgbbStorage uploads images to an imgbb compatible endpoint.
type ImgbbStorage struct {
	uploadURL  string
	apiKey     string
	httpClient *http.Client
}

func NewImgbbStorage(uploadURL, apiKey string) *ImgbbStorage {
	return &ImgbbStorage{
		uploadURL:  uploadURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type imgbbResponse struct {
	Success bool `json:"success"`
	Status  int  `json:"status"`
	Data    struct {
		DisplayURL string `json:"display_url"`
	} `json:"data"`
}

// Upload posts the file as the multipart field "image" and returns its
// display URL.
func (s *ImgbbStorage) Upload(ctx context.Context, name string, file io.Reader, _ string) (string, error) {
	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("image", name)
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize form: %w", err)
	}

	endpoint, err := url.Parse(s.uploadURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse upload url: %w", err)
	}
	q := endpoint.Query()
	q.Set("key", s.apiKey)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, string(raw))
	}

	var out imgbbResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}

	if !out.Success || out.Data.DisplayURL == "" {
		return "", fmt.Errorf("upload rejected with status %d", out.Status)
	}

	return out.Data.DisplayURL, nil
}
