package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// StorageService holds avatar images. Profile handlers treat it as optional:
// when no backend is configured, avatar routes report the feature as
// unavailable instead of failing requests.
type StorageService interface {
	UploadFile(ctx context.Context, file multipart.File, filename string, folder string) (string, error)
	DeleteFile(ctx context.Context, fileURL string) error
	GetSignedURL(ctx context.Context, fileURL string) (string, error)
}

// SupabaseStorageService talks to the Supabase storage REST API directly.
type SupabaseStorageService struct {
	baseURL    string
	bucket     string
	serviceKey string
	client     *http.Client
}

func NewSupabaseStorageService(baseURL, bucket, serviceKey string) *SupabaseStorageService {
	return &SupabaseStorageService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		bucket:     bucket,
		serviceKey: serviceKey,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *SupabaseStorageService) objectURL(objectPath string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, s.bucket, objectPath)
}

func (s *SupabaseStorageService) send(ctx context.Context, method, target string, body []byte, contentType string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("storage request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("apikey", s.serviceKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage request: %w", err)
	}
	return resp, nil
}

func storageError(op string, resp *http.Response) error {
	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(detail)))
}

func (s *SupabaseStorageService) UploadFile(ctx context.Context, file multipart.File, filename string, folder string) (string, error) {
	objectPath := path.Join(strings.Trim(folder, "/"), filename)

	content, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("read avatar upload: %w", err)
	}

	resp, err := s.send(ctx, http.MethodPost, s.objectURL(objectPath), content, http.DetectContentType(content))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	// x-upsert is not needed: avatar filenames carry the user id, and
	// replacing the object on re-upload would break signed URL caching; the
	// handlers upload a fresh name and delete the old object instead.
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", storageError("upload avatar", resp)
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, objectPath), nil
}

func (s *SupabaseStorageService) DeleteFile(ctx context.Context, fileURL string) error {
	objectPath, err := s.objectPathFromURL(fileURL)
	if err != nil {
		return err
	}

	resp, err := s.send(ctx, http.MethodDelete, s.objectURL(objectPath), nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Already gone is fine; callers delete the previous avatar best-effort.
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return storageError("delete avatar", resp)
	}
	return nil
}

func (s *SupabaseStorageService) GetSignedURL(ctx context.Context, fileURL string) (string, error) {
	objectPath, err := s.objectPathFromURL(fileURL)
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(map[string]int{"expiresIn": 3600})
	if err != nil {
		return "", fmt.Errorf("sign avatar url: %w", err)
	}

	signURL := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", s.baseURL, s.bucket, objectPath)
	resp, err := s.send(ctx, http.MethodPost, signURL, payload, "application/json")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", storageError("sign avatar url", resp)
	}

	var signed struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&signed); err != nil {
		return "", fmt.Errorf("sign avatar url: decode response: %w", err)
	}
	if signed.SignedURL == "" {
		return "", fmt.Errorf("sign avatar url: empty signedURL in response")
	}

	return fmt.Sprintf("%s/storage/v1%s", s.baseURL, signed.SignedURL), nil
}

func (s *SupabaseStorageService) objectPathFromURL(fileURL string) (string, error) {
	parsed, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("parse avatar url: %w", err)
	}

	publicPrefix := "/storage/v1/object/public/" + s.bucket + "/"
	directPrefix := "/storage/v1/object/" + s.bucket + "/"

	switch {
	case strings.HasPrefix(parsed.Path, publicPrefix):
		return strings.TrimPrefix(parsed.Path, publicPrefix), nil
	case strings.HasPrefix(parsed.Path, directPrefix):
		return strings.TrimPrefix(parsed.Path, directPrefix), nil
	default:
		return "", fmt.Errorf("avatar url is not in the configured bucket")
	}
}
