package inspection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"aoi-workspace/internal/domain/entity"
	"aoi-workspace/internal/domain/port"
)

const (
	defaultBaseURL     = "http://localhost:8000"
	defaultHTTPTimeout = 60 * time.Second
	maxResponseBytes   = 4 << 20
)

// Client обращается к сервису инспекции. Повторов нет: оператор перезапускает действие сам.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option настраивает клиент.
type Option func(*Client)

// WithTimeout задаёт общий таймаут запроса.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// NewClient создаёт клиент для сервиса по адресу baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type kbResponse struct {
	Parts []entity.CatalogEntry `json:"parts"`
}

// ListParts читает каталог деталей (GET /kb).
func (c *Client) ListParts(ctx context.Context) ([]entity.CatalogEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/kb", nil)
	if err != nil {
		return nil, fmt.Errorf("build kb request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("kb request: %w", err)
	}

	var payload kbResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode kb response: %w", err)
	}

	parts := make([]entity.CatalogEntry, 0, len(payload.Parts))
	for _, p := range payload.Parts {
		if strings.TrimSpace(p.PartID) == "" {
			continue
		}
		parts = append(parts, p)
	}
	return parts, nil
}

// Inspect отправляет изображение и параметры multipart-формой (POST /inspect).
func (c *Client) Inspect(ctx context.Context, ir *entity.InspectionRequest) (*entity.InspectionResult, error) {
	if ir == nil || ir.Image == nil {
		return nil, entity.ErrNoImage
	}

	payload, contentType, err := encodeForm(ir)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/inspect", payload)
	if err != nil {
		return nil, fmt.Errorf("build inspect request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	body, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("inspect request: %w", err)
	}
	return entity.ParseInspectionResult(body)
}

// encodeForm собирает поля part_id, file, psm, adaptive, whitelist.
func encodeForm(ir *entity.InspectionRequest) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	params := ir.Parameters
	fields := []struct{ name, value string }{
		{"part_id", params.EffectivePartID()},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.name, err)
		}
	}

	name := ir.Image.Name
	if name == "" {
		name = "image"
	}
	fw, err := w.CreateFormFile("file", name)
	if err != nil {
		return nil, "", fmt.Errorf("create file field: %w", err)
	}
	if _, err := fw.Write(ir.Image.Data); err != nil {
		return nil, "", fmt.Errorf("write file field: %w", err)
	}

	fields = []struct{ name, value string }{
		{"psm", params.PSM},
		{"adaptive", params.AdaptiveFlag()},
		{"whitelist", params.Whitelist},
	}
	for _, f := range fields {
		if err := w.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", f.name, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return body, nil
}

// StatusError — ответ сервиса с кодом вне 2xx.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("inspection service returned %d", e.Code)
	}
	return fmt.Sprintf("inspection service returned %d: %s", e.Code, e.Body)
}

// Проверка реализации интерфейсов
var (
	_ port.CatalogSource = (*Client)(nil)
	_ port.Inspector     = (*Client)(nil)
)
