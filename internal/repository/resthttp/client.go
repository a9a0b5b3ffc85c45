// Package resthttp implements the repository interface against the catalog
// store's HTTP API. The adapter is deliberately thin: it translates wire
// payloads and status codes, and leaves pacing and retries to the caller.
package resthttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/storeops/catalogctl/internal/catalog"
	"github.com/storeops/catalogctl/internal/repository"
)

const defaultTimeout = 30 * time.Second

// Config carries the connection settings for the catalog store API.
type Config struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// ConfigFromEnv reads connection settings from the environment. A .env file
// is loaded when present; missing files are fine since deployments usually
// export the variables directly.
func ConfigFromEnv() (Config, error) {
	_ = godotenv.Load()

	baseURL := os.Getenv("CATALOG_API_URL")
	if baseURL == "" {
		return Config{}, fmt.Errorf("CATALOG_API_URL is not set")
	}
	token := os.Getenv("CATALOG_API_TOKEN")
	if token == "" {
		return Config{}, fmt.Errorf("CATALOG_API_TOKEN is not set")
	}

	return Config{BaseURL: baseURL, Token: token}, nil
}

// Client talks to the catalog store over HTTP.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// New builds a Client from the config.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  httpClient,
	}, nil
}

type wireProduct struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	RawType     string   `json:"raw_type"`
	Cost        float64  `json:"cost"`
	Price       float64  `json:"price"`
	Tags        []string `json:"tags"`
	Collections []string `json:"collections"`
}

type wirePatch struct {
	Tags              []string `json:"tags,omitempty"`
	Price             *float64 `json:"price,omitempty"`
	AddCollections    []string `json:"collections_add,omitempty"`
	RemoveCollections []string `json:"collections_remove,omitempty"`
}

func (p wireProduct) toDomain() catalog.Product {
	return catalog.Product{
		ID:          p.ID,
		Title:       p.Title,
		RawType:     p.RawType,
		Cost:        p.Cost,
		Price:       p.Price,
		Tags:        p.Tags,
		Collections: p.Collections,
	}
}

// ListCandidates fetches one bounded page of products matching the filter.
func (c *Client) ListCandidates(ctx context.Context, filter repository.Filter, limit int) ([]catalog.Product, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if len(filter.IDs) > 0 {
		query.Set("ids", strings.Join(filter.IDs, ","))
	}
	if filter.Category != "" {
		query.Set("category", filter.Category)
	}

	var payload struct {
		Products []wireProduct `json:"products"`
	}
	if err := c.do(ctx, http.MethodGet, "/products?"+query.Encode(), nil, &payload); err != nil {
		return nil, err
	}

	products := make([]catalog.Product, 0, len(payload.Products))
	for _, p := range payload.Products {
		products = append(products, p.toDomain())
	}
	return products, nil
}

// GetProduct fetches a single product by ID.
func (c *Client) GetProduct(ctx context.Context, id string) (catalog.Product, error) {
	var payload struct {
		Product wireProduct `json:"product"`
	}
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, &payload); err != nil {
		return catalog.Product{}, err
	}
	return payload.Product.toDomain(), nil
}

// WriteProduct applies a partial update. Fields absent from the patch are
// never sent, so the store keeps whatever it had.
func (c *Client) WriteProduct(ctx context.Context, id string, patch repository.Patch) error {
	if patch.Empty() {
		return nil
	}
	body := wirePatch{
		Tags:              patch.Tags,
		Price:             patch.Price,
		AddCollections:    patch.AddCollections,
		RemoveCollections: patch.RemoveCollections,
	}
	return c.do(ctx, http.MethodPatch, "/products/"+url.PathEscape(id), body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &repository.TransientError{Err: err}
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return repository.ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return &repository.RateLimitedError{RetryAfter: retryAfter(resp)}
	case resp.StatusCode >= 500:
		return &repository.TransientError{Err: fmt.Errorf("store returned %s", resp.Status)}
	default:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("store returned %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}
}

func retryAfter(resp *http.Response) time.Duration {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
