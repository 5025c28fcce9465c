package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client talks to the central server's sync API over HTTP, authenticating
// each request with a short-lived device token.
type Client struct {
	baseURL  string
	secret   string
	storeID  string
	deviceID string
	http     *http.Client
	logger   *zap.Logger
}

// NewClient returns a Client for the given server. The secret signs device
// tokens; storeID and deviceID identify this terminal in every request.
func NewClient(baseURL, secret, storeID, deviceID string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		secret:   secret,
		storeID:  storeID,
		deviceID: deviceID,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// FetchCatalog downloads the server's reference data for this store.
func (c *Client) FetchCatalog(ctx context.Context, storeID string) (*Catalog, error) {
	var catalog Catalog
	path := "/api/v1/catalog?" + url.Values{"store_id": {storeID}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &catalog); err != nil {
		return nil, fmt.Errorf("fetching catalog: %w", err)
	}
	return &catalog, nil
}

// FetchStockLevels downloads the authoritative stock counts for this store.
func (c *Client) FetchStockLevels(ctx context.Context, storeID string) ([]StockLevel, error) {
	var out struct {
		Levels []StockLevel `json:"levels"`
	}
	path := "/api/v1/stock?" + url.Values{"store_id": {storeID}}.Encode()
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("fetching stock levels: %w", err)
	}
	return out.Levels, nil
}

// PushRecord uploads one locally-modified record. The record's stable local
// id keys the upsert on the server, so a retried push is harmless. Returns
// the server-assigned identifier.
func (c *Client) PushRecord(ctx context.Context, table, id string, payload map[string]any) (string, error) {
	var out struct {
		RemoteID string `json:"remote_id"`
	}
	path := "/api/v1/sync/" + url.PathEscape(table) + "/" + url.PathEscape(id)
	if err := c.do(ctx, http.MethodPut, path, payload, &out); err != nil {
		return "", fmt.Errorf("pushing %s record: %w", table, err)
	}
	return out.RemoteID, nil
}

// PushStockLevel reports this store's on-hand count for one product.
func (c *Client) PushStockLevel(ctx context.Context, level StockLevel) error {
	if err := c.do(ctx, http.MethodPut, "/api/v1/stock", level, nil); err != nil {
		return fmt.Errorf("pushing stock level: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	token, err := GenerateDeviceToken(c.secret, c.storeID, c.deviceID)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &TransientError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Debug("server error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return statusError(resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
