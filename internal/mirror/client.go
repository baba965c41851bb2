// Package mirror talks to a remote copy of the catalog over HTTP. The remote
// end is either another trznica server or the legacy PHP endpoint; both
// shapes are accepted when reading.
package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/store"
)

// ProductsPath is the mirror endpoint relative to the base URL.
const ProductsPath = "/api/mirror/products"

// maxResponse caps how much of a response body is read.
const maxResponse = 64 << 20

// Client is a mirror client.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

// New returns a client for the mirror at baseURL. A nil http client gets a
// default with a 15 second timeout. token, if set, is sent as a bearer token.
func New(client *http.Client, baseURL, token string) *Client {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		http:    client,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

func (c *Client) newRequest(ctx context.Context, method string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+ProductsPath, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach mirror: %w", err)
	}
	defer func() {
		if closeErr := res.Body.Close(); closeErr != nil {
			slog.Warn("failed to close mirror response body", "error", closeErr)
		}
	}()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponse))
	if err != nil {
		return nil, fmt.Errorf("failed to read mirror response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(data, "error").String()
		if msg == "" {
			msg = http.StatusText(res.StatusCode)
		}
		return nil, fmt.Errorf("mirror returned status %d: %s", res.StatusCode, msg)
	}
	return data, nil
}

// FetchAll returns every product on the mirror, newest first. Records that
// cannot be read are skipped.
func (c *Client) FetchAll(ctx context.Context) ([]model.Listing, error) {
	req, err := c.newRequest(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, err
	}
	data, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return DecodeProducts(data)
}

// DecodeProducts reads a product array in either the current listing shape
// or the legacy one.
func DecodeProducts(data []byte) ([]model.Listing, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("mirror response is not valid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return nil, fmt.Errorf("mirror response is not an array")
	}

	listings := []model.Listing{}
	for i, rec := range doc.Array() {
		var l model.Listing
		var ok bool
		switch {
		case !rec.IsObject():
		case rec.Get("__backendId").Exists():
			l, ok = store.LegacyListing(rec)
		default:
			ok = json.Unmarshal([]byte(rec.Raw), &l) == nil && l.ID != ""
		}
		if !ok {
			slog.Warn("skipping unreadable mirror product", "index", i)
			continue
		}
		listings = append(listings, l)
	}
	return listings, nil
}

// Upsert sends l to the mirror and returns the ID it was stored under.
func (c *Client) Upsert(ctx context.Context, l model.Listing) (string, error) {
	body, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("encoding listing: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	data, err := c.do(req)
	if err != nil {
		return "", err
	}

	res := gjson.ParseBytes(data)
	if !res.Get("ok").Bool() {
		return "", fmt.Errorf("mirror did not accept listing %s", l.ID)
	}
	id := res.Get("id").String()
	if id == "" {
		id = res.Get("__backendId").String()
	}
	return id, nil
}
