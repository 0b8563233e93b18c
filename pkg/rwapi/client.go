// Package rwapi is a thin client for the Resource Watch REST API.
package rwapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned when the API answers 404.
var ErrNotFound = errors.New("rwapi: resource not found")

// Config configures the API client.
type Config struct {
	BaseURL     string
	Token       string
	Application string
	Env         string
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// Client talks to the Resource Watch API.
type Client struct {
	baseURL     string
	token       string
	application string
	env         string
	client      *http.Client
	logger      *slog.Logger
}

type tokenKey struct{}

// WithToken scopes an Authorization token to ctx, overriding Config.Token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// NewClient builds an API client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("rwapi: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		token:       cfg.Token,
		application: cfg.Application,
		env:         cfg.Env,
		client:      httpClient,
		logger:      logger,
	}, nil
}

// FetchCollections lists the signed-in user's collections.
func (c *Client) FetchCollections(ctx context.Context, params ListParams) (List[Collection], error) {
	return fetchList(ctx, c, "/v1/collection", params, func(r resource, v *Collection) { v.ID = r.ID })
}

// DeleteCollection removes a collection.
func (c *Client) DeleteCollection(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/collection/"+url.PathEscape(id), nil, nil)
}

// FetchDashboards lists dashboards.
func (c *Client) FetchDashboards(ctx context.Context, params ListParams) (List[Dashboard], error) {
	return fetchList(ctx, c, "/v1/dashboard", params, func(r resource, v *Dashboard) { v.ID = r.ID })
}

// DeleteDashboard removes a dashboard.
func (c *Client) DeleteDashboard(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/v1/dashboard/"+url.PathEscape(id), nil, nil)
}

// FetchDatasets lists datasets, used to populate dataset selects.
func (c *Client) FetchDatasets(ctx context.Context, params ListParams) (List[Dataset], error) {
	return fetchList(ctx, c, "/v1/dataset", params, func(r resource, v *Dataset) { v.ID = r.ID })
}

// FetchWidgets lists widgets.
func (c *Client) FetchWidgets(ctx context.Context, params ListParams) (List[Widget], error) {
	return fetchList(ctx, c, "/v1/widget", params, func(r resource, v *Widget) { v.ID = r.ID })
}

// FetchLayers lists layers.
func (c *Client) FetchLayers(ctx context.Context, params ListParams) (List[Layer], error) {
	return fetchList(ctx, c, "/v1/layer", params, func(r resource, v *Layer) { v.ID = r.ID })
}

// FetchWidget loads one widget.
func (c *Client) FetchWidget(ctx context.Context, id string) (Widget, error) {
	return fetchItem(ctx, c, "/v1/widget/"+url.PathEscape(id), func(r resource, v *Widget) { v.ID = r.ID })
}

// FetchLayer loads one layer.
func (c *Client) FetchLayer(ctx context.Context, id string) (Layer, error) {
	return fetchItem(ctx, c, "/v1/layer/"+url.PathEscape(id), func(r resource, v *Layer) { v.ID = r.ID })
}

func fetchList[T any](ctx context.Context, c *Client, path string, params ListParams, assign func(resource, *T)) (List[T], error) {
	var doc listDocument
	if err := c.do(ctx, http.MethodGet, path+"?"+c.encode(params), nil, &doc); err != nil {
		return List[T]{}, err
	}
	items := make([]T, 0, len(doc.Data))
	for _, r := range doc.Data {
		var v T
		if err := decodeAttributes(r, &v); err != nil {
			return List[T]{}, err
		}
		assign(r, &v)
		items = append(items, v)
	}
	return List[T]{Items: items, Meta: doc.Meta}, nil
}

func fetchItem[T any](ctx context.Context, c *Client, path string, assign func(resource, *T)) (T, error) {
	var (
		doc itemDocument
		v   T
	)
	if err := c.do(ctx, http.MethodGet, path, nil, &doc); err != nil {
		return v, err
	}
	if err := decodeAttributes(doc.Data, &v); err != nil {
		return v, err
	}
	assign(doc.Data, &v)
	return v, nil
}

func decodeAttributes(r resource, target any) error {
	if len(r.Attributes) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Attributes, target); err != nil {
		return fmt.Errorf("rwapi: decode %s %s: %w", r.Type, r.ID, err)
	}
	return nil
}

func (c *Client) encode(params ListParams) string {
	values := url.Values{}
	if params.Page > 0 {
		values.Set("page[number]", strconv.Itoa(params.Page))
	}
	if params.PageSize > 0 {
		values.Set("page[size]", strconv.Itoa(params.PageSize))
	}
	keys := make([]string, 0, len(params.Filters))
	for k := range params.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := params.Filters[k]; v != "" {
			values.Set(k, v)
		}
	}
	if len(params.Includes) > 0 {
		values.Set("includes", strings.Join(params.Includes, ","))
	}
	if c.application != "" {
		values.Set("application", c.application)
	}
	if c.env != "" {
		values.Set("env", c.env)
	}
	return values.Encode()
}

func (c *Client) do(ctx context.Context, method, path string, payload any, target any) error {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("rwapi: encode payload: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("rwapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.tokenFor(ctx); token != "" {
		req.Header.Set("Authorization", token)
	}
	c.logger.DebugContext(ctx, "rwapi request", "method", method, "path", path)
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("rwapi: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return fmt.Errorf("rwapi: remote error %d: %s", resp.StatusCode, strings.TrimSpace(buf.String()))
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("rwapi: decode response: %w", err)
	}
	return nil
}

func (c *Client) tokenFor(ctx context.Context) string {
	if token, ok := ctx.Value(tokenKey{}).(string); ok && token != "" {
		return token
	}
	return c.token
}
