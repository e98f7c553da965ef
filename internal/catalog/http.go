package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	apperrors "github.com/gigpass/storefront/pkg/errors"
	"github.com/gigpass/storefront/pkg/httpclient"
)

// HTTPCatalog implements Catalog against the catalog service's HTTP API,
// going through the resilient circuit-breaker client.
type HTTPCatalog struct {
	client  *httpclient.CircuitBreakerClient
	baseURL string
	logger  *slog.Logger
}

// NewHTTPCatalog creates a catalog client for the given base URL.
func NewHTTPCatalog(client *httpclient.CircuitBreakerClient, baseURL string, logger *slog.Logger) *HTTPCatalog {
	return &HTTPCatalog{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

type productResponse struct {
	Data *Product `json:"data"`
}

type productListResponse struct {
	Data []Product `json:"data"`
}

// GetProduct retrieves a single product by id.
func (c *HTTPCatalog) GetProduct(ctx context.Context, productID string) (*Product, error) {
	endpoint := fmt.Sprintf("%s/api/v1/products/%s", c.baseURL, url.PathEscape(productID))

	resp, err := c.client.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("catalog get product: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.NotFound("product", productID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog get product: unexpected status %d", resp.StatusCode)
	}

	var body productResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode product response: %w", err)
	}
	if body.Data == nil {
		return nil, apperrors.NotFound("product", productID)
	}

	return body.Data, nil
}

// GetProducts retrieves a batch of products by id. Products the catalog does
// not know are simply absent from the result.
func (c *HTTPCatalog) GetProducts(ctx context.Context, productIDs []string) (map[string]*Product, error) {
	if len(productIDs) == 0 {
		return map[string]*Product{}, nil
	}

	endpoint := fmt.Sprintf("%s/api/v1/products?ids=%s",
		c.baseURL, url.QueryEscape(strings.Join(productIDs, ",")))

	resp, err := c.client.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("catalog get products: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog get products: unexpected status %d", resp.StatusCode)
	}

	var body productListResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode product list response: %w", err)
	}

	products := make(map[string]*Product, len(body.Data))
	for i := range body.Data {
		p := body.Data[i]
		products[p.ID] = &p
	}

	return products, nil
}
