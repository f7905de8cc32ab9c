package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"asindir/client/internal/config"
	"asindir/client/internal/domain"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"golang.org/x/sync/errgroup"
	"resty.dev/v3"
)

// DirectoryClient covers every endpoint of the ASIN directory backend.
type DirectoryClient interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CreateCategory(ctx context.Context, name string) (*domain.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	ListRanges(ctx context.Context, categoryID string) ([]domain.Range, error)
	CreateRange(ctx context.Context, name, categoryID string) (*domain.Range, error)
	DeleteRange(ctx context.Context, id string) error

	ListProducts(ctx context.Context, rangeID string) ([]domain.Product, error)
	CreateProduct(ctx context.Context, name, rangeID, categoryID string) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error

	MoveAsins(ctx context.Context, asinIDs []string, productID string) error

	ListAsins(ctx context.Context, page, limit int, search string) (*domain.DirectoryPage, error)
	GetAllDirectoryPages(ctx context.Context, search string) (*domain.DirectoryResults, error)
	BulkManual(ctx context.Context, asins []string) (*domain.ImportResult, error)
	BulkCsv(ctx context.Context, csvData string) (*domain.ImportResult, error)
}

type directoryClient struct {
	rl         ratelimit.Limiter
	config     config.APIConfig
	baseURL    string
	httpClient *resty.Client
}

// NewDirectoryClient builds a client that sends each request exactly once.
func NewDirectoryClient(cfg config.APIConfig) DirectoryClient {
	client := resty.New().
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	if cfg.Token != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.Token)
	}

	return &directoryClient{
		rl:         ratelimit.New(cfg.MaxRequestsPerSecond),
		config:     cfg,
		baseURL:    cfg.BaseURL,
		httpClient: client,
	}
}

type createCategoryRequest struct {
	Name string `json:"name"`
}

type createRangeRequest struct {
	Name       string `json:"name"`
	CategoryID string `json:"categoryId"`
}

type createProductRequest struct {
	Name       string `json:"name"`
	RangeID    string `json:"rangeId"`
	CategoryID string `json:"categoryId"`
}

type moveRequest struct {
	AsinIDs   []string `json:"asinIds"`
	ProductID string   `json:"productId"`
}

type bulkManualRequest struct {
	Asins []string `json:"asins"`
}

type bulkCsvRequest struct {
	CsvData string `json:"csvData"`
}

func (c *directoryClient) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var categories []domain.Category
	if err := c.get(ctx, "/asin-list-categories", nil, &categories); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (c *directoryClient) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	var category domain.Category
	if err := c.post(ctx, "/asin-list-categories", createCategoryRequest{Name: name}, &category); err != nil {
		return nil, fmt.Errorf("failed to create category %q: %w", name, err)
	}
	return &category, nil
}

func (c *directoryClient) DeleteCategory(ctx context.Context, id string) error {
	if err := c.delete(ctx, "/asin-list-categories/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("failed to delete category %s: %w", id, err)
	}
	return nil
}

func (c *directoryClient) ListRanges(ctx context.Context, categoryID string) ([]domain.Range, error) {
	var ranges []domain.Range
	query := url.Values{"categoryId": {categoryID}}
	if err := c.get(ctx, "/asin-list-ranges", query, &ranges); err != nil {
		return nil, fmt.Errorf("failed to list ranges of category %s: %w", categoryID, err)
	}
	return ranges, nil
}

func (c *directoryClient) CreateRange(ctx context.Context, name, categoryID string) (*domain.Range, error) {
	var rng domain.Range
	body := createRangeRequest{Name: name, CategoryID: categoryID}
	if err := c.post(ctx, "/asin-list-ranges", body, &rng); err != nil {
		return nil, fmt.Errorf("failed to create range %q: %w", name, err)
	}
	return &rng, nil
}

func (c *directoryClient) DeleteRange(ctx context.Context, id string) error {
	if err := c.delete(ctx, "/asin-list-ranges/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("failed to delete range %s: %w", id, err)
	}
	return nil
}

func (c *directoryClient) ListProducts(ctx context.Context, rangeID string) ([]domain.Product, error) {
	var products []domain.Product
	query := url.Values{"rangeId": {rangeID}}
	if err := c.get(ctx, "/asin-list-products", query, &products); err != nil {
		return nil, fmt.Errorf("failed to list products of range %s: %w", rangeID, err)
	}
	return products, nil
}

func (c *directoryClient) CreateProduct(ctx context.Context, name, rangeID, categoryID string) (*domain.Product, error) {
	var product domain.Product
	body := createProductRequest{Name: name, RangeID: rangeID, CategoryID: categoryID}
	if err := c.post(ctx, "/asin-list-products", body, &product); err != nil {
		return nil, fmt.Errorf("failed to create product %q: %w", name, err)
	}
	return &product, nil
}

func (c *directoryClient) DeleteProduct(ctx context.Context, id string) error {
	if err := c.delete(ctx, "/asin-list-products/"+url.PathEscape(id)); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	return nil
}

func (c *directoryClient) MoveAsins(ctx context.Context, asinIDs []string, productID string) error {
	body := moveRequest{AsinIDs: asinIDs, ProductID: productID}
	if err := c.post(ctx, "/asin-list-products/move", body, nil); err != nil {
		return fmt.Errorf("failed to move %d ASINs to product %s: %w", len(asinIDs), productID, err)
	}
	return nil
}

func (c *directoryClient) ListAsins(ctx context.Context, page, limit int, search string) (*domain.DirectoryPage, error) {
	query := url.Values{
		"page":  {strconv.Itoa(page)},
		"limit": {strconv.Itoa(limit)},
	}
	if search != "" {
		query.Set("search", search)
	}

	var result domain.DirectoryPage
	if err := c.get(ctx, "/asin-directory", query, &result); err != nil {
		return nil, fmt.Errorf("failed to list ASIN directory page %d: %w", page, err)
	}
	result.PageNumber = page
	return &result, nil
}

// GetAllDirectoryPages reads the first page to learn the total, then fetches
// the rest with at most MaxWorkers requests in flight. Pages come back in order.
func (c *directoryClient) GetAllDirectoryPages(ctx context.Context, search string) (*domain.DirectoryResults, error) {
	limit := c.config.PageSize

	firstPage, err := c.ListAsins(ctx, 1, limit, search)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch first page: %w", err)
	}

	results := &domain.DirectoryResults{
		Search:     search,
		Total:      firstPage.Total,
		TotalPages: totalPages(firstPage.Total, limit),
		Pages:      []*domain.DirectoryPage{firstPage},
	}

	if results.TotalPages <= 1 {
		return results, nil
	}

	pages := make([]*domain.DirectoryPage, results.TotalPages+1)
	pages[1] = firstPage

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.MaxWorkers)

	for pageNum := 2; pageNum <= results.TotalPages; pageNum++ {
		g.Go(func() error {
			page, err := c.ListAsins(gctx, pageNum, limit, search)
			if err != nil {
				log.Errorf("❌ Failed to fetch directory page %d: %v", pageNum, err)
				return err
			}
			pages[pageNum] = page
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	results.Pages = pages[1:]

	log.Debugf("Fetched %d directory pages, %d records", results.TotalPages, results.Total)
	return results, nil
}

func totalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 1
	}
	return (total + limit - 1) / limit
}

func (c *directoryClient) BulkManual(ctx context.Context, asins []string) (*domain.ImportResult, error) {
	var result domain.ImportResult
	if err := c.post(ctx, "/asin-directory/bulk-manual", bulkManualRequest{Asins: asins}, &result); err != nil {
		return nil, fmt.Errorf("failed to import %d ASINs: %w", len(asins), err)
	}
	return &result, nil
}

func (c *directoryClient) BulkCsv(ctx context.Context, csvData string) (*domain.ImportResult, error) {
	var result domain.ImportResult
	if err := c.post(ctx, "/asin-directory/bulk-csv", bulkCsvRequest{CsvData: csvData}, &result); err != nil {
		return nil, fmt.Errorf("failed to import CSV: %w", err)
	}
	return &result, nil
}

func (c *directoryClient) get(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	c.rl.Take()
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(target)
	return c.decode(ctx, resp, err, out)
}

func (c *directoryClient) post(ctx context.Context, path string, body, out any) error {
	c.rl.Take()
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(body).
		Post(c.baseURL + path)
	return c.decode(ctx, resp, err, out)
}

func (c *directoryClient) delete(ctx context.Context, path string) error {
	c.rl.Take()
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Delete(c.baseURL + path)
	return c.decode(ctx, resp, err, nil)
}

func (c *directoryClient) decode(ctx context.Context, resp *resty.Response, err error, out any) error {
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("request failed: %w", err)
	}

	if resp.IsError() {
		return newAPIError(resp.StatusCode(), resp.String())
	}

	if out == nil {
		return nil
	}

	body := resp.String()
	if body == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(body), out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
