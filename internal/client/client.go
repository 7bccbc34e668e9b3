package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sakif/apk-store/internal/apperror"
	"github.com/sakif/apk-store/internal/model"
	"github.com/sakif/apk-store/internal/service"
)

// Client is a typed HTTP client for the store API. The zero value is not
// usable; construct with New.
//
// Error responses are translated back into the same apperror sentinels the
// server started from, so CLI code can errors.Is() on ErrNotFound exactly
// like server-side code does.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// Option configures a Client.
type Option func(*Client)

// WithToken attaches an admin session token; it is sent as a Bearer header
// on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient substitutes the underlying *http.Client (tests, custom
// timeouts).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New creates a Client for the API at baseURL, e.g. "http://localhost:8080".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do issues a request and decodes the JSON response into out (when out is
// non-nil). Non-2xx responses are decoded as the API's error envelope and
// mapped back to domain errors.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("client: building request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("client: decoding response: %w", err)
		}
	}
	return nil
}

// decodeAPIError turns the server's error envelope back into a domain error.
func decodeAPIError(resp *http.Response) error {
	var envelope struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("client: server returned status %d", resp.StatusCode)
	}

	switch envelope.Error {
	case "validation_error":
		return apperror.ValidationFailed("request", envelope.Message)
	case "not_found":
		return &apperror.AppError{Err: apperror.ErrNotFound, Message: envelope.Message}
	case "unauthorized":
		return apperror.Unauthorized(envelope.Message)
	case "forbidden":
		return &apperror.AppError{Err: apperror.ErrForbidden, Message: envelope.Message}
	case "conflict":
		return &apperror.AppError{Err: apperror.ErrConflict, Message: envelope.Message}
	default:
		return fmt.Errorf("client: %s (status %d)", envelope.Message, resp.StatusCode)
	}
}

// Health checks the liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, "", nil)
}

// Apps fetches one page of the catalog.
func (c *Client) Apps(ctx context.Context, params service.ListParams) (*model.AppList, error) {
	q := url.Values{}
	if params.Category != "" {
		q.Set("category", params.Category)
	}
	if params.Featured != "" {
		q.Set("featured", params.Featured)
	}
	if params.Sort != "" {
		q.Set("sort", params.Sort)
	}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}

	path := "/api/apps"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var list model.AppList
	if err := c.do(ctx, http.MethodGet, path, nil, "", &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// App fetches a single app by ID.
func (c *Client) App(ctx context.Context, id string) (*model.App, error) {
	var app model.App
	if err := c.do(ctx, http.MethodGet, "/api/apps/"+url.PathEscape(id), nil, "", &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// Search runs a full-text search.
func (c *Client) Search(ctx context.Context, query string) ([]model.App, error) {
	var apps []model.App
	path := "/api/apps/search?q=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, "", &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// Featured fetches the featured shelf.
func (c *Client) Featured(ctx context.Context) ([]model.App, error) {
	return c.shelf(ctx, "/api/apps/featured")
}

// Popular fetches the most-downloaded shelf.
func (c *Client) Popular(ctx context.Context) ([]model.App, error) {
	return c.shelf(ctx, "/api/apps/popular")
}

// Recent fetches the recently-updated shelf.
func (c *Client) Recent(ctx context.Context) ([]model.App, error) {
	return c.shelf(ctx, "/api/apps/recent")
}

func (c *Client) shelf(ctx context.Context, path string) ([]model.App, error) {
	var apps []model.App
	if err := c.do(ctx, http.MethodGet, path, nil, "", &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// ByCategory fetches every app in a category.
func (c *Client) ByCategory(ctx context.Context, category string) ([]model.App, error) {
	return c.shelf(ctx, "/api/apps/category/"+url.PathEscape(category))
}

// Categories fetches the taxonomy.
func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := c.do(ctx, http.MethodGet, "/api/categories", nil, "", &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// Stats fetches catalog-wide aggregates.
func (c *Client) Stats(ctx context.Context) (*model.Stats, error) {
	var stats model.Stats
	if err := c.do(ctx, http.MethodGet, "/api/stats", nil, "", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Reviews fetches an app's reviews, newest first.
func (c *Client) Reviews(ctx context.Context, appID string) ([]model.Review, error) {
	var reviews []model.Review
	path := "/api/apps/" + url.PathEscape(appID) + "/reviews"
	if err := c.do(ctx, http.MethodGet, path, nil, "", &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// SubmitReview posts a review for an app.
func (c *Client) SubmitReview(ctx context.Context, appID string, input service.ReviewInput) (*model.Review, error) {
	payload, err := json.Marshal(map[string]any{
		"userId":   input.UserID,
		"userName": input.UserName,
		"rating":   input.Rating,
		"comment":  input.Comment,
	})
	if err != nil {
		return nil, fmt.Errorf("client: encoding review: %w", err)
	}

	var review model.Review
	path := "/api/apps/" + url.PathEscape(appID) + "/reviews"
	if err := c.do(ctx, http.MethodPost, path, bytes.NewReader(payload), "application/json", &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// Login trades admin credentials for a session token. Attach it with
// WithToken on a fresh client, or just keep using this one — Login stores
// the token on success.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", fmt.Errorf("client: encoding credentials: %w", err)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", bytes.NewReader(payload), "application/json", &resp); err != nil {
		return "", err
	}
	c.token = resp.Token
	return resp.Token, nil
}

// AppUpload mirrors the admin app form: text fields plus optional file
// paths. Nil pointer fields are omitted from the form entirely.
type AppUpload struct {
	Fields map[string]string // name, developer, category, version, ...

	APKPath         string
	IconPath        string
	ScreenshotPaths []string

	// Openers resolve a path to a reader; the CLI passes os.Open. Kept as a
	// field so tests can feed in-memory files.
	Open func(path string) (io.ReadCloser, error)
}

// CreateApp creates an app via the admin multipart endpoint.
func (c *Client) CreateApp(ctx context.Context, upload AppUpload) (*model.App, error) {
	return c.sendAppForm(ctx, http.MethodPost, "/api/apps", upload)
}

// UpdateApp updates an app via the admin multipart endpoint. Only the fields
// and files present in the upload are touched.
func (c *Client) UpdateApp(ctx context.Context, id string, upload AppUpload) (*model.App, error) {
	return c.sendAppForm(ctx, http.MethodPut, "/api/apps/"+url.PathEscape(id), upload)
}

func (c *Client) sendAppForm(ctx context.Context, method, path string, upload AppUpload) (*model.App, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	for key, value := range upload.Fields {
		if err := form.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("client: writing form field %s: %w", key, err)
		}
	}

	addFile := func(field, path string) error {
		if path == "" {
			return nil
		}
		f, err := upload.Open(path)
		if err != nil {
			return fmt.Errorf("client: opening %s: %w", path, err)
		}
		defer f.Close()

		part, err := form.CreateFormFile(field, baseName(path))
		if err != nil {
			return fmt.Errorf("client: creating %s part: %w", field, err)
		}
		if _, err := io.Copy(part, f); err != nil {
			return fmt.Errorf("client: copying %s: %w", path, err)
		}
		return nil
	}

	if err := addFile("apk", upload.APKPath); err != nil {
		return nil, err
	}
	if err := addFile("icon", upload.IconPath); err != nil {
		return nil, err
	}
	for _, shot := range upload.ScreenshotPaths {
		if err := addFile("screenshots", shot); err != nil {
			return nil, err
		}
	}

	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("client: finalizing form: %w", err)
	}

	var app model.App
	if err := c.do(ctx, method, path, &buf, form.FormDataContentType(), &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// DeleteApp removes an app.
func (c *Client) DeleteApp(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/apps/"+url.PathEscape(id), nil, "", nil)
}

// CreateCategory adds a category.
func (c *Client) CreateCategory(ctx context.Context, input service.CategoryInput) (*model.Category, error) {
	return c.sendCategory(ctx, http.MethodPost, "/api/categories", input)
}

// UpdateCategory updates a category.
func (c *Client) UpdateCategory(ctx context.Context, id string, input service.CategoryInput) (*model.Category, error) {
	return c.sendCategory(ctx, http.MethodPut, "/api/categories/"+url.PathEscape(id), input)
}

func (c *Client) sendCategory(ctx context.Context, method, path string, input service.CategoryInput) (*model.Category, error) {
	body := map[string]any{}
	if input.Name != nil {
		body["name"] = *input.Name
	}
	if input.DisplayName != nil {
		body["displayName"] = *input.DisplayName
	}
	if input.Icon != nil {
		body["icon"] = *input.Icon
	}
	if input.Description != nil {
		body["description"] = *input.Description
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("client: encoding category: %w", err)
	}

	var category model.Category
	if err := c.do(ctx, method, path, bytes.NewReader(payload), "application/json", &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// DeleteCategory removes a category.
func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/categories/"+url.PathEscape(id), nil, "", nil)
}

// Download starts an APK download. The caller gets the response body (must
// close it), the server-suggested filename, and the content length (-1 when
// unknown) — enough to drive a progress bar while copying to disk.
func (c *Client) Download(ctx context.Context, id string) (io.ReadCloser, string, int64, error) {
	path := "/api/apps/" + url.PathEscape(id) + "/download"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, "", 0, fmt.Errorf("client: building request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", 0, fmt.Errorf("client: downloading %s: %w", id, err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, "", 0, decodeAPIError(resp)
	}

	return resp.Body, attachmentFilename(resp.Header.Get("Content-Disposition")), resp.ContentLength, nil
}

// attachmentFilename pulls the filename out of a Content-Disposition header.
// The server quotes filenames with %q, so embedded quotes arrive
// backslash-escaped; mime.ParseMediaType undoes that.
// Returns "" when the header is absent or unparseable.
func attachmentFilename(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
