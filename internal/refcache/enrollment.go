package refcache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ticketguard/faceverify/internal/domain"
)

// enrollmentImage is one entry of the enrollment listing.
type enrollmentImage struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// enrollmentListResponse is the body of GET /face/images/{userId}.
type enrollmentListResponse struct {
	Images []enrollmentImage `json:"images"`
}

// FetchedImage is one downloaded enrollment image. A failed download keeps
// its slot with Err set so the cache builder can record the skip reason.
type FetchedImage struct {
	Path string
	Data []byte
	Err  error
}

// ImageFetcher retrieves a user's enrollment images.
type ImageFetcher interface {
	FetchImages(ctx context.Context, userID string) ([]FetchedImage, error)
}

// EnrollmentClient fetches enrollment images from the backend endpoint.
type EnrollmentClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewEnrollmentClient creates a client for the enrollment image endpoint.
func NewEnrollmentClient(baseURL string, timeout time.Duration) *EnrollmentClient {
	return &EnrollmentClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
	}
}

// FetchImages lists the user's enrollment images and downloads each one as
// binary. A failure to obtain the listing is a network error; a failure on a
// single download only marks that image.
func (c *EnrollmentClient) FetchImages(ctx context.Context, userID string) ([]FetchedImage, error) {
	listing, err := c.listImages(ctx, userID)
	if err != nil {
		return nil, domain.ErrNetwork.WithError(err)
	}

	images := make([]FetchedImage, 0, len(listing.Images))
	for _, img := range listing.Images {
		data, err := c.download(ctx, img.URL)
		images = append(images, FetchedImage{Path: img.Path, Data: data, Err: err})
	}

	return images, nil
}

func (c *EnrollmentClient) listImages(ctx context.Context, userID string) (*enrollmentListResponse, error) {
	url := fmt.Sprintf("%s/face/images/%s", c.baseURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list enrollment images: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("enrollment endpoint returned status %d", resp.StatusCode)
	}

	var listing enrollmentListResponse
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("decode enrollment listing: %w", err)
	}

	return &listing, nil
}

func (c *EnrollmentClient) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("image download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}

	return data, nil
}
