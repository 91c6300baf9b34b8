package camera

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ticketguard/faceverify/internal/domain"
)

// HTTPDevice reads frames from a local camera sidecar over HTTP. Acquire
// probes the endpoint once so camera failures surface before a session
// starts polling.
type HTTPDevice struct {
	url    string
	client *http.Client
}

func NewHTTPDevice(url string, timeout time.Duration) *HTTPDevice {
	return &HTTPDevice{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}
}

func (d *HTTPDevice) Acquire(ctx context.Context) (Stream, error) {
	if _, err := d.fetch(ctx); err != nil {
		return nil, err
	}
	return &httpStream{device: d}, nil
}

func (d *HTTPDevice) fetch(ctx context.Context) (Frame, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return nil, domain.ErrCameraUnknown.WithError(err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, domain.ErrCameraUnknown.WithError(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden:
		return nil, domain.ErrCameraPermission
	case http.StatusNotFound:
		return nil, domain.ErrCameraNotFound
	case http.StatusConflict:
		return nil, domain.ErrCameraBusy
	default:
		return nil, domain.ErrCameraUnknown.WithError(fmt.Errorf("camera sidecar returned status %d", resp.StatusCode))
	}

	frame, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.ErrCameraUnknown.WithError(err)
	}
	return frame, nil
}

type httpStream struct {
	device *HTTPDevice
	closed bool
}

func (s *httpStream) Sample(ctx context.Context) (Frame, error) {
	if s.closed {
		return nil, ErrStreamClosed
	}
	return s.device.fetch(ctx)
}

func (s *httpStream) Close() error {
	s.closed = true
	return nil
}
