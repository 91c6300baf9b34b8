package localface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Represent(t *testing.T) {
	tests := []struct {
		name           string
		serverResponse interface{}
		serverStatus   int
		wantErr        bool
		wantErrContain string
		validateResp   func(*testing.T, *RepresentResponse)
	}{
		{
			name: "successful response with single face",
			serverResponse: RepresentResponse{
				Results: []RepresentResult{
					{
						Embedding:  make([]float64, 128),
						FacialArea: FacialArea{X: 10, Y: 20, W: 100, H: 100},
					},
				},
			},
			serverStatus: http.StatusOK,
			wantErr:      false,
			validateResp: func(t *testing.T, resp *RepresentResponse) {
				require.NotNil(t, resp)
				assert.Len(t, resp.Results, 1)
				assert.Len(t, resp.Results[0].Embedding, 128)
				assert.Equal(t, 10, resp.Results[0].FacialArea.X)
				assert.Equal(t, 100, resp.Results[0].FacialArea.W)
			},
		},
		{
			name: "two faces in frame",
			serverResponse: RepresentResponse{
				Results: []RepresentResult{
					{Embedding: make([]float64, 128), FacialArea: FacialArea{X: 10, Y: 20, W: 100, H: 100}},
					{Embedding: make([]float64, 128), FacialArea: FacialArea{X: 150, Y: 30, W: 90, H: 90}},
				},
			},
			serverStatus: http.StatusOK,
			wantErr:      false,
			validateResp: func(t *testing.T, resp *RepresentResponse) {
				require.NotNil(t, resp)
				assert.Len(t, resp.Results, 2)
			},
		},
		{
			name:           "empty response",
			serverResponse: RepresentResponse{Results: []RepresentResult{}},
			serverStatus:   http.StatusOK,
			wantErr:        false,
			validateResp: func(t *testing.T, resp *RepresentResponse) {
				require.NotNil(t, resp)
				assert.Len(t, resp.Results, 0)
			},
		},
		{
			name:           "bad request 400 is not retried",
			serverResponse: map[string]string{"error": "invalid image format"},
			serverStatus:   http.StatusBadRequest,
			wantErr:        true,
			wantErrContain: "status 400",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/represent", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var req RepresentRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.NotEmpty(t, req.Img)

				w.WriteHeader(tt.serverStatus)
				_ = json.NewEncoder(w).Encode(tt.serverResponse)
			}))
			defer server.Close()

			client := NewClient(Config{
				BaseURL:    server.URL,
				Timeout:    5 * time.Second,
				Model:      "Facenet",
				Detector:   "ssd_mobilenet",
				RetryCount: 0,
			})

			resp, err := client.Represent(context.Background(), "ZnJhbWU=")
			if tt.wantErr {
				require.Error(t, err)
				if tt.wantErrContain != "" {
					assert.Contains(t, err.Error(), tt.wantErrContain)
				}
				return
			}

			require.NoError(t, err)
			if tt.validateResp != nil {
				tt.validateResp(t, resp)
			}
		})
	}
}

func TestClient_Analyze(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyze", r.URL.Path)

		var req AnalyzeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"emotion"}, req.Actions)

		_ = json.NewEncoder(w).Encode(AnalyzeResponse{
			Results: []AnalyzeResult{
				{
					Region:  FacialArea{X: 5, Y: 5, W: 200, H: 220},
					Emotion: map[string]float64{"happy": 87.5, "neutral": 10.0, "sad": 2.5},
				},
			},
		})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Timeout: 5 * time.Second})

	resp, err := client.Analyze(context.Background(), "ZnJhbWU=")
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.InDelta(t, 87.5, resp.Results[0].Emotion["happy"], 0.001)
}

func TestClient_LoadModel(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/models/load", r.URL.Path)

		var req LoadModelRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		_ = json.NewEncoder(w).Encode(LoadModelResponse{Loaded: true, Kind: req.Kind})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Timeout: 5 * time.Second})

	require.NoError(t, client.LoadModel(context.Background(), "detector"))
	assert.Equal(t, 1, calls)
}

func TestClient_LoadModel_NotLoaded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(LoadModelResponse{Loaded: false, Kind: "expression"})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Timeout: 5 * time.Second})

	err := client.LoadModel(context.Background(), "expression")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: time.Second},
		{attempt: 1, want: time.Second},
		{attempt: 2, want: 2 * time.Second},
		{attempt: 3, want: 4 * time.Second},
		{attempt: 4, want: 8 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, calculateBackoff(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(RepresentResponse{})
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, Timeout: 5 * time.Second, RetryCount: 3})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Represent(ctx, "ZnJhbWU=")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
