package mock

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ticketguard/faceverify/internal/domain"
	"github.com/ticketguard/faceverify/internal/provider"
)

func TestProviderImplementsInterface(t *testing.T) {
	var _ provider.FaceProvider = (*Provider)(nil)
}

func TestDescriptor_Deterministic(t *testing.T) {
	p := New()
	ctx := context.Background()

	d1, err := p.Descriptor(ctx, []byte("mock:faces=1;alice"))
	require.NoError(t, err)
	d2, err := p.Descriptor(ctx, []byte("mock:smile=0.9;alice"))
	require.NoError(t, err)
	d3, err := p.Descriptor(ctx, []byte("mock:faces=1;bob"))
	require.NoError(t, err)

	// Same payload, different directives: identical descriptor
	assert.Equal(t, d1, d2)
	assert.NotEqual(t, d1, d3)
	assert.Len(t, d1, domain.DescriptorLength)
}

func TestDescriptor_UnitNorm(t *testing.T) {
	p := New()

	d, err := p.Descriptor(context.Background(), []byte("payload"))
	require.NoError(t, err)

	var norm float64
	for _, v := range d {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestDescriptor_FaceCount(t *testing.T) {
	p := New()
	ctx := context.Background()

	_, err := p.Descriptor(ctx, []byte("mock:faces=0;empty"))
	assert.ErrorIs(t, err, domain.ErrNoFaceDetected)

	_, err = p.Descriptor(ctx, []byte("mock:faces=2;crowd"))
	assert.ErrorIs(t, err, domain.ErrMultipleFaces)
}

func TestDetectFaces_Directives(t *testing.T) {
	p := New()
	ctx := context.Background()

	faces, err := p.DetectFaces(ctx, []byte("mock:faces=2,cx=100,cy=120,size=50;x"))
	require.NoError(t, err)
	require.Len(t, faces, 2)

	first := faces[0].BoundingBox
	assert.Equal(t, domain.Point{X: 100, Y: 120}, first.Center())
	assert.Equal(t, 50.0, first.Size())

	// Plain frames default to one centered face
	faces, err = p.DetectFaces(ctx, []byte("no directives"))
	require.NoError(t, err)
	require.Len(t, faces, 1)
	assert.Equal(t, domain.Point{X: defaultCenterX, Y: defaultCenterY}, faces[0].BoundingBox.Center())
}

func TestExpressionScore(t *testing.T) {
	p := New()
	ctx := context.Background()

	score, err := p.ExpressionScore(ctx, []byte("mock:smile=0.85;x"))
	require.NoError(t, err)
	assert.Equal(t, 0.85, score)

	score, err = p.ExpressionScore(ctx, []byte("neutral frame"))
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestEnsureModels(t *testing.T) {
	p := New()
	ctx := context.Background()

	require.NoError(t, p.EnsureModels(ctx, provider.RequiredModels...))
	assert.True(t, p.Loaded(provider.ModelDetector))
	assert.False(t, p.Loaded(provider.ModelExpression))

	p.FailModels = map[provider.ModelKind]bool{provider.ModelExpression: true}
	err := p.EnsureModels(ctx, provider.ModelExpression)
	require.Error(t, err)

	var appErr *domain.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, domain.ErrModelLoad.Code, appErr.Code)
}
