// Package pdf renders estimate documents the platform attaches to client
// quotes.
package pdf

import (
	"context"
	"io"
)

type Provider interface {
	GenerateEstimate(ctx context.Context, data EstimateData) (io.Reader, error)
}

type NoOpProvider struct{}

func (p *NoOpProvider) GenerateEstimate(ctx context.Context, data EstimateData) (io.Reader, error) {
	return nil, nil
}
