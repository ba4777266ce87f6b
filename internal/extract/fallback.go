package extract

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Errors surfaced to callers. ErrAllAttemptsFailed means every configured
// detector, including the final permissive retry, came up empty.
var (
	ErrAllAttemptsFailed = errors.New("all extraction attempts failed")
	ErrInvalidImage      = errors.New("invalid image data")
)

// Default detector ordering. Detectors have uncorrelated failure modes
// across lighting and pose, so cheap alternatives are worth trying before
// giving up; each fallback only runs when the previous attempt failed.
var (
	DefaultPrimaryDetector   = "opencv"
	DefaultFallbackDetectors = []string{"retinaface", "mtcnn", "ssd"}
)

// representer is the single-attempt capability the chain iterates over.
// Satisfied by *Client; a test double satisfies it too.
type representer interface {
	Represent(ctx context.Context, imageData []byte, cfg Config) ([]float32, error)
}

// Chain runs extraction attempts in a fixed order and returns the first
// success: primary detector strict, each fallback strict, then the primary
// again in permissive mode that does not require a confirmed detection.
type Chain struct {
	client    representer
	primary   string
	fallbacks []string
}

// NewChain builds the fallback chain around a service client. Empty
// arguments select the defaults.
func NewChain(client *Client, primary string, fallbacks []string) *Chain {
	return newChain(client, primary, fallbacks)
}

func newChain(client representer, primary string, fallbacks []string) *Chain {
	if primary == "" {
		primary = DefaultPrimaryDetector
	}
	if fallbacks == nil {
		fallbacks = DefaultFallbackDetectors
	}
	return &Chain{client: client, primary: primary, fallbacks: fallbacks}
}

// configs returns the attempt order.
func (c *Chain) configs() []Config {
	cfgs := make([]Config, 0, len(c.fallbacks)+2)
	cfgs = append(cfgs, Config{Detector: c.primary, EnforceDetection: true})
	for _, d := range c.fallbacks {
		cfgs = append(cfgs, Config{Detector: d, EnforceDetection: true})
	}
	cfgs = append(cfgs, Config{Detector: c.primary, EnforceDetection: false})
	return cfgs
}

// Extract attempts each configuration sequentially and returns the first
// embedding produced. Attempts are not parallelized: they are CPU-bound on
// the service side and later attempts are only needed after earlier failure.
func (c *Chain) Extract(ctx context.Context, imageData []byte) ([]float32, error) {
	if len(imageData) == 0 {
		return nil, ErrInvalidImage
	}

	var attemptErrs []error
	for _, cfg := range c.configs() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		embedding, err := c.client.Represent(ctx, imageData, cfg)
		if err == nil {
			return embedding, nil
		}
		log.Printf("extract: detector %s (enforce=%v) failed: %v", cfg.Detector, cfg.EnforceDetection, err)
		attemptErrs = append(attemptErrs, fmt.Errorf("%s: %w", cfg.Detector, err))
	}

	return nil, fmt.Errorf("%w: %w", ErrAllAttemptsFailed, errors.Join(attemptErrs...))
}
