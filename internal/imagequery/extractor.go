// Package imagequery runs the external feature extractor that turns a query
// image into a single feature word. The word is then searched like any
// other query text.
package imagequery

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/vector-space-search/pkg/resilience"
)

// PathPlaceholder in the configured arguments is replaced by the image
// path. Without it, the path is appended as the last argument.
const PathPlaceholder = "{path}"

type Extractor struct {
	cfg     config.ExtractorConfig
	breaker *resilience.CircuitBreaker
	logger  *slog.Logger
}

// New returns an extractor running cfg.Command. onState, if not nil, is told
// about every breaker transition.
func New(cfg config.ExtractorConfig, onState func(name string, to resilience.State)) (*Extractor, error) {
	if cfg.Command == "" {
		return nil, fmt.Errorf("%w: extractor command is empty", apperrors.ErrInvalidInput)
	}
	return &Extractor{
		cfg: cfg,
		breaker: resilience.NewCircuitBreaker("feature-extractor", resilience.CircuitBreakerConfig{
			FailureThreshold: cfg.FailureThreshold,
			ResetTimeout:     cfg.ResetTimeout,
			OnStateChange:    onState,
		}),
		logger: slog.Default().With("component", "feature-extractor"),
	}, nil
}

// Extract runs the extractor on imagePath and returns the first word it
// prints. A non-zero exit, a timeout, an empty output or an open breaker
// all fail with ErrExtractionFailed.
func (x *Extractor) Extract(ctx context.Context, imagePath string) (string, error) {
	if strings.TrimSpace(imagePath) == "" {
		return "", fmt.Errorf("%w: empty image path", apperrors.ErrInvalidInput)
	}
	var word string
	err := x.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, x.cfg.Timeout, "feature-extractor", func(ctx context.Context) error {
			w, err := x.run(ctx, imagePath)
			word = w
			return err
		})
	})
	if err != nil {
		x.logger.Warn("feature extraction failed", "image", imagePath, "error", err)
		if errors.Is(err, apperrors.ErrExtractionFailed) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", apperrors.ErrExtractionFailed, err)
	}
	x.logger.Debug("feature extracted", "image", imagePath, "word", word)
	return word, nil
}

// BreakerState returns the breaker state name, for health checks.
func (x *Extractor) BreakerState() string {
	return x.breaker.GetState().String()
}

func (x *Extractor) run(ctx context.Context, imagePath string) (string, error) {
	cmd := exec.CommandContext(ctx, x.cfg.Command, x.args(imagePath)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return "", fmt.Errorf("%w: %s %s: %v: %s", apperrors.ErrExtractionFailed, x.cfg.Command, imagePath, err, msg)
	}
	fields := strings.Fields(stdout.String())
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: %s printed no feature word for %s", apperrors.ErrExtractionFailed, x.cfg.Command, imagePath)
	}
	return fields[0], nil
}

func (x *Extractor) args(imagePath string) []string {
	args := make([]string, 0, len(x.cfg.Args)+1)
	substituted := false
	for _, a := range x.cfg.Args {
		if strings.Contains(a, PathPlaceholder) {
			a = strings.ReplaceAll(a, PathPlaceholder, imagePath)
			substituted = true
		}
		args = append(args, a)
	}
	if !substituted {
		args = append(args, imagePath)
	}
	return args
}
