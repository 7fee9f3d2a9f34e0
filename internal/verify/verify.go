// Package verify calls a vision-capable chat model to extract step
// counts from screenshots and to judge whether a screenshot was
// digitally altered. Both checks are opaque remote calls: they are
// non-deterministic, latency-bound, and any failure is returned to the
// caller rather than substituted with a default verdict.
package verify

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// StepVerification is the model's reading of a step-counter screenshot.
type StepVerification struct {
	StepCount        int     `json:"stepCount"`
	FraudProbability float64 `json:"fraudProbability"`
}

// ManipulationReport is the model's independent judgment on whether the
// image itself was altered.
type ManipulationReport struct {
	IsManipulated bool    `json:"isManipulated"`
	Confidence    float64 `json:"confidence"`
	Explanation   string  `json:"explanation"`
}

// Verifier is implemented by the HTTP client and by test fakes.
type Verifier interface {
	VerifyStepCount(ctx context.Context, photoDataURI string) (*StepVerification, error)
	DetectManipulation(ctx context.Context, photoDataURI string) (*ManipulationReport, error)
}

var ErrInvalidImage = errors.New("image must be a base64 data URI with an explicit media type")

// ValidatePhotoDataURI checks that the payload is self-describing:
// "data:<mediatype>;base64,<data>" with a non-empty media type and body.
func ValidatePhotoDataURI(s string) error {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return ErrInvalidImage
	}
	meta, data, ok := strings.Cut(rest, ",")
	if !ok || data == "" {
		return ErrInvalidImage
	}
	mediaType, found := strings.CutSuffix(meta, ";base64")
	if !found || mediaType == "" {
		return ErrInvalidImage
	}
	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func fmtProviderErr(name string, err error) error {
	return fmt.Errorf("%s: %w", name, err)
}
