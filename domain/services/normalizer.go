package services

import "context"

// CorruptReason tags a deterministic normalization failure (§7).
type CorruptReason string

const (
	CorruptReasonDecompressionBomb CorruptReason = "decompression_bomb"
	CorruptReasonCannotIdentify    CorruptReason = "cannot_identify"
	CorruptReasonOpenError         CorruptReason = "open_error"
	CorruptReasonTooLarge          CorruptReason = "too_large"
	CorruptReasonResizeFailure     CorruptReason = "resize_failure"
)

// NormalizeError carries a typed, non-retriable normalization failure. The
// Sync Engine persists these as corrupt entries rather than retrying them.
type NormalizeError struct {
	Reason CorruptReason
	Err    error
}

func (e *NormalizeError) Error() string {
	if e.Err != nil {
		return string(e.Reason) + ": " + e.Err.Error()
	}
	return string(e.Reason)
}

func (e *NormalizeError) Unwrap() error { return e.Err }

// NewNormalizeError builds a typed normalization failure.
func NewNormalizeError(reason CorruptReason, err error) *NormalizeError {
	return &NormalizeError{Reason: reason, Err: err}
}

// Normalizer is the Image Normalizer (C4): decode, validate, downscale to
// pixel and byte budgets, re-encode. Returns the input bytes unchanged when
// the image is within the pixel budget, otherwise re-encoded JPEG bytes, or
// a *NormalizeError classifying the deterministic failure.
type Normalizer interface {
	Normalize(ctx context.Context, data []byte, filename string) ([]byte, error)
}
