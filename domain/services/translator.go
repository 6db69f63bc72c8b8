package services

import "context"

// Translator is the external translation collaborator (§4.3, §11). Search
// queries in a non-English language may be translated before embedding; a
// no-op implementation that returns its input unchanged satisfies callers
// when no translation backend is configured.
type Translator interface {
	// ToEnglish returns the English form of text, or text itself (with a
	// non-nil error) if translation failed or is unavailable.
	ToEnglish(ctx context.Context, text string) (string, error)
}

// NoopTranslator always returns its input unchanged.
type NoopTranslator struct{}

func (NoopTranslator) ToEnglish(_ context.Context, text string) (string, error) {
	return text, nil
}
