// Package translate defines the translation-service seam. The service
// itself is an external collaborator consumed as a black box.
package translate

import "context"

// Translator converts text into the site's secondary language.
type Translator interface {
	Translate(ctx context.Context, text string) (string, error)
}

// Noop returns the input unchanged. It is the default wiring when no
// translation service is configured.
type Noop struct{}

func (Noop) Translate(_ context.Context, text string) (string, error) {
	return text, nil
}
