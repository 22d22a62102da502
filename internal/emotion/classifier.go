// Package emotion labels free text with the dominant emotion it expresses.
// The provider is hidden behind Classifier so callers never see its
// request or response shapes.
package emotion

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrEmptyText = errors.New("text to classify is empty")
	ErrNoChoices = errors.New("provider returned no choices")
)

// Classifier returns the dominant emotion expressed in text.
type Classifier interface {
	Classify(ctx context.Context, text string) (string, error)
}

// ClassifyError reports a failed call to the classification provider.
type ClassifyError struct {
	Provider string
	Err      error
}

func (e *ClassifyError) Error() string {
	return fmt.Sprintf("%s classification failed: %v", e.Provider, e.Err)
}

func (e *ClassifyError) Unwrap() error {
	return e.Err
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, text string) (string, error)

func (f ClassifierFunc) Classify(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}
