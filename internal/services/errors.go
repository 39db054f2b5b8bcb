package services

import (
	"errors"
	"fmt"

	"github.com/fablehouse/fable-api/internal/models"
)

// ErrEmptyStory reports a generation round that produced no chapters.
var ErrEmptyStory = errors.New("generated story contains no chapters")

// ErrNoStory reports a mutation request made before any story exists in the
// session.
var ErrNoStory = errors.New("no story to mutate")

// NetworkError reports a provider call that failed before a usable response
// arrived.
type NetworkError struct {
	Provider string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ParseError reports provider output that did not match the storybook
// contract.
type ParseError struct {
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid story payload: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid story payload: %s", e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ImageGenerationError reports one illustration slot that could not be
// filled. It is scoped to a single block so the rest of the story is
// unaffected.
type ImageGenerationError struct {
	BlockID models.BlockID
	Err     error
}

func (e *ImageGenerationError) Error() string {
	return fmt.Sprintf("illustration %s failed: %v", e.BlockID, e.Err)
}

func (e *ImageGenerationError) Unwrap() error {
	return e.Err
}
