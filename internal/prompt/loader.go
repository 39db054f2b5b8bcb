package prompt

import (
	"strings"

	"github.com/fablehouse/fable-api/pkg/embedded"
)

type Loader struct{}

func NewPromptLoader() *Loader {
	return &Loader{}
}

// GetSystemPrompt loads the main storyteller system prompt
func (l *Loader) GetSystemPrompt() (string, error) {
	return strings.TrimSpace(string(embedded.SystemPromptTxt)), nil
}

// GetMutationInstructions loads the story revision instructions
func (l *Loader) GetMutationInstructions() (string, error) {
	return strings.TrimSpace(string(embedded.MutationInstructionsTxt)), nil
}

// GetIllustrationStyle loads the shared illustration style suffix
func (l *Loader) GetIllustrationStyle() (string, error) {
	return strings.TrimSpace(string(embedded.IllustrationStyleTxt)), nil
}
