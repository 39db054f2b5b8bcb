package prompt

import (
	"fmt"
	"strings"
)

// Builder assembles the prompts sent to the text and image models
type Builder struct {
	loader *Loader
}

// NewPromptBuilder creates a new prompt builder
func NewPromptBuilder() *Builder {
	return &Builder{
		loader: NewPromptLoader(),
	}
}

// BuildStorySystemPrompt returns the system prompt for a fresh story
func (b *Builder) BuildStorySystemPrompt() (string, error) {
	return b.loader.GetSystemPrompt()
}

// BuildMutationSystemPrompt returns the system prompt for a story revision.
// It layers the revision instructions on top of the base storyteller prompt
// so structure rules stay identical between fresh stories and revisions.
func (b *Builder) BuildMutationSystemPrompt() (string, error) {
	systemPrompt, err := b.loader.GetSystemPrompt()
	if err != nil {
		return "", err
	}
	mutationInstructions, err := b.loader.GetMutationInstructions()
	if err != nil {
		return "", err
	}
	return systemPrompt + "\n\n" + mutationInstructions, nil
}

// BuildStoryUserPrompt renders the seed idea as the user turn
func (b *Builder) BuildStoryUserPrompt(seed string) string {
	return fmt.Sprintf("Story seed:\n%s", strings.TrimSpace(seed))
}

// BuildMutationUserPrompt renders the change directive together with the
// current story text
func (b *Builder) BuildMutationUserPrompt(directive, storyText string) string {
	return fmt.Sprintf("Change directive:\n%s\n\nCurrent story:\n%s",
		strings.TrimSpace(directive), strings.TrimSpace(storyText))
}

// BuildIllustrationPrompt appends the shared style suffix to a scene
// description so every illustration in a story renders in one aesthetic
func (b *Builder) BuildIllustrationPrompt(sceneDescription string) (string, error) {
	style, err := b.loader.GetIllustrationStyle()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(sceneDescription) + " " + style, nil
}
