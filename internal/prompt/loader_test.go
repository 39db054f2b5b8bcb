package prompt

import (
	"strings"
	"testing"
)

func TestNewPromptLoader(t *testing.T) {
	loader := NewPromptLoader()
	if loader == nil {
		t.Fatal("NewPromptLoader() returned nil")
	}
}

func TestGetSystemPrompt(t *testing.T) {
	loader := NewPromptLoader()
	content, err := loader.GetSystemPrompt()

	if err != nil {
		t.Fatalf("GetSystemPrompt() returned error: %v", err)
	}

	if content == "" {
		t.Error("GetSystemPrompt() returned empty string")
	}

	// Check for expected content
	if !strings.Contains(content, "storyteller") {
		t.Error("GetSystemPrompt() does not contain expected content")
	}
	if !strings.Contains(content, "image_prompt") {
		t.Error("GetSystemPrompt() does not mention image_prompt blocks")
	}

	// Ensure no excessive whitespace
	if strings.HasPrefix(content, "\n\n\n") {
		t.Error("GetSystemPrompt() has excessive leading newlines")
	}
}

func TestGetMutationInstructions(t *testing.T) {
	loader := NewPromptLoader()
	content, err := loader.GetMutationInstructions()

	if err != nil {
		t.Fatalf("GetMutationInstructions() returned error: %v", err)
	}

	if content == "" {
		t.Error("GetMutationInstructions() returned empty string")
	}

	// Revision rules must cover the directive and structure
	if !strings.Contains(content, "directive") {
		t.Error("GetMutationInstructions() does not contain expected content")
	}
}

func TestGetIllustrationStyle(t *testing.T) {
	loader := NewPromptLoader()
	content, err := loader.GetIllustrationStyle()

	if err != nil {
		t.Fatalf("GetIllustrationStyle() returned error: %v", err)
	}

	if content == "" {
		t.Error("GetIllustrationStyle() returned empty string")
	}

	// The style suffix is one line appended to every illustration prompt
	if strings.Contains(content, "\n") {
		t.Error("GetIllustrationStyle() should be a single line")
	}
}

func TestAllLoadersReturnNonEmptyContent(t *testing.T) {
	loader := NewPromptLoader()

	tests := []struct {
		name string
		fn   func() (string, error)
	}{
		{"SystemPrompt", loader.GetSystemPrompt},
		{"MutationInstructions", loader.GetMutationInstructions},
		{"IllustrationStyle", loader.GetIllustrationStyle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content, err := tt.fn()
			if err != nil {
				t.Errorf("%s returned error: %v", tt.name, err)
			}
			if content == "" {
				t.Errorf("%s returned empty string", tt.name)
			}
			if len(content) < 10 {
				t.Errorf("%s returned suspiciously short content: %d characters", tt.name, len(content))
			}
		})
	}
}
