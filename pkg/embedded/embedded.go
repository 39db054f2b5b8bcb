package embedded

import (
	_ "embed"
)

// Embed all prompt data files
//
//go:embed data/system_prompt.txt
var SystemPromptTxt []byte

//go:embed data/mutation_instructions.txt
var MutationInstructionsTxt []byte

//go:embed data/illustration_style.txt
var IllustrationStyleTxt []byte
