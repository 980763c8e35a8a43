package generate

import (
	"strings"
	"text/template"

	"gitlab.com/tozd/go/errors"
)

const promptTemplate = `You are a Senior Software Architect. Add professional documentation to this code.
RULES:
1. Detect language from '{{.Extension}}'.
2. Add a file header summary.
3. Add docstrings before functions/classes.
4. Explain 'WHAT' and 'WHY' (non-vague).
5. PRESERVE LOGIC EXACTLY.
6. OUTPUT: Raw code only. No Markdown blocks.

CODE:
{{.Content}}
`

var prompt = template.Must(template.New("prompt").Parse(promptTemplate))

// BuildPrompt renders the instruction sent for one file.
func BuildPrompt(content, extension string) (string, error) {
	var b strings.Builder
	err := prompt.Execute(&b, struct {
		Extension string
		Content   string
	}{extension, content})
	if err != nil {
		return "", errors.Errorf("rendering prompt: %w", err)
	}
	return b.String(), nil
}
