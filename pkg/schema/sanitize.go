package schema

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// sanitizeSchema strips markup from every user-facing string in the
// document. Schema files frequently travel through CMS-style editors, so
// labels and descriptions are treated as untrusted.
func sanitizeSchema(doc *FormSchema) {
	doc.Title = sanitizeText(doc.Title)
	doc.Description = sanitizeText(doc.Description)
	for si := range doc.Sections {
		section := &doc.Sections[si]
		section.Title = sanitizeText(section.Title)
		section.Description = sanitizeText(section.Description)
		for qi := range section.Questions {
			q := &section.Questions[qi]
			q.Label = sanitizeText(q.Label)
			q.Description = sanitizeText(q.Description)
			q.Placeholder = sanitizeText(q.Placeholder)
			for oi := range q.Options {
				q.Options[oi].Label = sanitizeText(q.Options[oi].Label)
			}
		}
	}
}

func sanitizeText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	return strings.TrimSpace(textSanitizer().Sanitize(trimmed))
}

func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}
