package optimize

import (
	_ "embed"
	"text/template"
)

//go:embed prompts/resume_rewrite.md
var resumeRewritePromptRaw string

// ResumeRewriteTemplate is the parsed prompt template for resume rewriting.
// Parsed once at package init; reused on every Optimize call.
var ResumeRewriteTemplate = template.Must(template.New("resume_rewrite").Parse(resumeRewritePromptRaw))
