package app

import "strings"

// PromptTemplate holds the literal pieces a prompt is built from.
type PromptTemplate struct {
	Instruction   string
	ContextLabel  string
	QuestionLabel string
	Closing       string
}

// BuildPrompt lays out instruction, labelled context, the question in a triple
// quoted block and the closing line, in that order.
func BuildPrompt(tmpl PromptTemplate, contextText, question string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(tmpl.Instruction))
	b.WriteString("\n\n")
	b.WriteString(tmpl.ContextLabel)
	b.WriteString(":\n")
	b.WriteString(contextText)
	b.WriteString("\n\n")
	b.WriteString(tmpl.QuestionLabel)
	b.WriteString(": \"\"\"\n")
	b.WriteString(question)
	b.WriteString("\n\"\"\"\n\n")
	b.WriteString(strings.TrimSpace(tmpl.Closing))
	return b.String()
}

// FillKeyword substitutes every {{keyword}} placeholder in text.
func FillKeyword(text, keyword string) string {
	return strings.ReplaceAll(text, "{{keyword}}", keyword)
}

// WithKeyword returns a copy of tmpl with {{keyword}} filled in each part.
func (tmpl PromptTemplate) WithKeyword(keyword string) PromptTemplate {
	return PromptTemplate{
		Instruction:   FillKeyword(tmpl.Instruction, keyword),
		ContextLabel:  FillKeyword(tmpl.ContextLabel, keyword),
		QuestionLabel: FillKeyword(tmpl.QuestionLabel, keyword),
		Closing:       FillKeyword(tmpl.Closing, keyword),
	}
}
