package app

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPromptLayout(t *testing.T) {
	tmpl := PromptTemplate{
		Instruction:   "  Be helpful.  ",
		ContextLabel:  "Context sections",
		QuestionLabel: "Question",
		Closing:       "Answer:",
	}

	got := BuildPrompt(tmpl, "A\n---\n", "What is a token?")

	want := "Be helpful.\n\nContext sections:\nA\n---\n\n\nQuestion: \"\"\"\nWhat is a token?\n\"\"\"\n\nAnswer:"
	assert.Equal(t, want, got)
}

func TestBuildPromptIsDeterministic(t *testing.T) {
	tmpl := PromptTemplate{Instruction: "i", ContextLabel: "c", QuestionLabel: "q", Closing: "x"}
	assert.Equal(t, BuildPrompt(tmpl, "ctx", "q?"), BuildPrompt(tmpl, "ctx", "q?"))
}

func TestBuildPromptEmptyContext(t *testing.T) {
	tmpl := PromptTemplate{Instruction: "i", ContextLabel: "Context sections", QuestionLabel: "Question", Closing: "x"}
	got := BuildPrompt(tmpl, "", "q")
	assert.True(t, strings.HasPrefix(got, "i\n\nContext sections:\n\n\nQuestion: \"\"\"\nq\n"))
}

func TestWithKeyword(t *testing.T) {
	tmpl := PromptTemplate{Instruction: "Describe {{keyword}}.", Closing: "About {{keyword}}:"}
	got := tmpl.WithKeyword("tokens")
	assert.Equal(t, "Describe tokens.", got.Instruction)
	assert.Equal(t, "About tokens:", got.Closing)
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "line one line two", SanitizeInput("  line one\nline two\n"))
	assert.Equal(t, "", SanitizeInput("\n\n"))
}

func TestRequestIdentifier(t *testing.T) {
	id := RequestIdentifier("What is kickstartDS?")
	assert.Len(t, id, 7)
	assert.Equal(t, id, RequestIdentifier("What is kickstartDS?"))
	assert.Len(t, RequestIdentifier(""), 7)
}
