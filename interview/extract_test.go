package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractStructured(t *testing.T) {
	strict := ExtractStructured(`{"system_instruction": "A", "question_set": "B"}`)
	require.NotNil(t, strict)
	assert.Equal(t, "A", strict["system_instruction"])

	wrapped := ExtractStructured("Here you go:\n```json\n{\"system_instruction\": \"A\"}\n```\nThanks!")
	require.NotNil(t, wrapped)
	assert.Equal(t, "A", wrapped["system_instruction"])

	assert.Nil(t, ExtractStructured("no json here"))
	assert.Nil(t, ExtractStructured("} backwards {"))
	assert.Nil(t, ExtractStructured(`{"broken": }`))
	assert.Nil(t, ExtractStructured(""))
	assert.Nil(t, ExtractStructured("[1, 2]"))
}

func TestInstructionResultFrom(t *testing.T) {
	assert.Equal(t,
		InstructionResult{SystemInstruction: "A", QuestionSet: "B"},
		InstructionResultFrom(`{"system_instruction": "A", "question_set": "B"}`))

	assert.Equal(t,
		InstructionResult{SystemInstruction: "A", QuestionSet: "B"},
		InstructionResultFrom(`noise {"systemInstruction": "A", "questionSet": "B"} noise`))

	assert.Equal(t,
		InstructionResult{SystemInstruction: "just text"},
		InstructionResultFrom("  just text  "))

	assert.Equal(t,
		InstructionResult{SystemInstruction: `{"question_set": "B"}`, QuestionSet: "B"},
		InstructionResultFrom(`{"question_set": "B"}`))
}
