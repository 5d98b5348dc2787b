package interview

import (
	"fmt"
	"strings"
)

const sectionSeparator = "\n\n"

// ComposeInstruction renders the system instruction for one turn. Sections
// are always ordered persona, question set, mode directive so the directive
// can narrow the persona for the current turn.
func ComposeInstruction(b InstructionBundle) string {
	persona := strings.TrimSpace(b.BasePersona)
	if persona == "" {
		persona = DefaultPersona
	}

	sections := []string{persona}
	if qs := strings.TrimSpace(b.QuestionSet); qs != "" {
		sections = append(sections, "QUESTION SET:\n"+qs)
	}
	if d := strings.TrimSpace(b.ModeDirective); d != "" {
		sections = append(sections, d)
	}
	return strings.Join(sections, sectionSeparator)
}

func BuildInstructionPrompt(c InstructionCard) string {
	return fmt.Sprintf(`You are an expert interview coach and prompt engineer. Build a system instruction for an AI interview agent.

Inputs:
- Card Name: %s
- Description: %s
- Company Name: %s
- Company Summary: %s
- Candidate CV: %s
- Job Description: %s
- Context: %s

Goals:
1) Create a SYSTEM INSTRUCTION that makes the AI act as a high-quality interviewer for both technical and behavioral questions.
2) Include guidance for asking one question at a time, giving feedback, and keeping a professional tone.
3) Ensure the persona is aligned with the company, role, and candidate profile.
4) Output a QUESTION SET with two sections: TECHNICAL QUESTIONS and BEHAVIORAL QUESTIONS.

Return ONLY valid JSON with this exact shape and nothing else:
{
  "system_instruction": "...",
  "question_set": "..."
}
`, c.Name, c.Description, c.CompanyName, c.CompanySummary, c.CVText, c.JobDescription, c.ContextText)
}

func BuildRefinePrompt(instruction string) string {
	return fmt.Sprintf(`You are an expert prompt editor. Improve and tighten the following system instruction while preserving intent and tone.
- Remove redundancies
- Keep professional and structured language
- Output ONLY valid JSON with this exact shape and nothing else:
{
  "system_instruction": "..."
}

SYSTEM INSTRUCTION:
%s
`, instruction)
}
