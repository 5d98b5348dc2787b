package interview

import (
	"fmt"
	"strings"
)

type CorrectionRule struct {
	Heard     []string
	Canonical string
	Note      string
}

type CorrectionCategory struct {
	Name  string
	Rules []CorrectionRule
}

// CorrectionDictionary maps common speech-to-text mishearings of payments
// vocabulary to their canonical spelling.
var CorrectionDictionary = []CorrectionCategory{
	{
		Name: "ISO 20022 & SWIFT",
		Rules: []CorrectionRule{
			{Heard: []string{"iso 20 0 22", "iso twenty oh two two", "iso twenty oh twenty two"}, Canonical: "ISO 20022"},
			{Heard: []string{"packs", "pax", "tax"}, Canonical: "pacs", Note: "when followed by numbers, e.g. pacs.008, pacs.002"},
			{Heard: []string{"pain", "pane"}, Canonical: "pain", Note: "when followed by numbers, e.g. pain.001"},
			{Heard: []string{"camt", "camp", "cam tea"}, Canonical: "camt", Note: "when followed by numbers, e.g. camt.053"},
			{Heard: []string{"swift mx", "mx", "em ex", "am axe"}, Canonical: "SWIFT MX"},
			{Heard: []string{"swift mt", "mt", "am tee", "am tea"}, Canonical: "SWIFT MT"},
			{Heard: []string{"gpi", "g p i"}, Canonical: "gpi"},
		},
	},
	{
		Name: "PAYMENT SCHEMES",
		Rules: []CorrectionRule{
			{Heard: []string{"chaps", "chops"}, Canonical: "CHAPS"},
			{Heard: []string{"sepa", "sepper"}, Canonical: "SEPA"},
			{Heard: []string{"bacs", "backs"}, Canonical: "BACS"},
			{Heard: []string{"fed now"}, Canonical: "FedNow"},
			{Heard: []string{"target two", "target 2"}, Canonical: "TARGET2"},
			{Heard: []string{"cbpr plus", "cbpr+"}, Canonical: "CBPR+"},
		},
	},
	{
		Name: "ARCHITECTURE & CLOUD",
		Rules: []CorrectionRule{
			{Heard: []string{"cafka", "cafca", "coffee"}, Canonical: "Kafka"},
			{Heard: []string{"sequel"}, Canonical: "SQL"},
			{Heard: []string{"no sequel"}, Canonical: "NoSQL"},
			{Heard: []string{"api"}, Canonical: "API"},
			{Heard: []string{"aws"}, Canonical: "AWS"},
			{Heard: []string{"azure"}, Canonical: "Azure"},
			{Heard: []string{"micro services"}, Canonical: "Microservices"},
			{Heard: []string{"idempotency", "idem potency"}, Canonical: "Idempotency"},
			{Heard: []string{"latency"}, Canonical: "Latency"},
			{Heard: []string{"throughput"}, Canonical: "Throughput"},
		},
	},
	{
		Name: "RISK & COMPLIANCE",
		Rules: []CorrectionRule{
			{Heard: []string{"kyc"}, Canonical: "KYC"},
			{Heard: []string{"aml"}, Canonical: "AML"},
			{Heard: []string{"ofac"}, Canonical: "OFAC"},
			{Heard: []string{"pep", "peps"}, Canonical: "PEP"},
			{Heard: []string{"sanctions"}, Canonical: "Sanctions"},
			{Heard: []string{"sars"}, Canonical: "SARs"},
			{Heard: []string{"stp"}, Canonical: "STP", Note: "Straight Through Processing"},
		},
	},
}

func renderDictionary(categories []CorrectionCategory) string {
	var b strings.Builder
	for i, c := range categories {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[%s]\n", c.Name)
		for _, r := range c.Rules {
			quoted := make([]string, len(r.Heard))
			for j, h := range r.Heard {
				quoted[j] = fmt.Sprintf("%q", h)
			}
			fmt.Fprintf(&b, "- %s -> %q", strings.Join(quoted, " / "), r.Canonical)
			if r.Note != "" {
				fmt.Fprintf(&b, " (%s)", r.Note)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func BuildCorrectionPrompt(raw string) string {
	return fmt.Sprintf(`You are an Expert Technical Transcriber for a Payments Solutions Architect.
Your goal is to correct a speech-to-text transcript to be 100%% technically accurate for a VP-level interview.

RULES:
1. FIX capitalization for acronyms (e.g., api -> API, sql -> SQL).
2. CORRECT phonetic errors using the dictionary below.
3. DO NOT change the speaker's tone, grammar (unless broken), or intent.
4. OUTPUT ONLY the corrected text. No explanations.

DOMAIN DICTIONARY (Apply these mappings aggressively):

%s
RAW TRANSCRIPT:
%q
`, renderDictionary(CorrectionDictionary), raw)
}
