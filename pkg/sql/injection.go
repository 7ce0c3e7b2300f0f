package sql

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes a SQL injection pattern found in free text.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if a SQL injection pattern was detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	Input       string // The text that was checked
}

// CheckQuestionForInjection runs libinjection over a natural-language
// question. Questions are never rejected on this basis; a hit is only worth
// auditing because the question is embedded into the generation prompt.
//
// Returns nil if no injection pattern is detected.
//
// Example:
//
//	CheckQuestionForInjection("how many users are there")  // nil
//	CheckQuestionForInjection("1' OR '1'='1")              // IsSQLi == true
func CheckQuestionForInjection(question string) *InjectionCheckResult {
	if question == "" {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(question)
	if !isSQLi {
		return nil
	}

	return &InjectionCheckResult{
		IsSQLi:      true,
		Fingerprint: string(fingerprint),
		Input:       question,
	}
}
