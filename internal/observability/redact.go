// Package observability provides logging utilities with sensitive data redaction.
package observability

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

const redacted = "[REDACTED]"

// minSecretLen is the shortest registered secret that is masked verbatim.
// Shorter values would mask unrelated text.
const minSecretLen = 4

// Redactor handles sensitive data masking in logs.
// Resolved secret values can be registered at runtime with AddSecret.
type Redactor struct {
	mu       sync.RWMutex
	patterns []*redactPattern
	secrets  []string
}

type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
	name        string
}

// NewRedactor creates a new redactor with default patterns.
func NewRedactor() *Redactor {
	r := &Redactor{}
	r.addDefaultPatterns()
	return r
}

func (r *Redactor) addDefaultPatterns() {
	// AWS credentials
	r.AddPattern(`\b(AKIA|ASIA)[0-9A-Z]{16}\b`, "[REDACTED_AWS_KEY_ID]", "aws_access_key_id")
	r.AddPattern(`(?i)aws_secret_access_key\s*[=:]\s*[A-Za-z0-9/+=]{40}`, "aws_secret_access_key=[REDACTED]", "aws_secret_access_key")

	// Vault tokens
	r.AddPattern(`\bhv[sbr]\.[A-Za-z0-9_\-]{20,}`, "[REDACTED_VAULT_TOKEN]", "vault_token")

	// Bearer tokens
	r.AddPattern(`Bearer\s+[a-zA-Z0-9\-_\.]+`, "Bearer [REDACTED]", "bearer_token")

	// Authorization headers
	r.AddPattern(`Authorization:\s*[^\s]+`, "Authorization: [REDACTED]", "auth_header")
}

// AddPattern adds a custom redaction pattern. Invalid patterns are ignored.
func (r *Redactor) AddPattern(pattern, replacement, name string) {
	regex, err := regexp.Compile(pattern)
	if err != nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, &redactPattern{
		regex:       regex,
		replacement: replacement,
		name:        name,
	})
}

// AddSecret registers a literal value that must never appear in logs.
func (r *Redactor) AddSecret(value string) {
	if len(value) < minSecretLen {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.secrets {
		if s == value {
			return
		}
	}
	r.secrets = append(r.secrets, value)
	// Longest first so a secret containing another is masked whole.
	sort.Slice(r.secrets, func(i, j int) bool { return len(r.secrets[i]) > len(r.secrets[j]) })
}

// Redact masks registered secrets and applies all redaction patterns.
func (r *Redactor) Redact(input string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := input
	for _, s := range r.secrets {
		result = strings.ReplaceAll(result, s, redacted)
	}
	for _, p := range r.patterns {
		result = p.regex.ReplaceAllString(result, p.replacement)
	}
	return result
}
