// Package classify maps a raw failure message to a retryability verdict.
//
// Classification is a fixed, ordered two-list evaluation: a deny-list of
// non-retryable signatures is checked first and wins over any allow-list
// match; the allow-list of retryable signatures is checked second; a message
// matching neither list defaults to retryable, bounded in practice by the
// settings retry budget.
package classify

import "strings"

// Verdict is the classification of one failure.
type Verdict struct {
	// Retryable reports whether the failure is eligible for automatic retry.
	Retryable bool
	// Rule names the matched signature group, or "default" when no list matched.
	Rule string
}

// DefaultRule is the rule name reported when neither list matches.
const DefaultRule = "default"

// rule is one named signature group. Patterns are lowercase substrings.
type rule struct {
	name     string
	patterns []string
}

// denyRules are non-retryable signatures. Strict priority over allowRules.
var denyRules = []rule{
	{name: "permission", patterns: []string{
		"permission denied",
		"not authorized",
		"unauthorized",
		"forbidden",
		"access denied",
		"invalid api key",
		"authentication failed",
	}},
	{name: "bad_argument", patterns: []string{
		"invalid argument",
		"malformed",
		"bad request",
		"validation failed",
		"unprocessable",
	}},
	{name: "http_4xx", patterns: []string{
		"status 400",
		"status 401",
		"status 403",
		"http 400",
		"http 401",
		"http 403",
	}},
	{name: "no_publishers", patterns: []string{
		"no active publishers",
	}},
	{name: "nil_reference", patterns: []string{
		"nil pointer",
		"null reference",
	}},
}

// allowRules are retryable signatures.
var allowRules = []rule{
	{name: "rate_limit", patterns: []string{
		"rate limit",
		"too many requests",
		"quota exceeded",
		"status 429",
		"http 429",
	}},
	{name: "timeout", patterns: []string{
		"timeout",
		"timed out",
		"deadline exceeded",
	}},
	{name: "network", patterns: []string{
		"connection refused",
		"connection reset",
		"no such host",
		"network is unreachable",
		"broken pipe",
	}},
	{name: "http_5xx", patterns: []string{
		"status 500",
		"status 502",
		"status 503",
		"status 504",
		"internal server error",
		"bad gateway",
		"service unavailable",
		"gateway timeout",
	}},
	{name: "upstream", patterns: []string{
		"elasticsearch",
		"anthropic",
		"redis",
		"postgres",
	}},
	{name: "temporary", patterns: []string{
		"temporar",
		"server error",
		"try again",
	}},
}

// Failure classifies a raw failure message. Pure function: same message, same
// verdict.
func Failure(message string) Verdict {
	msg := strings.ToLower(message)

	for _, r := range denyRules {
		for _, p := range r.patterns {
			if strings.Contains(msg, p) {
				return Verdict{Retryable: false, Rule: r.name}
			}
		}
	}

	for _, r := range allowRules {
		for _, p := range r.patterns {
			if strings.Contains(msg, p) {
				return Verdict{Retryable: true, Rule: r.name}
			}
		}
	}

	return Verdict{Retryable: true, Rule: DefaultRule}
}

// Error classifies an error's message. A nil error is not retryable.
func Error(err error) Verdict {
	if err == nil {
		return Verdict{Retryable: false, Rule: DefaultRule}
	}
	return Failure(err.Error())
}
