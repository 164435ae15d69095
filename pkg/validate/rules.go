package validate

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/goliatone/go-formflow/pkg/schema"
)

// checkRules evaluates the question's declared rules in declaration order;
// the first failing rule's message wins so results stay deterministic.
func (e *Engine) checkRules(q schema.Question, value any, answers map[string]any) string {
	for _, rule := range q.Rules {
		if msg := e.checkRule(q, rule, value, answers); msg != "" {
			return msg
		}
	}
	return ""
}

func (e *Engine) checkRule(q schema.Question, rule schema.Rule, value any, answers map[string]any) string {
	switch rule.Kind {
	case schema.RuleRequired:
		if isEmpty(value) {
			return orDefault(rule.Message, "This field is required")
		}
	case schema.RuleMinLength:
		if valueLength(value) < int(rule.Value) {
			return orDefault(rule.Message, fmt.Sprintf("Must be at least %d characters", int(rule.Value)))
		}
	case schema.RuleMaxLength:
		if valueLength(value) > int(rule.Value) {
			return orDefault(rule.Message, fmt.Sprintf("Must be at most %d characters", int(rule.Value)))
		}
	case schema.RulePattern:
		rx, err := regexp.Compile(rule.Pattern)
		if err != nil {
			// Schema.Validate rejects this upfront; a stray bad pattern
			// degrades to no-op rather than failing the whole field.
			return ""
		}
		if !rx.MatchString(coerceString(value)) {
			return orDefault(rule.Message, "Invalid format")
		}
	case schema.RuleMin:
		if num, ok := coerceNumber(value); ok && num < rule.Value {
			return orDefault(rule.Message, fmt.Sprintf("Must be at least %v", rule.Value))
		}
	case schema.RuleMax:
		if num, ok := coerceNumber(value); ok && num > rule.Value {
			return orDefault(rule.Message, fmt.Sprintf("Must be at most %v", rule.Value))
		}
	case schema.RuleEmail:
		if !validEmail(coerceString(value)) {
			return orDefault(rule.Message, "Invalid email format")
		}
	case schema.RuleURL:
		if !validURL(coerceString(value)) {
			return orDefault(rule.Message, "Invalid URL format")
		}
	case schema.RuleCustom:
		fn, ok := e.custom[rule.Custom]
		if !ok {
			return ""
		}
		if msg := fn(value, answers); msg != "" {
			return orDefault(rule.Message, msg)
		}
	}
	return ""
}

// messageFor returns the declared override for a rule kind, falling back to
// the engine default.
func messageFor(q schema.Question, kind, fallback string) string {
	for _, rule := range q.Rules {
		if rule.Kind == kind && rule.Message != "" {
			return rule.Message
		}
	}
	return fallback
}

func orDefault(message, fallback string) string {
	if message != "" {
		return message
	}
	return fallback
}

func valueLength(value any) int {
	switch v := value.(type) {
	case string:
		return utf8.RuneCountInString(v)
	case []any:
		return len(v)
	case []string:
		return len(v)
	default:
		return utf8.RuneCountInString(coerceString(value))
	}
}

func validEmail(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.ContainsAny(trimmed, " \t") {
		return false
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return false
	}
	// mail.ParseAddress accepts local-only addresses; require a dotted host.
	at := strings.LastIndex(addr.Address, "@")
	return at > 0 && strings.Contains(addr.Address[at+1:], ".")
}

func validURL(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return false
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

func coerceNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func coerceString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(value)
	}
}
