package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// TimestampLayout is the only timestamp form accepted by the dateFormat
// and after rules. The trailing Z is a literal: offsets are rejected.
const TimestampLayout = "2006-01-02T15:04:05Z"

// Rule is a single rule descriptor: a name identifying the handler plus
// optional string parameters ("max:255" -> name "max", params ["255"]).
type Rule struct {
	Name   string
	Params []string
}

// FieldRules attaches an ordered rule chain to one field.
type FieldRules struct {
	Field string
	Chain []Rule
}

// RuleSet is an ordered rule table. Fields are validated in the order
// they appear here, and each chain runs left-to-right as declared.
type RuleSet []FieldRules

// With appends a field's rule chain, parsed from a pipe-separated spec.
func (rs RuleSet) With(field, spec string) RuleSet {
	return append(rs, FieldRules{Field: field, Chain: ParseChain(spec)})
}

// ParseChain parses a pipe-separated rule spec such as
// "required|string|max:255" into rule descriptors. Everything after the
// first colon is a single parameter; rules that take lists ("in") split
// it themselves.
func ParseChain(spec string) []Rule {
	parts := strings.Split(spec, "|")
	chain := make([]Rule, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, param, found := strings.Cut(part, ":")
		r := Rule{Name: name}
		if found {
			r.Params = []string{param}
		}
		chain = append(chain, r)
	}
	return chain
}

// =============================================================================
// Outcomes
// =============================================================================

// OutcomeKind classifies what a rule handler decided.
type OutcomeKind int

const (
	// OutcomePass records nothing.
	OutcomePass OutcomeKind = iota
	// OutcomeFail appends an error for the field.
	OutcomeFail
	// OutcomeClearField drops all errors previously recorded for the
	// field. This is how "nullable" suppresses earlier rules.
	OutcomeClearField
)

// Outcome is a rule handler's verdict. Handlers never touch the error
// map directly; the validator applies the outcome.
type Outcome struct {
	Kind    OutcomeKind
	Message string
	Code    string
}

// Pass returns a passing outcome.
func Pass() Outcome { return Outcome{Kind: OutcomePass} }

// Fail returns a failing outcome with the given message and error code.
func Fail(message, code string) Outcome {
	return Outcome{Kind: OutcomeFail, Message: message, Code: code}
}

// ClearField returns an outcome that suppresses the field's errors.
func ClearField() Outcome { return Outcome{Kind: OutcomeClearField} }

// =============================================================================
// Handler registry
// =============================================================================

// HandlerFunc evaluates one rule against the record. The returned error is
// reserved for configuration problems and aborts validation; data-level
// failures are reported through the Outcome.
type HandlerFunc func(field string, params []string, data Record) (Outcome, error)

// handlers is the rule registry, keyed by the name used in rule specs.
var handlers = map[string]HandlerFunc{
	"required":   ruleRequired,
	"string":     ruleString,
	"max":        ruleMax,
	"in":         ruleIn,
	"dateFormat": ruleDateFormat,
	"after":      ruleAfter,
	"hexColor":   ruleHexColor,
	"default":    ruleDefault,
	"nullable":   ruleNullable,
	"skip":       ruleSkip,
}

// Register adds a custom rule handler. Call before any Validator is built;
// the registry is not synchronized.
func Register(name string, fn HandlerFunc) {
	handlers[name] = fn
}

// =============================================================================
// Built-in rules
// =============================================================================

// isEmpty is the loose emptiness check used by required and default:
// nil, empty string, false, and numeric zero all count as empty.
func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case bool:
		return !val
	case float64:
		return val == 0
	case int:
		return val == 0
	case int64:
		return val == 0
	}
	return false
}

func ruleRequired(field string, _ []string, data Record) (Outcome, error) {
	v, ok := data[field]
	if !ok || isEmpty(v) {
		return Fail(field+" is required", "required"), nil
	}
	return Pass(), nil
}

func ruleString(field string, _ []string, data Record) (Outcome, error) {
	v, ok := data[field]
	if !ok {
		return Pass(), nil
	}
	if _, isStr := v.(string); !isStr {
		return Fail(field+" must be a string", "string"), nil
	}
	return Pass(), nil
}

func ruleMax(field string, params []string, data Record) (Outcome, error) {
	if len(params) == 0 {
		return Outcome{}, fmt.Errorf("%w: max requires a length on field %s", ErrBadParam, field)
	}
	n, err := strconv.Atoi(params[0])
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: max:%s on field %s", ErrBadParam, params[0], field)
	}

	v, ok := data[field]
	if !ok || v == nil {
		return Pass(), nil
	}
	s, isStr := v.(string)
	if !isStr {
		s = fmt.Sprint(v)
	}
	if utf8.RuneCountInString(s) > n {
		return Fail(fmt.Sprintf("%s must be at most %d characters", field, n), "max"), nil
	}
	return Pass(), nil
}

func ruleIn(field string, params []string, data Record) (Outcome, error) {
	if len(params) == 0 || params[0] == "" {
		return Outcome{}, fmt.Errorf("%w: in requires allowed values on field %s", ErrBadParam, field)
	}

	v, ok := data[field]
	if !ok || v == nil {
		return Pass(), nil
	}

	allowed := strings.Split(params[0], ",")
	s, isStr := v.(string)
	if !isStr {
		s = fmt.Sprint(v)
	}
	for _, a := range allowed {
		if s == a {
			return Pass(), nil
		}
	}
	return Fail(fmt.Sprintf("%s must be one of: %s", field, strings.Join(allowed, ", ")), "in"), nil
}

func ruleDateFormat(field string, _ []string, data Record) (Outcome, error) {
	fail := Fail(field+" must be a timestamp in YYYY-MM-DDTHH:MM:SSZ format", "date_format")

	s, isStr := data[field].(string)
	if !isStr {
		return fail, nil
	}
	t, err := time.Parse(TimestampLayout, s)
	if err != nil || t.Format(TimestampLayout) != s {
		return fail, nil
	}
	return Pass(), nil
}

// ruleAfter compares the field against another timestamp field in the same
// record, requiring strict inequality. When either side is absent or does
// not parse, the comparison cannot be determined and no error is recorded;
// the other field's own chain reports the underlying problem.
func ruleAfter(field string, params []string, data Record) (Outcome, error) {
	if len(params) == 0 || params[0] == "" {
		return Outcome{}, fmt.Errorf("%w: after requires a field name on field %s", ErrBadParam, field)
	}
	other := params[0]

	s, _ := data[field].(string)
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return Pass(), nil
	}

	os, _ := data[other].(string)
	ot, err := time.Parse(TimestampLayout, os)
	if err != nil {
		return Pass(), nil
	}

	if !t.After(ot) {
		return Fail(fmt.Sprintf("%s must be after %s", field, other), "after"), nil
	}
	return Pass(), nil
}

var hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

func ruleHexColor(field string, _ []string, data Record) (Outcome, error) {
	v, ok := data[field]
	if !ok {
		return Pass(), nil
	}
	s, isStr := v.(string)
	if !isStr || !hexColorPattern.MatchString(s) {
		return Fail(field+" must be a hex color like #fff or #ffffff", "hex_color"), nil
	}
	return Pass(), nil
}

// ruleDefault writes the fallback value into the record when the field is
// absent or empty. A default rule declared without a value is a rule-table
// mistake and fails hard.
func ruleDefault(field string, params []string, data Record) (Outcome, error) {
	if v, ok := data[field]; ok && !isEmpty(v) {
		return Pass(), nil
	}
	if len(params) == 0 || params[0] == "" {
		return Outcome{}, fmt.Errorf("%w: field %s", ErrMissingDefault, field)
	}
	data[field] = params[0]
	return Pass(), nil
}

// ruleNullable suppresses all errors recorded so far for the field when
// its value is present but null or the exact empty string. Note this is a
// narrower predicate than required's emptiness check: an absent field, a
// false, or a zero does not trigger suppression.
func ruleNullable(field string, _ []string, data Record) (Outcome, error) {
	v, ok := data[field]
	if !ok {
		return Pass(), nil
	}
	if v == nil || v == "" {
		return ClearField(), nil
	}
	return Pass(), nil
}

func ruleSkip(_ string, _ []string, _ Record) (Outcome, error) {
	return Pass(), nil
}
