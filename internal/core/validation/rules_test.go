package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runRule evaluates a single-rule chain against a record and returns the
// pass/fail result plus the recorded errors for the field.
func runRule(t *testing.T, field, spec string, data Record) (bool, []FieldError) {
	t.Helper()
	v := New(data, RuleSet{}.With(field, spec))
	ok, err := v.Validate()
	require.NoError(t, err)
	return ok, v.Errors()[field]
}

func TestRuleString(t *testing.T) {
	ok, _ := runRule(t, "name", "string", Record{"name": "Foundation"})
	assert.True(t, ok)

	ok, errs := runRule(t, "name", "string", Record{"name": float64(12)})
	assert.False(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "string", errs[0].Code)

	// Absent field is not a type error.
	ok, _ = runRule(t, "name", "string", Record{})
	assert.True(t, ok)
}

func TestRuleMax(t *testing.T) {
	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}

	ok, errs := runRule(t, "name", "max:255", Record{"name": string(long)})
	assert.False(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "name must be at most 255 characters", errs[0].Message)

	ok, _ = runRule(t, "name", "max:255", Record{"name": string(long[:255])})
	assert.True(t, ok, "exactly 255 characters is allowed")
}

func TestRuleIn(t *testing.T) {
	ok, errs := runRule(t, "status", "in:NEW,PLANNED,DELETED", Record{"status": "ARCHIVED"})
	assert.False(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "status must be one of: NEW, PLANNED, DELETED", errs[0].Message)

	for _, allowed := range []string{"NEW", "PLANNED", "DELETED"} {
		ok, _ := runRule(t, "status", "in:NEW,PLANNED,DELETED", Record{"status": allowed})
		assert.True(t, ok, allowed)
	}

	// Absent field passes; required is a separate concern.
	ok, _ = runRule(t, "status", "in:NEW,PLANNED,DELETED", Record{})
	assert.True(t, ok)
}

func TestRuleDateFormat(t *testing.T) {
	valid := []string{
		"2024-01-01T00:00:00Z",
		"2024-12-31T23:59:59Z",
	}
	for _, s := range valid {
		ok, _ := runRule(t, "start_date", "dateFormat", Record{"start_date": s})
		assert.True(t, ok, s)
	}

	invalid := []string{
		"2024-13-40T00:00:00Z",      // month and day out of range
		"2024-01-01 00:00:00",       // wrong separator, no zone
		"2024-01-01T00:00:00+00:00", // offset instead of literal Z
		"2024-01-01",                // date only
		"",
	}
	for _, s := range invalid {
		ok, errs := runRule(t, "start_date", "dateFormat", Record{"start_date": s})
		assert.False(t, ok, s)
		require.NotEmpty(t, errs, s)
		assert.Equal(t, "date_format", errs[0].Code)
	}

	// Non-string values never parse.
	ok, _ := runRule(t, "start_date", "dateFormat", Record{"start_date": float64(20240101)})
	assert.False(t, ok)
}

func TestRuleAfter(t *testing.T) {
	base := Record{
		"start_date": "2024-01-01T00:00:00Z",
		"end_date":   "2024-01-02T00:00:00Z",
	}
	ok, _ := runRule(t, "end_date", "after:start_date", base)
	assert.True(t, ok)

	// Equal timestamps are not strictly after.
	equal := Record{
		"start_date": "2024-01-01T00:00:00Z",
		"end_date":   "2024-01-01T00:00:00Z",
	}
	ok, errs := runRule(t, "end_date", "after:start_date", equal)
	assert.False(t, ok)
	require.Len(t, errs, 1)
	assert.Equal(t, "end_date must be after start_date", errs[0].Message)

	earlier := Record{
		"start_date": "2024-02-01T00:00:00Z",
		"end_date":   "2024-01-01T00:00:00Z",
	}
	ok, _ = runRule(t, "end_date", "after:start_date", earlier)
	assert.False(t, ok)

	// Missing or unparseable comparand: the comparison cannot be
	// determined, so no error is recorded here.
	ok, _ = runRule(t, "end_date", "after:start_date", Record{"end_date": "2024-01-02T00:00:00Z"})
	assert.True(t, ok)
	ok, _ = runRule(t, "end_date", "after:start_date", Record{
		"start_date": "not a date",
		"end_date":   "2024-01-02T00:00:00Z",
	})
	assert.True(t, ok)
}

func TestRuleHexColor(t *testing.T) {
	for _, s := range []string{"#fff", "#ffffff", "#A1b2C3", "#09f"} {
		ok, _ := runRule(t, "color", "hexColor", Record{"color": s})
		assert.True(t, ok, s)
	}
	for _, s := range []string{"fff", "#ffffg", "#ffff", "#", "ffffff", ""} {
		ok, errs := runRule(t, "color", "hexColor", Record{"color": s})
		assert.False(t, ok, s)
		require.NotEmpty(t, errs, s)
		assert.Equal(t, "hex_color", errs[0].Code)
	}

	// Absent field passes.
	ok, _ := runRule(t, "color", "hexColor", Record{})
	assert.True(t, ok)
}

func TestRuleNullable_NarrowPredicate(t *testing.T) {
	// nullable clears only for present nil or the exact empty string,
	// not for the wider falsy set required uses.
	chain := "required|nullable"

	ok, _ := runRule(t, "color", chain, Record{"color": nil})
	assert.True(t, ok)
	ok, _ = runRule(t, "color", chain, Record{"color": ""})
	assert.True(t, ok)

	ok, _ = runRule(t, "color", chain, Record{"color": false})
	assert.False(t, ok, "false is falsy for required but not null for nullable")
	ok, _ = runRule(t, "color", chain, Record{"color": float64(0)})
	assert.False(t, ok, "zero is falsy for required but not null for nullable")

	// An absent field is not a null value either.
	ok, _ = runRule(t, "color", chain, Record{})
	assert.False(t, ok)
}

func TestRuleSkip(t *testing.T) {
	ok, errs := runRule(t, "duration", "skip", Record{"duration": "anything at all"})
	assert.True(t, ok)
	assert.Empty(t, errs)
}

func TestParseChain(t *testing.T) {
	chain := ParseChain("required|max:255|in:A,B,C")
	require.Len(t, chain, 3)
	assert.Equal(t, Rule{Name: "required"}, chain[0])
	assert.Equal(t, Rule{Name: "max", Params: []string{"255"}}, chain[1])
	assert.Equal(t, Rule{Name: "in", Params: []string{"A,B,C"}}, chain[2])
}

func TestRegister_CustomRule(t *testing.T) {
	Register("uppercase", func(field string, _ []string, data Record) (Outcome, error) {
		s, _ := data[field].(string)
		for _, r := range s {
			if r >= 'a' && r <= 'z' {
				return Fail(field+" must be uppercase", "uppercase"), nil
			}
		}
		return Pass(), nil
	})

	ok, _ := runRule(t, "code", "uppercase", Record{"code": "ABC"})
	assert.True(t, ok)
	ok, _ = runRule(t, "code", "uppercase", Record{"code": "abc"})
	assert.False(t, ok)
}
