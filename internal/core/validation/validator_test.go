package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stageRules mirrors the rule table used by the stages resource.
func stageRules() RuleSet {
	return RuleSet{}.
		With("name", "required|string|max:255").
		With("start_date", "required|dateFormat").
		With("end_date", "required|dateFormat|after:start_date").
		With("duration", "skip").
		With("duration_unit", "default:DAYS|in:HOURS,DAYS,WEEKS,MONTHS").
		With("color", "hexColor|nullable").
		With("external_id", "string|max:255|nullable").
		With("status", "default:NEW|required|in:NEW,PLANNED,DELETED")
}

func validStage() Record {
	return Record{
		"name":       "Foundation",
		"start_date": "2024-01-01T00:00:00Z",
		"end_date":   "2024-02-01T00:00:00Z",
		"color":      "#ff8800",
		"status":     "PLANNED",
	}
}

// =============================================================================
// Whole-record validation
// =============================================================================

func TestValidate_ValidRecord(t *testing.T) {
	v := New(validStage(), stageRules())

	ok, err := v.Validate()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, v.Errors())
}

func TestValidate_MissingRequiredField(t *testing.T) {
	data := validStage()
	delete(data, "name")

	v := New(data, stageRules())
	ok, err := v.Validate()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NotEmpty(t, v.Errors()["name"])
	assert.Equal(t, "required", v.Errors()["name"][0].Code)
}

func TestValidate_RequiredTreatsFalsyAsMissing(t *testing.T) {
	// Loose emptiness: zero, empty string, null, and false all count as
	// missing for required.
	for name, value := range map[string]any{
		"zero":         float64(0),
		"empty string": "",
		"null":         nil,
		"false":        false,
	} {
		t.Run(name, func(t *testing.T) {
			data := validStage()
			data["name"] = value

			v := New(data, stageRules())
			ok, err := v.Validate()
			require.NoError(t, err)
			assert.False(t, ok)
			assert.NotEmpty(t, v.Errors()["name"])
		})
	}
}

func TestValidate_NullableSuppressesEarlierErrors(t *testing.T) {
	rules := RuleSet{}.With("finished_at", "dateFormat|nullable")
	v := New(Record{"finished_at": ""}, rules)

	ok, err := v.Validate()
	require.NoError(t, err)
	assert.True(t, ok, "dateFormat alone would fail, nullable must clear it")
	assert.NotContains(t, v.Errors(), "finished_at")
}

func TestValidate_DefaultInjectsValue(t *testing.T) {
	rules := RuleSet{}.With("status", "default:NEW|required|in:NEW,PLANNED,DELETED")
	v := New(Record{}, rules)

	ok, err := v.Validate()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "NEW", v.Data()["status"])
	assert.Empty(t, v.Errors())
}

func TestValidate_DefaultDoesNotOverwrite(t *testing.T) {
	rules := RuleSet{}.With("status", "default:NEW|required|in:NEW,PLANNED,DELETED")
	v := New(Record{"status": "PLANNED"}, rules)

	ok, err := v.Validate()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "PLANNED", v.Data()["status"])
}

func TestValidate_InputRecordUntouched(t *testing.T) {
	rules := RuleSet{}.With("status", "default:NEW")
	data := Record{}

	v := New(data, rules)
	_, err := v.Validate()
	require.NoError(t, err)

	assert.Equal(t, "NEW", v.Data()["status"])
	assert.NotContains(t, data, "status", "defaults must land in the copy, not the input")
}

// =============================================================================
// Configuration errors
// =============================================================================

func TestValidate_UnknownRuleFailsHard(t *testing.T) {
	rules := RuleSet{}.With("name", "required|bogus")
	v := New(Record{"name": "x"}, rules)

	ok, err := v.Validate()
	require.ErrorIs(t, err, ErrUnknownRule)
	assert.False(t, ok)
}

func TestValidate_DefaultWithoutValueFailsHard(t *testing.T) {
	rules := RuleSet{}.With("status", "default")
	v := New(Record{}, rules)

	_, err := v.Validate()
	require.ErrorIs(t, err, ErrMissingDefault)
}

func TestValidate_DefaultWithoutValueOnFilledFieldPasses(t *testing.T) {
	// The missing fallback only matters when it would actually be applied.
	rules := RuleSet{}.With("status", "default")
	v := New(Record{"status": "PLANNED"}, rules)

	ok, err := v.Validate()
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestValidate_MalformedMaxParamFailsHard(t *testing.T) {
	rules := RuleSet{}.With("name", "max:abc")
	v := New(Record{"name": "x"}, rules)

	_, err := v.Validate()
	require.ErrorIs(t, err, ErrBadParam)
}

// =============================================================================
// Rule ordering
// =============================================================================

func TestValidate_RuleOrderMatters(t *testing.T) {
	data := Record{"color": ""}

	// nullable runs first, before required records anything: the
	// required error stands.
	v := New(data, RuleSet{}.With("color", "nullable|required"))
	ok, err := v.Validate()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NotEmpty(t, v.Errors()["color"])

	// required runs first, then nullable clears it.
	v = New(data, RuleSet{}.With("color", "required|nullable"))
	ok, err = v.Validate()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, v.Errors())
}

func TestValidate_DefaultBeforeRequiredSatisfiesIt(t *testing.T) {
	v := New(Record{}, RuleSet{}.With("status", "default:NEW|required"))
	ok, err := v.Validate()
	require.NoError(t, err)
	assert.True(t, ok)

	// Reversed, required fires before the default lands.
	v = New(Record{}, RuleSet{}.With("status", "required|default:NEW"))
	ok, err = v.Validate()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NotEmpty(t, v.Errors()["status"])
}

// =============================================================================
// Error map rendering
// =============================================================================

func TestErrorMap_String(t *testing.T) {
	data := validStage()
	delete(data, "name")
	data["status"] = "ARCHIVED"

	v := New(data, stageRules())
	ok, err := v.Validate()
	require.NoError(t, err)
	require.False(t, ok)

	rendered := v.Errors().String()
	assert.Contains(t, rendered, "name: name is required")
	assert.Contains(t, rendered, "status: status must be one of: NEW, PLANNED, DELETED")
}

func TestErrorMap_Messages(t *testing.T) {
	m := make(ErrorMap)
	m.Add("name", "name is required", "required")
	m.Add("name", "name must be a string", "string")

	msgs := m.Messages()
	assert.Equal(t, []string{"name is required", "name must be a string"}, msgs["name"])
}
