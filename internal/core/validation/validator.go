package validation

import "fmt"

// Record is a field -> value mapping as decoded from a JSON request body.
// Values are string, float64, bool, or nil.
type Record map[string]any

// Validator evaluates one record against a rule set. Build one per
// validation call; instances are not reusable.
type Validator struct {
	data   Record
	rules  RuleSet
	errors ErrorMap
}

// New creates a validator over a copy of the record, so rule mutations
// (defaults) never touch the caller's map.
func New(data Record, rules RuleSet) *Validator {
	copied := make(Record, len(data))
	for k, v := range data {
		copied[k] = v
	}
	return &Validator{
		data:   copied,
		rules:  rules,
		errors: make(ErrorMap),
	}
}

// Validate runs every field's rule chain in declared order and reports
// whether the record passed. Data-level failures accumulate in the error
// map and never stop processing; a non-nil error means the rule table
// itself is broken (unknown rule, missing default value, bad parameter)
// and validation was aborted.
func (v *Validator) Validate() (bool, error) {
	for _, fr := range v.rules {
		for _, rule := range fr.Chain {
			handler, ok := handlers[rule.Name]
			if !ok {
				return false, fmt.Errorf("%w: %q on field %s", ErrUnknownRule, rule.Name, fr.Field)
			}

			out, err := handler(fr.Field, rule.Params, v.data)
			if err != nil {
				return false, err
			}
			switch out.Kind {
			case OutcomeFail:
				v.errors.Add(fr.Field, out.Message, out.Code)
			case OutcomeClearField:
				v.errors.Clear(fr.Field)
			}
		}
	}
	return !v.errors.HasErrors(), nil
}

// Errors returns the accumulated error map.
func (v *Validator) Errors() ErrorMap {
	return v.errors
}

// Data returns the validator's record, including any defaults written in
// during Validate. Callers persisting the record must read it from here
// rather than reuse their input.
func (v *Validator) Data() Record {
	return v.data
}
