// Package validation provides a rule-chain validator for request payloads.
//
// Rules are expressed as pipe-separated strings attached to field names,
// e.g. "required|string|max:255". A Validator takes a record (the decoded
// request body) and an ordered rule set, evaluates each field's chain
// left-to-right, and accumulates per-field errors.
//
// # Usage
//
//	rules := validation.RuleSet{}.
//	    With("name", "required|string|max:255").
//	    With("status", "default:NEW|required|in:NEW,PLANNED,DELETED")
//
//	v := validation.New(record, rules)
//	ok, err := v.Validate()
//	if err != nil {
//	    // configuration error: the rule table itself is broken
//	}
//	if !ok {
//	    // v.Errors() holds field -> []FieldError
//	}
//	record = v.Data() // defaults have been written in
//
// Rule order matters. Chains run strictly in declared order, so a later
// rule observes mutations made by an earlier one ("default" before
// "required") and a trailing "nullable" can suppress errors recorded by
// the rules before it. The record held by the validator may differ after
// Validate returns; callers that need the defaulted record must read it
// back through Data.
//
// Two failure modes are kept distinct: data-level failures accumulate in
// the error map and never interrupt processing, while configuration
// errors (unknown rule name, "default" without a value, malformed rule
// parameter) abort immediately with a non-nil error.
//
// All functions are pure apart from the documented record mutation and
// comply with ADR-002 "Values as Boundaries": no I/O, no shared state.
// A rule set is immutable once built and safe to share across goroutines;
// each validation call must construct its own Validator.
package validation
