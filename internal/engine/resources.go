package engine

import (
	"time"

	"github.com/berkebzlk/API-SOLUTION/internal/core/validation"
)

// Schema returns all resource definitions for the application.
// This is the single source of truth — migrations, API, store, and
// validation rule tables are all derived from this.
func Schema() []Resource {
	return []Resource{
		StageResource(),
	}
}

// StageResource defines the construction stage entity. Rule chains run in
// the declared order; note the placement of "nullable" after the stricter
// rules it may suppress, and "default" ahead of "required".
func StageResource() Resource {
	return Resource{
		Name:      "stages",
		RefPrefix: "stg_",
		Fields: []Field{
			StringField("name").WithRules("required|string|max:255"),
			StringField("start_date").WithRules("required|dateFormat"),
			StringField("end_date").WithRules("required|dateFormat|after:start_date"),
			IntField("duration").WithRules("skip").WithComputed(stageDuration),
			StringField("duration_unit").WithRules("default:DAYS|in:HOURS,DAYS,WEEKS,MONTHS"),
			StringField("color").WithRules("hexColor|nullable"),
			StringField("external_id").WithRules("string|max:255|nullable"),
			StringField("status").WithRules("default:NEW|required|in:NEW,PLANNED,DELETED"),
		},
	}
}

// stageDuration derives the stage duration from its dates, expressed in
// the stage's duration_unit. Returns nil (leave the stored value alone)
// when either date is missing or unparseable.
func stageDuration(row map[string]interface{}) interface{} {
	start, ok := parseStageDate(row["start_date"])
	if !ok {
		return nil
	}
	end, ok := parseStageDate(row["end_date"])
	if !ok {
		return nil
	}

	hours := int64(end.Sub(start).Hours())
	unit, _ := row["duration_unit"].(string)
	switch unit {
	case "HOURS":
		return hours
	case "WEEKS":
		return hours / (24 * 7)
	case "MONTHS":
		return hours / (24 * 30)
	default: // DAYS
		return hours / 24
	}
}

func parseStageDate(v interface{}) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(validation.TimestampLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
