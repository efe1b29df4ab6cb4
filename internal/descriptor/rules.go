package descriptor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Rule names accepted in descriptor rule expressions.
const (
	ruleRequired = "required"
	ruleString   = "string"
	ruleInteger  = "integer"
	ruleNumeric  = "numeric"
	ruleBoolean  = "boolean"
	ruleDate     = "date"
	ruleMax      = "max"
	ruleMin      = "min"
	ruleIn       = "in"
	ruleRegex    = "regex"
)

const dateLayout = "2006-01-02"

// rule is a single parsed constraint.
type rule struct {
	name    string
	param   string
	options []string       // for "in"
	pattern *regexp.Regexp // for "regex"
	limit   decimal.Decimal
}

// RuleSet is an ordered list of constraints for one field, parsed from an
// expression such as "required|string|max:64" or "integer|min:0|max:10".
type RuleSet struct {
	rules    []rule
	required bool
}

// ParseRuleSet parses a rule expression. Unknown rule names fail, so a bad
// descriptor is rejected at registration time, not at request time.
func ParseRuleSet(expr string) (RuleSet, error) {
	var rs RuleSet
	if strings.TrimSpace(expr) == "" {
		return rs, nil
	}

	for _, part := range strings.Split(expr, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, param, _ := strings.Cut(part, ":")
		r := rule{name: name, param: param}

		switch name {
		case ruleRequired:
			rs.required = true
			continue
		case ruleString, ruleInteger, ruleNumeric, ruleBoolean, ruleDate:
			// type rules have no parameter
		case ruleMax, ruleMin:
			limit, err := decimal.NewFromString(param)
			if err != nil {
				return rs, fmt.Errorf("rule %q: invalid limit %q", name, param)
			}
			r.limit = limit
		case ruleIn:
			if param == "" {
				return rs, fmt.Errorf("rule %q: empty option list", name)
			}
			r.options = strings.Split(param, ",")
		case ruleRegex:
			pattern, err := regexp.Compile(param)
			if err != nil {
				return rs, fmt.Errorf("rule %q: %w", name, err)
			}
			r.pattern = pattern
		default:
			return rs, fmt.Errorf("unknown rule %q", name)
		}

		rs.rules = append(rs.rules, r)
	}

	return rs, nil
}

// Required reports whether the field must be present and non-empty.
func (rs RuleSet) Required() bool {
	return rs.required
}

// FieldType derives the form-metadata type from the type rules
// ("string" when none is declared).
func (rs RuleSet) FieldType() string {
	for _, r := range rs.rules {
		switch r.name {
		case ruleInteger, ruleNumeric, ruleBoolean, ruleDate:
			return r.name
		}
	}
	return ruleString
}

// Options returns the allowed values of an "in" rule, or nil.
func (rs RuleSet) Options() []string {
	for _, r := range rs.rules {
		if r.name == ruleIn {
			return r.options
		}
	}
	return nil
}

// Validate checks a single value against the rule set. It returns the
// coerced value and an empty message when valid, or the original value and a
// human-readable message otherwise. present distinguishes an absent key from
// an explicit null.
func (rs RuleSet) Validate(value any, present bool) (any, string) {
	if !present || isEmpty(value) {
		if rs.required {
			return value, "is required"
		}
		return value, ""
	}

	for _, r := range rs.rules {
		var msg string
		value, msg = r.apply(value)
		if msg != "" {
			return value, msg
		}
	}

	// Numeric values are carried as decimals between rules; storage and
	// responses get the canonical string form.
	if d, ok := value.(decimal.Decimal); ok {
		return d.String(), ""
	}
	return value, ""
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func (r rule) apply(value any) (any, string) {
	switch r.name {
	case ruleString:
		if _, ok := value.(string); !ok {
			return value, "must be a string"
		}
		return value, ""

	case ruleInteger:
		n, ok := coerceInt(value)
		if !ok {
			return value, "must be an integer"
		}
		return n, ""

	case ruleNumeric:
		d, ok := coerceDecimal(value)
		if !ok {
			return value, "must be a number"
		}
		// Stays a decimal so chained min/max compare the value, not its
		// textual length. Validate stringifies at the end.
		return d, ""

	case ruleBoolean:
		b, ok := coerceBool(value)
		if !ok {
			return value, "must be a boolean"
		}
		return b, ""

	case ruleDate:
		s, ok := value.(string)
		if !ok {
			return value, "must be a date (YYYY-MM-DD)"
		}
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return value, "must be a date (YYYY-MM-DD)"
		}
		return t.UTC(), ""

	case ruleMax:
		if exceeds, ok := compareLimit(value, r.limit, false); !ok {
			return value, "cannot be compared to limit"
		} else if exceeds {
			return value, "must be at most " + r.limit.String()
		}
		return value, ""

	case ruleMin:
		if below, ok := compareLimit(value, r.limit, true); !ok {
			return value, "cannot be compared to limit"
		} else if below {
			return value, "must be at least " + r.limit.String()
		}
		return value, ""

	case ruleIn:
		s := fmt.Sprintf("%v", value)
		for _, opt := range r.options {
			if s == opt {
				return value, ""
			}
		}
		return value, "must be one of " + strings.Join(r.options, ", ")

	case ruleRegex:
		s, ok := value.(string)
		if !ok || !r.pattern.MatchString(s) {
			return value, "has invalid format"
		}
		return value, ""
	}

	return value, ""
}

func coerceInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		// JSON numbers arrive as float64
		if n != float64(int64(n)) {
			return 0, false
		}
		return int64(n), true
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, false
		}
		return parsed, true
	}
	return 0, false
}

func coerceDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case decimal.Decimal:
		return n, true
	}
	return decimal.Zero, false
}

func coerceBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		}
	case float64:
		if b == 1 {
			return true, true
		}
		if b == 0 {
			return false, true
		}
	}
	return false, false
}

// compareLimit checks value against limit. For strings the limit applies to
// the rune length, for numbers to the value itself. below selects min vs max
// semantics; the first return is "violates".
func compareLimit(value any, limit decimal.Decimal, below bool) (bool, bool) {
	var d decimal.Decimal

	if s, ok := value.(string); ok {
		d = decimal.NewFromInt(int64(len([]rune(s))))
	} else if n, ok := coerceDecimal(value); ok {
		d = n
	} else {
		return false, false
	}

	if below {
		return d.LessThan(limit), true
	}
	return d.GreaterThan(limit), true
}
