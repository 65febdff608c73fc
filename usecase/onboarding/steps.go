package onboarding

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// FieldErrors maps a field name to its validation message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return strings.Join(parts, "; ")
}

// Validator returns a message when the value is unacceptable.
type Validator func(v any) string

type Field struct {
	Name     string
	Required bool
	Validate Validator
}

type Step struct {
	Name   string
	Title  string
	Fields []Field
	// Check runs after the per-field validators pass.
	Check func(answers map[string]any) FieldErrors
}

func (s Step) validate(answers map[string]any) FieldErrors {
	errs := FieldErrors{}
	for _, f := range s.Fields {
		v, ok := answers[f.Name]
		if !ok || isBlank(v) {
			if f.Required {
				errs[f.Name] = "is required"
			}
			continue
		}
		if f.Validate != nil {
			if msg := f.Validate(v); msg != "" {
				errs[f.Name] = msg
			}
		}
	}
	if len(errs) == 0 && s.Check != nil {
		return s.Check(answers)
	}
	return errs
}

var timelines = []string{"0-3 months", "3-6 months", "6-12 months", "12+ months"}

var BuyerSteps = []Step{
	{Name: "basics", Title: "About you", Fields: []Field{
		{Name: "name", Required: true, Validate: minLength(2)},
		{Name: "email", Required: true, Validate: email},
		{Name: "company"},
		{Name: "location"},
	}},
	{Name: "investment", Title: "Investment criteria", Fields: []Field{
		{Name: "industries", Required: true, Validate: nonEmptyList},
		{Name: "investment_min", Required: true, Validate: nonNegative},
		{Name: "investment_max", Required: true, Validate: positive},
	}, Check: func(answers map[string]any) FieldErrors {
		lo, _ := asNumber(answers["investment_min"])
		hi, _ := asNumber(answers["investment_max"])
		if hi < lo {
			return FieldErrors{"investment_max": "must not be below the minimum"}
		}
		return nil
	}},
	{Name: "experience", Title: "Experience", Fields: []Field{
		{Name: "experience_years", Validate: nonNegative},
		{Name: "acquisition_timeline", Required: true, Validate: oneOf(timelines...)},
		{Name: "preferred_deal_structure", Validate: nonEmptyList},
	}},
	{Name: "profile", Title: "Profile", Fields: []Field{
		{Name: "bio", Required: true, Validate: minLength(20)},
		{Name: "remote_ok", Validate: boolean},
	}},
}

var SellerSteps = []Step{
	{Name: "basics", Title: "About you", Fields: []Field{
		{Name: "name", Required: true, Validate: minLength(2)},
		{Name: "email", Required: true, Validate: email},
		{Name: "business_name", Required: true, Validate: minLength(2)},
		{Name: "location"},
	}},
	{Name: "business", Title: "Your business", Fields: []Field{
		{Name: "industries", Required: true, Validate: nonEmptyList},
		{Name: "description", Required: true, Validate: minLength(20)},
		{Name: "year_established", Validate: year},
		{Name: "employees", Validate: nonNegative},
	}},
	{Name: "financials", Title: "Financials", Fields: []Field{
		{Name: "asking_price", Required: true, Validate: positive},
		{Name: "annual_revenue", Required: true, Validate: nonNegative},
	}},
	{Name: "sale", Title: "The sale", Fields: []Field{
		{Name: "reason_for_selling", Required: true, Validate: minLength(5)},
		{Name: "remote_operable", Validate: boolean},
	}},
}

func minLength(n int) Validator {
	return func(v any) string {
		s, ok := asString(v)
		if !ok {
			return "must be text"
		}
		if len([]rune(strings.TrimSpace(s))) < n {
			return fmt.Sprintf("must be at least %d characters", n)
		}
		return ""
	}
}

func email(v any) string {
	s, ok := asString(v)
	at := strings.Index(s, "@")
	if !ok || at < 1 || !strings.Contains(s[at:], ".") {
		return "must be a valid email address"
	}
	return ""
}

func nonEmptyList(v any) string {
	if len(asStrings(v)) == 0 {
		return "select at least one option"
	}
	return ""
}

func nonNegative(v any) string {
	n, ok := asNumber(v)
	if !ok || n < 0 {
		return "must be zero or more"
	}
	return ""
}

func positive(v any) string {
	n, ok := asNumber(v)
	if !ok || n <= 0 {
		return "must be greater than zero"
	}
	return ""
}

func year(v any) string {
	n, ok := asNumber(v)
	if !ok || n < 1800 || int(n) > time.Now().Year() {
		return "must be a valid year"
	}
	return ""
}

func boolean(v any) string {
	if _, ok := asBool(v); !ok {
		return "must be true or false"
	}
	return ""
}

func oneOf(options ...string) Validator {
	return func(v any) string {
		s, _ := asString(v)
		for _, o := range options {
			if s == o {
				return ""
			}
		}
		return "must be one of " + strings.Join(options, ", ")
	}
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	}
	return false
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case json.Number:
		n, err := t.Float64()
		return n, err == nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return n, err == nil
	}
	return 0, false
}

func asStrings(v any) []string {
	var out []string
	switch t := v.(type) {
	case []string:
		out = t
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	case string:
		out = strings.Split(t, ",")
	}
	cleaned := out[:0:0]
	for _, s := range out {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return cleaned
}

func asBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(t)
		return b, err == nil
	}
	return false, false
}
