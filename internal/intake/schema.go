package intake

import "strings"

// Field keys recognized across the intake profile. Every component that
// shapes, extracts, merges, or asks about profile data goes through these.
const (
	FieldFullName           = "full_name"
	FieldAge                = "age"
	FieldEmail              = "email"
	FieldPhone              = "phone"
	FieldAcademicLevel      = "academic_level"
	FieldRecentGrades       = "recent_grades"
	FieldInstitution        = "institution"
	FieldYearCompleted      = "year_completed"
	FieldMajor              = "major"
	FieldFieldOfStudy       = "field_of_study"
	FieldPreferredCountries = "preferred_countries"
	FieldTargetLevel        = "target_level"
	FieldEnglishTests       = "english_tests"
	FieldFinancial          = "financial"
	FieldBudgetMin          = "budget_min"
	FieldBudgetMax          = "budget_max"
	FieldCareerGoals        = "career_goals"

	KeyCompletedFields = "completed_fields"
	KeyLastUpdated     = "last_updated"
)

type PromptedField struct {
	Key      string
	Question string
}

// BasicOrder is the canonical ask sequence: identity, academics, preferences,
// contact. The selector walks it front to back and the normalizer derives the
// profile shape from it, so a field added here is picked up by both.
var BasicOrder = []PromptedField{
	{FieldFullName, "Could you please confirm your full name?"},
	{FieldAge, "How old are you?"},
	{FieldAcademicLevel, "What is your current academic level (e.g., Matric, Intermediate, O/A Levels, Bachelor's, Master's)?"},
	{FieldRecentGrades, "What are your recent grades or GPA/percentage?"},
	{FieldFieldOfStudy, "Which field of study or subject area are you interested in?"},
	{FieldPreferredCountries, "Do you have any preferred study destination countries?"},
	{FieldEnglishTests, "Have you taken or planned any English tests (IELTS/TOEFL/PTE)?"},
	{FieldFinancial, "How do you plan to fund your tuition and living expenses (self-funded, scholarship, mixed)?"},
	{FieldTargetLevel, "What study level are you aiming for next (Bachelor's, Master's, PhD)?"},
	{FieldCareerGoals, "What are your long-term academic or career goals?"},
	{FieldEmail, "Could you share your email address?"},
	{FieldPhone, "And your phone number, please?"},
}

// Keys filled opportunistically from free text but never asked about directly.
var unpromptedKeys = []string{
	FieldInstitution,
	FieldYearCompleted,
	FieldMajor,
	FieldBudgetMin,
	FieldBudgetMax,
}

// AllKeys returns every schema field key, prompted first in ask order.
func AllKeys() []string {
	out := make([]string, 0, len(BasicOrder)+len(unpromptedKeys))
	for _, f := range BasicOrder {
		out = append(out, f.Key)
	}
	out = append(out, unpromptedKeys...)
	return out
}

// IsFieldKey reports whether key names a schema field.
func IsFieldKey(key string) bool {
	for _, k := range AllKeys() {
		if k == key {
			return true
		}
	}
	return false
}

func PromptFor(key string) string {
	for _, f := range BasicOrder {
		if f.Key == key {
			return f.Question
		}
	}
	return ""
}

const questionIDPrefix = "ask_"

func QuestionID(key string) string {
	if key == "" {
		return ""
	}
	return questionIDPrefix + key
}

// FieldForQuestionID maps "ask_<key>" back to its field key. Unknown or
// malformed identifiers map to "" so a bad model suggestion cannot steer the
// selector outside the schema.
func FieldForQuestionID(id string) string {
	key := strings.TrimPrefix(strings.TrimSpace(id), questionIDPrefix)
	if key == id || key == "" {
		return ""
	}
	if PromptFor(key) == "" {
		return ""
	}
	return key
}

// AllowedQuestionIDs is the fixed allow-list handed to the dialog engine.
func AllowedQuestionIDs() []string {
	out := make([]string, 0, len(BasicOrder))
	for _, f := range BasicOrder {
		out = append(out, QuestionID(f.Key))
	}
	return out
}

var cannedQuickReplies = map[string][]string{
	FieldAcademicLevel:      {"Matric", "Intermediate", "O/A Levels", "Bachelor's", "Master's"},
	FieldRecentGrades:       {"3.0+ GPA", "2.5-3.0 GPA", "60-70%", "Don't remember"},
	FieldFieldOfStudy:       {"Computer Science", "Data Science", "Business", "Engineering"},
	FieldPreferredCountries: {"USA", "UK", "Canada", "Germany", "Australia"},
	FieldEnglishTests:       {"IELTS", "TOEFL", "PTE", "Not yet"},
	FieldFinancial:          {"Self-funded", "Scholarship", "Mixed", "Not sure yet"},
	FieldTargetLevel:        {"Bachelor's", "Master's", "PhD"},
}

// QuickRepliesFor returns the canned options for a field, or nil when the
// field has no fixed set. Callers get a copy.
func QuickRepliesFor(key string) []string {
	opts, ok := cannedQuickReplies[key]
	if !ok {
		return nil
	}
	out := make([]string, len(opts))
	copy(out, opts)
	return out
}
