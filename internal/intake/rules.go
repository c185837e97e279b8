package intake

import (
	"regexp"
	"strconv"
	"strings"
)

// Rule-based extraction: the deterministic floor under the model-backed
// extractor. Pure function of (text, focus field); no network, no state.

var (
	ageRE    = regexp.MustCompile(`\b(1[3-9]|[2-5][0-9])\b(?:\s*(?:years?\s*old|yo|yrs))?`)
	emailRE  = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phoneRE  = regexp.MustCompile(`[+]?\d[\d\s\-()]{6,}`)
	gradesRE = regexp.MustCompile(`(?i)(\b[1-9]\.\d{1,2}\b|\b\d{2,3}%|\b(?:GPA|CGPA)\s*[:=]?\s*[0-4](?:\.\d{1,2})?\b)`)
	nameRE   = regexp.MustCompile(`(?i)(?:my name is|i am|i'm)\s+([A-Za-z][A-Za-z\s'.-]{2,})`)
	degreeRE = regexp.MustCompile(`(?i)\b(b\.?s\.?c?|bcs|bachelor'?s?|m\.?s\.?c?|masters?)\b`)
	testRE   = regexp.MustCompile(`(?i)\b(ielts|toefl|pte)\b(?:\D{0,12}(\d{1,3}(?:\.\d)?))?`)
	numberRE = regexp.MustCompile(`(?i)(\d[\d,]*(?:\.\d+)?)\s*(k)?`)
)

// Academic level synonyms, checked in order; longer phrases first so "o levels"
// wins over a stray "levels".
var academicLevelTable = []struct {
	needle string
	label  string
}{
	{"intermediate", "Intermediate"},
	{"o levels", "O Levels"},
	{"o-levels", "O Levels"},
	{"a levels", "A Levels"},
	{"a-levels", "A Levels"},
	{"matric", "Matric"},
	{"bachelor", "Bachelor's"},
	{"master", "Master's"},
}

var countryTable = []struct {
	needle string
	label  string
}{
	{"united states", "USA"},
	{"usa", "USA"},
	{"united kingdom", "UK"},
	{"uk", "UK"},
	{"canada", "Canada"},
	{"australia", "Australia"},
	{"germany", "Germany"},
	{"france", "France"},
	{"italy", "Italy"},
	{"spain", "Spain"},
}

// Keyword-to-label table for field of study; first match wins, so specific
// programs sit above their umbrella subjects.
var fieldOfStudyTable = []struct {
	needle string
	label  string
}{
	{"artificial intelligence", "Artificial Intelligence"},
	{" ai ", "Artificial Intelligence"},
	{"computer science", "Computer Science"},
	{" cs ", "Computer Science"},
	{"data science", "Data Science"},
	{"software engineering", "Software Engineering"},
	{"engineering", "Engineering"},
	{"business", "Business"},
	{"finance", "Finance"},
	{"medicine", "Medicine"},
	{"law", "Law"},
	{"arts", "Arts"},
	{"design", "Design"},
	{"psychology", "Psychology"},
}

// NormalizePhone strips formatting from a phone string, requiring at least 7
// digits. A leading + survives; anything shorter is treated as not a phone.
func NormalizePhone(raw string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if len(digits) < 7 {
		return ""
	}
	if strings.HasPrefix(strings.TrimSpace(raw), "+") {
		return "+" + digits
	}
	return digits
}

// ExtractRules applies deterministic patterns to the message. With a focus
// field only that field's pattern runs; without one every pattern runs and
// whatever matched is returned. Unmatched fields are omitted, never empty.
func ExtractRules(text, focusField string) Result {
	lowered := strings.ToLower(text)
	out := Result{}

	set := func(key string, v any) {
		if v != nil {
			out[key] = v
		}
	}

	switch focusField {
	case FieldAge:
		set(FieldAge, matchAge(lowered))
	case FieldEmail:
		set(FieldEmail, matchEmail(text))
	case FieldPhone:
		set(FieldPhone, matchPhone(text))
	case FieldAcademicLevel:
		set(FieldAcademicLevel, matchAcademicLevel(lowered))
	case FieldRecentGrades:
		set(FieldRecentGrades, matchGrades(text))
	case FieldFullName:
		set(FieldFullName, matchFullName(text))
	case FieldPreferredCountries:
		set(FieldPreferredCountries, matchCountries(lowered))
	case FieldFieldOfStudy:
		set(FieldFieldOfStudy, matchFieldOfStudy(lowered))
	case FieldEnglishTests:
		set(FieldEnglishTests, matchEnglishTests(text))
	case FieldTargetLevel:
		set(FieldTargetLevel, matchAcademicLevel(lowered))
	case FieldFinancial:
		if fin := matchFunding(lowered); fin != nil {
			set(FieldFinancial, fin)
		}
		if lo, hi, ok := ParseBudgetRange(text); ok {
			set(FieldBudgetMin, lo)
			if hi > 0 {
				set(FieldBudgetMax, hi)
			}
		}
	case "":
		set(FieldAge, matchAge(lowered))
		set(FieldEmail, matchEmail(text))
		set(FieldPhone, matchPhone(text))
		set(FieldAcademicLevel, matchAcademicLevel(lowered))
		set(FieldRecentGrades, matchGrades(text))
		set(FieldPreferredCountries, matchCountries(lowered))
		set(FieldFieldOfStudy, matchFieldOfStudy(lowered))
		set(FieldEnglishTests, matchEnglishTests(text))
		if fin := matchFunding(lowered); fin != nil {
			set(FieldFinancial, fin)
		}
	}
	return out
}

func matchAge(lowered string) any {
	m := ageRE.FindStringSubmatch(lowered)
	if m == nil {
		return nil
	}
	age, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return age
}

func matchEmail(text string) any {
	if m := emailRE.FindString(text); m != "" {
		return m
	}
	return nil
}

func matchPhone(text string) any {
	m := phoneRE.FindString(text)
	if m == "" {
		return nil
	}
	if normalized := NormalizePhone(m); normalized != "" {
		return normalized
	}
	return nil
}

func matchAcademicLevel(lowered string) any {
	for _, entry := range academicLevelTable {
		if strings.Contains(lowered, entry.needle) {
			return entry.label
		}
	}
	if m := degreeRE.FindStringSubmatch(lowered); m != nil {
		token := strings.ReplaceAll(strings.ToLower(m[1]), ".", "")
		if strings.HasPrefix(token, "b") {
			return "Bachelor's"
		}
		return "Master's"
	}
	return nil
}

func matchGrades(text string) any {
	if m := gradesRE.FindString(text); m != "" {
		return m
	}
	return nil
}

func matchFullName(text string) any {
	m := nameRE.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	name := strings.TrimSpace(m[1])
	if name == "" {
		return nil
	}
	return name
}

func matchCountries(lowered string) any {
	found := []any{}
	seen := map[string]struct{}{}
	for _, entry := range countryTable {
		if !strings.Contains(lowered, entry.needle) {
			continue
		}
		if _, dup := seen[entry.label]; dup {
			continue
		}
		seen[entry.label] = struct{}{}
		found = append(found, entry.label)
	}
	if len(found) == 0 {
		return nil
	}
	return found
}

func matchFieldOfStudy(lowered string) any {
	padded := " " + lowered + " "
	for _, entry := range fieldOfStudyTable {
		if strings.Contains(padded, entry.needle) {
			return entry.label
		}
	}
	return nil
}

func matchEnglishTests(text string) any {
	matches := testRE.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	tests := []any{}
	seen := map[string]struct{}{}
	for _, m := range matches {
		name := strings.ToUpper(m[1])
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		record := map[string]any{"test_name": name}
		if m[2] != "" {
			if score, err := strconv.ParseFloat(m[2], 64); err == nil {
				record["overall_score"] = score
			}
		}
		tests = append(tests, record)
	}
	return tests
}

func matchFunding(lowered string) map[string]any {
	switch {
	case strings.Contains(lowered, "scholar"):
		return map[string]any{"funding_type": "scholarship"}
	case strings.Contains(lowered, "mixed"):
		return map[string]any{"funding_type": "mixed"}
	case strings.Contains(lowered, "self"),
		strings.Contains(lowered, "own funds"),
		strings.Contains(lowered, "my parents"):
		return map[string]any{"funding_type": "self-funded"}
	default:
		return nil
	}
}

// ParseBudgetRange pulls up to two numbers out of budget text like
// "10k - 20k" or "15,000 to 30,000". A k suffix multiplies by a thousand.
// One number yields only a minimum.
func ParseBudgetRange(text string) (min, max int, ok bool) {
	matches := numberRE.FindAllStringSubmatch(text, 3)
	nums := make([]int, 0, 2)
	for _, m := range matches {
		raw := strings.ReplaceAll(m[1], ",", "")
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		if strings.EqualFold(m[2], "k") {
			v *= 1000
		}
		nums = append(nums, int(v))
		if len(nums) == 2 {
			break
		}
	}
	switch len(nums) {
	case 0:
		return 0, 0, false
	case 1:
		return nums[0], 0, true
	default:
		return nums[0], nums[1], true
	}
}
