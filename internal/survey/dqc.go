package survey

import (
	"strings"

	"github.com/rodgersmerokaosumo/VCA-PULA/pkg/records"
)

// DqcResult holds the six independent check flags for one long record plus
// the aggregate verdict. Flags default to true when the corresponding rule
// does not apply to the record's question key; Pass is the AND of all six.
type DqcResult struct {
	Present      bool
	ValidChoice  bool
	NumericOK    bool
	DependencyOK bool
	ContactOK    bool
	GPSOK        bool
	Pass         bool
	FailedReason string
}

// DqcCols are the DQC column names in their fixed output order.
var DqcCols = []string{
	"dq_present", "dq_valid_choice", "dq_numeric_ok", "dq_dependency_ok",
	"dq_contact_ok", "dq_gps_ok", "dq_pass", "dq_failed_reason",
}

// Flag returns the value of the named flag column, or (zero, false) for an
// unknown name. dq_failed_reason is not a flag; use FailedReason directly.
func (d *DqcResult) Flag(name string) (bool, bool) {
	switch name {
	case "dq_present":
		return d.Present, true
	case "dq_valid_choice":
		return d.ValidChoice, true
	case "dq_numeric_ok":
		return d.NumericOK, true
	case "dq_dependency_ok":
		return d.DependencyOK, true
	case "dq_contact_ok":
		return d.ContactOK, true
	case "dq_gps_ok":
		return d.GPSOK, true
	case "dq_pass":
		return d.Pass, true
	}
	return false, false
}

// Question-key sets for the per-flag rules. Alternate keys cover the older
// extract naming still present in legacy files.
var (
	choiceRules = map[string]map[string]struct{}{
		"q1_type_of_vca":              choicesTypeOfVCA,
		"q2_vca_position":             choicesPosition,
		"q22_type_of_coffee":          choicesCoffeeType,
		"q22_type_of_coffee_all":      choicesCoffeeType,
		"q23_coffee_form":             choicesCoffeeForm,
		"q23_coffee_form_all":         choicesCoffeeForm,
		"q26_receive_coffee_from":     choicesReceiveFrom,
		"q26_receive_coffee_from_all": choicesReceiveFrom,
	}

	nonNegativeQuestions = map[string]struct{}{
		"q20_hullers_operated":       {},
		"q18_max_operating_capacity": {},
		"q19_max_storage":            {},
		"q25_annual_kgs_received":    {},
	}

	categoryDependentQuestions = map[string]struct{}{
		"q15_business_name":          {},
		"q16_business_address":       {},
		"q18_max_operating_capacity": {},
		"q19_max_storage":            {},
	}

	hasIDQuestions = map[string]struct{}{
		"q8_has_national_id":        {},
		"q_vca_id_number_available": {},
	}

	emailQuestions = map[string]struct{}{
		"q7_email":            {},
		"q_vca_email_address": {},
	}

	phoneQuestions = map[string]struct{}{
		"q6_phone_number":   {},
		"q_candidate_phone": {},
		"fr_phone_number":   {},
	}
)

// CheckRecord evaluates the full rule set for one long record. wide is the
// originating wide row (for cross-field lookups) and selected the
// respondent's category set. Evaluation never fails: unparseable values fail
// the relevant flag instead.
func CheckRecord(long *LongRecord, wide records.Record, selected map[string]struct{}) DqcResult {
	q := long.QuestionKey
	cat := long.Category
	val, present := AsString(long.Value)

	res := DqcResult{
		Present:      present,
		ValidChoice:  true,
		NumericOK:    true,
		DependencyOK: true,
		ContactOK:    true,
		GPSOK:        true,
	}
	var reasons []string
	fail := func(flag *bool, reason string) {
		*flag = false
		reasons = append(reasons, reason)
	}

	if allowed, ok := choiceRules[q]; ok && present {
		if _, ok := allowed[val]; !ok {
			fail(&res.ValidChoice, "invalid_choice")
		}
	}

	if q == "q4_age" {
		if n, ok := CleanNumber(val); !ok || n < 18 || n > 99 {
			fail(&res.NumericOK, "age_out_of_range")
		}
	}
	if _, ok := nonNegativeQuestions[q]; ok {
		if n, ok := CleanNumber(val); !ok || n < 0 {
			fail(&res.NumericOK, "invalid_number")
		}
	}

	if q == "q11_is_legally_registered" && strings.EqualFold(strings.TrimSpace(val), "yes") {
		if _, ok := AsString(wide["q_tin_number"]); !ok {
			fail(&res.DependencyOK, "missing_tin_when_registered")
		}
	}
	if _, ok := hasIDQuestions[q]; ok && strings.EqualFold(strings.TrimSpace(val), "yes") {
		if _, ok := AsString(idNumberCell(wide)); !ok {
			fail(&res.DependencyOK, "missing_id_number_when_available")
		}
	}
	if _, ok := categoryDependentQuestions[q]; ok && cat != "" {
		if _, sel := selected[cat]; sel && !present {
			fail(&res.DependencyOK, "missing_value_for_selected_category:"+cat)
		}
	}

	if _, ok := emailQuestions[q]; ok && present {
		if !strings.Contains(val, "@") || strings.HasPrefix(val, "@") || strings.HasSuffix(val, "@") {
			fail(&res.ContactOK, "bad_email_format")
		}
	}
	if _, ok := phoneQuestions[q]; ok && present {
		if n := digitCount(val); n < 9 || n > 15 {
			fail(&res.ContactOK, "bad_phone_length")
		}
	}

	if q == "q28_vca_gps_latitude" && present {
		if lat, ok := CleanNumber(val); !ok || lat < -90 || lat > 90 {
			fail(&res.GPSOK, "lat_out_of_range")
		}
	}
	if q == "q28_vca_gps_longitude" && present {
		if lon, ok := CleanNumber(val); !ok || lon < -180 || lon > 180 {
			fail(&res.GPSOK, "lon_out_of_range")
		}
	}

	res.Pass = res.Present && res.ValidChoice && res.NumericOK &&
		res.DependencyOK && res.ContactOK && res.GPSOK
	switch {
	case res.Pass:
		res.FailedReason = ""
	case len(reasons) > 0:
		res.FailedReason = strings.Join(reasons, ";")
	default:
		// Presence-only failures carry no named rule; downstream consumers
		// key on this literal.
		res.FailedReason = "failed"
	}
	return res
}

// idNumberCell returns the national-ID cell, preferring the respondent
// column with the farmer sub-response as fallback.
func idNumberCell(wide records.Record) any {
	v := wide["q_vca_id_number"]
	if v == nil {
		return wide["fr_id_number"]
	}
	if s, ok := v.(string); ok && s == "" {
		return wide["fr_id_number"]
	}
	return v
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
