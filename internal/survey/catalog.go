package survey

// This file is the hand-maintained field catalog: the fixed lookup tables for
// categories and answer choices, plus the declarative rule list that maps raw
// extract columns onto logical question keys. The catalog is process-wide
// immutable configuration; nothing here is inferred from the input schema.

// Sources distinguish the two logical tables merged into one wide extract.
const (
	SourceResponses       = "responses"
	SourceFarmerResponses = "farmer_responses"
)

// QuestionCategory is the question key carrying the flag-derived facility
// categories for a respondent.
const QuestionCategory = "q13_business_category"

// CategoryAll marks values that apply regardless of facility type.
const CategoryAll = "all"

// MetaCols are the identity/pass-through columns, in output order.
// response_id is the join key used everywhere downstream.
var MetaCols = []string{
	"response_id", "project_id", "questionnaire_id", "questionnaire_id_text",
	"uai_id", "adm_2_id", "submitted_by_id", "user_id",
	"created", "modified", "date_modified", "start_time", "end_time", "is_test", "farm_id",
}

// CatSuffixes enumerates the facility-type category tags, in catalog order.
var CatSuffixes = []string{
	"gf", "hs", "wh", "mill", "shop", "store", "trader",
	"roaster", "exporter", "extractor", "other",
}

// CatLabels maps a category tag to its human label (the stored value for
// q13_business_category records).
var CatLabels = map[string]string{
	"gf":        "Grading facilities",
	"hs":        "Hulling station",
	"wh":        "Warehouses",
	"mill":      "Wet mills/Pulperly",
	"shop":      "Coffee shops/ brewers",
	"store":     "Stores",
	"trader":    "Traders",
	"roaster":   "Roasters/Roasteries",
	"exporter":  "Exporters",
	"extractor": "Coffee extractors",
	"other":     "Other",
}

// CatCodes are the short prefixes used when label-prefixing cell values.
var CatCodes = map[string]string{
	"gf": "GF", "hs": "HS", "wh": "WH", "mill": "MILL", "shop": "SHOP",
	"store": "STORE", "trader": "TRADER", "roaster": "ROASTER",
	"exporter": "EXPORTER", "extractor": "EXTRACTOR", "other": "OTHER",
}

// CatFlagFields maps the boolean flag columns to their category tags.
// Expansion iterates catFlagOrder for deterministic output.
var CatFlagFields = map[string]string{
	"q_vca_grading_facility": "gf",
	"q_vca_hulling_station":  "hs",
	"q_vca_warehouse":        "wh",
	"q_vca_mill":             "mill",
	"q_vca_shop":             "shop",
	"q_vca_store":            "store",
	"q_vca_trader":           "trader",
	"q_vca_roaster":          "roaster",
	"q_vca_exporter":         "exporter",
	"q_vca_extractor":        "extractor",
	"q_vca_other":            "other",
}

var catFlagOrder = []string{
	"q_vca_grading_facility", "q_vca_hulling_station", "q_vca_warehouse",
	"q_vca_mill", "q_vca_shop", "q_vca_store", "q_vca_trader",
	"q_vca_roaster", "q_vca_exporter", "q_vca_extractor", "q_vca_other",
}

// Allowed-choice sets for single-choice questions (closed enumerations,
// exact case-sensitive match).
var (
	choicesTypeOfVCA = map[string]struct{}{
		"Individual": {}, "Registered Company": {}, "Cooperative": {},
	}
	choicesPosition = map[string]struct{}{
		"Owner": {}, "Manager": {},
	}
	choicesCoffeeType = map[string]struct{}{
		"Arabica": {}, "Robusta": {}, "Does not apply": {}, "Both": {},
	}
	choicesCoffeeForm = map[string]struct{}{
		"Red Cherries": {}, "Kiboko": {}, "Parchment": {}, "DRUGAR": {},
		"FAQ (clean)": {}, "Graded": {}, "Roasted": {}, "Does not apply": {},
	}
	choicesReceiveFrom = map[string]struct{}{
		"Farmers": {}, "Trader": {}, "Cooperative": {}, "Exporter": {},
		"Other": {}, "Does not apply": {},
	}
)

// Rule kinds. Each kind has its own expansion behavior in expand.go:
//
//   - flags: the q_vca_* booleans; one q13 record per truthy flag.
//   - scalar: one column -> exactly one record, null-valued when absent.
//   - per_category: a {suffix}-templated scalar family; one record per
//     suffix whose column exists in the schema (possibly null-valued).
//   - array: a JSON/array column -> one record per element, or a single
//     null record when empty; always emitted.
//   - per_category_array: templated array family; only existing columns.
//   - geo: a JSON object column -> latitude/longitude record pair, or a
//     single _raw record when the payload is not an object; only emitted
//     when the column exists.
const (
	RuleKindFlags            = "flags"
	RuleKindScalar           = "scalar"
	RuleKindPerCategory      = "per_category"
	RuleKindArray            = "array"
	RuleKindPerCategoryArray = "per_category_array"
	RuleKindGeo              = "geo"
)

// Rule is one catalog entry. Field is a raw column name, or a template
// containing "{suffix}" for per-category kinds. Suffixes, when set, restricts
// a per-category rule to a subset of CatSuffixes. Category-scoped values are
// label-prefixed at expansion time when the engine option is on; values
// scoped "" or "all" never are.
type Rule struct {
	Kind     string
	Field    string
	Question string
	Category string // fixed category for scalar/array rules ("all" or "")
	Source   string // defaults to SourceResponses
	Suffixes []string
}

// Catalog is the full expansion rule list, in emission order. Raw columns not
// claimed by any rule (and not meta or ignored) fall through to the generic
// fallback in expand.go.
var Catalog = []Rule{
	{Kind: RuleKindFlags},

	// Identity / contact scalars. fr_* columns originate from the nested
	// farmer sub-response.
	{Kind: RuleKindScalar, Field: "q_type_of_vca", Question: "q1_type_of_vca"},
	{Kind: RuleKindScalar, Field: "q_vca_position", Question: "q2_vca_position"},
	{Kind: RuleKindScalar, Field: "fr_name", Question: "q3_full_name", Source: SourceFarmerResponses},
	{Kind: RuleKindScalar, Field: "fr_age", Question: "q4_age", Source: SourceFarmerResponses},
	{Kind: RuleKindScalar, Field: "fr_gender", Question: "q5_gender", Source: SourceFarmerResponses},
	{Kind: RuleKindScalar, Field: "fr_phone_number", Question: "q6_phone_number", Source: SourceFarmerResponses},
	{Kind: RuleKindScalar, Field: "q_vca_email_address", Question: "q7_email"},
	{Kind: RuleKindScalar, Field: "q_vca_id_number_available", Question: "q8_has_national_id"},
	{Kind: RuleKindScalar, Field: "q_vca_id_number", Question: "q9_national_id_number"},
	{Kind: RuleKindScalar, Field: "q_legally_registered", Question: "q11_is_legally_registered"},
	{Kind: RuleKindScalar, Field: "q_tin_number", Question: "q12_tin_number"},

	// Per-category families. The address template spelling follows the raw
	// extract schema.
	{Kind: RuleKindPerCategory, Field: "q_{suffix}_business_name", Question: "q15_business_name"},
	{Kind: RuleKindPerCategory, Field: "q_{suffix}_bussines_address", Question: "q16_business_address"},
	{Kind: RuleKindPerCategory, Field: "q_{suffix}_max_operating_capacity", Question: "q18_max_operating_capacity"},
	{Kind: RuleKindPerCategory, Field: "q_{suffix}_max_storage", Question: "q19_max_storage"},

	// Hulling stations are the only facility asked for annual throughput.
	{Kind: RuleKindPerCategory, Field: "q_total_processing_per_year_{suffix}", Question: "q21_total_processing_per_year",
		Suffixes: []string{"hs"}},

	{Kind: RuleKindScalar, Field: "q_huller_operated", Question: "q20_hullers_operated"},

	// Multi-selects: an "all"-scoped base column plus per-category variants.
	{Kind: RuleKindArray, Field: "q_type_coffee_sourced_json", Question: "q22_type_of_coffee_all", Category: CategoryAll},
	{Kind: RuleKindPerCategoryArray, Field: "q_type_coffee_sourced_{suffix}_json", Question: "q22_type_of_coffee"},
	{Kind: RuleKindArray, Field: "q_coffee_form_json", Question: "q23_coffee_form_all", Category: CategoryAll},
	{Kind: RuleKindPerCategoryArray, Field: "q_coffee_form_{suffix}_json", Question: "q23_coffee_form"},
	{Kind: RuleKindArray, Field: "q_recieve_coffee_from_json", Question: "q26_receive_coffee_from_all", Category: CategoryAll},
	{Kind: RuleKindPerCategoryArray, Field: "q_recieve_coffee_from_{suffix}_json", Question: "q26_receive_coffee_from"},

	// Districts and annual volume: an always-emitted "all" scalar plus
	// per-category scalar variants.
	{Kind: RuleKindScalar, Field: "q_district_coffee_received", Question: "q24_districts_received_from", Category: CategoryAll},
	{Kind: RuleKindPerCategory, Field: "q_district_coffee_received_{suffix}", Question: "q24_districts_received_from"},
	{Kind: RuleKindScalar, Field: "q_coffee_recieved_in_a_year_kgs", Question: "q25_annual_kgs_received", Category: CategoryAll},
	{Kind: RuleKindPerCategory, Field: "q_coffee_recieved_in_a_year_kgs_{suffix}", Question: "q25_annual_kgs_received"},

	{Kind: RuleKindGeo, Field: "q28_vca_gps_json", Question: "q28_vca_gps"},

	// Candidate info keeps the raw column name as question key.
	{Kind: RuleKindScalar, Field: "q_candidate_name", Question: "q_candidate_name"},
	{Kind: RuleKindScalar, Field: "q_candidate_phone", Question: "q_candidate_phone"},
	{Kind: RuleKindScalar, Field: "q_candidate_id_number", Question: "q_candidate_id_number"},
}

// ignoredCols are raw columns deliberately excluded from expansion and from
// the generic fallback.
var ignoredCols = map[string]struct{}{
	"metadata_json": {},
}
