package student

import "strconv"

// Lookup names used by form fields and the details endpoint.
const (
	LookupGender    = "gender_identity"
	LookupFunding   = "funding_source"
	LookupDisc      = "disc_assessment_type"
	LookupSixteen   = "sixteen_types_assessment"
	LookupEnneagram = "enneagram_result"
	LookupOsha      = "osha_type"
)

// Details is the reference data fetched once per session.
type Details struct {
	GenderIdentities       []GenderIdentity  `json:"gender_identities"`
	DiscAssessments        []AssessmentType  `json:"disc_assessments"`
	SixteenTypeAssessments []AssessmentType  `json:"sixteen_type_assessments"`
	EnneagramResults       []EnneagramResult `json:"enneagram_results"`
	OshaTypes              []OshaType        `json:"osha_types"`
	FundingSources         []FundingSource   `json:"funding_sources"`
}

type Option struct {
	ID    int64
	Label string
}

func (o Option) Value() string {
	return strconv.FormatInt(o.ID, 10)
}

func (d Details) Options(lookup string) []Option {
	var out []Option
	switch lookup {
	case LookupGender:
		for _, v := range d.GenderIdentities {
			out = append(out, Option{ID: v.ID, Label: v.Gender})
		}
	case LookupFunding:
		for _, v := range d.FundingSources {
			out = append(out, Option{ID: v.ID, Label: v.Name})
		}
	case LookupDisc:
		for _, v := range d.DiscAssessments {
			out = append(out, Option{ID: v.ID, Label: v.TypeName})
		}
	case LookupSixteen:
		for _, v := range d.SixteenTypeAssessments {
			out = append(out, Option{ID: v.ID, Label: v.TypeName})
		}
	case LookupEnneagram:
		for _, v := range d.EnneagramResults {
			out = append(out, Option{ID: v.ID, Label: v.ResultName})
		}
	case LookupOsha:
		for _, v := range d.OshaTypes {
			out = append(out, Option{ID: v.ID, Label: v.Name})
		}
	}
	return out
}

// Label resolves an id to its display text, or "" when unknown.
func (d Details) Label(lookup string, id int64) string {
	for _, opt := range d.Options(lookup) {
		if opt.ID == id {
			return opt.Label
		}
	}
	return ""
}
