// internal/models/classification.go
package models

type IssueType string

const (
	IssueMentalHealth       IssueType = "mental_health"
	IssueCrisisSafety       IssueType = "crisis_safety"
	IssueAlcohol            IssueType = "alcohol"
	IssueDrugUse            IssueType = "drug_use"
	IssueGambling           IssueType = "gambling"
	IssueFinancialStress    IssueType = "financial_stress"
	IssueRelationshipFamily IssueType = "relationship_family"
	IssueGriefLoss          IssueType = "grief_loss"
	IssueLoneliness         IssueType = "loneliness"
	IssueGeneralSupport     IssueType = "general_support"
	IssueUnknown            IssueType = "unknown"
)

// AllIssueTypes lists every issue type in a fixed order.
var AllIssueTypes = []IssueType{
	IssueMentalHealth,
	IssueCrisisSafety,
	IssueAlcohol,
	IssueDrugUse,
	IssueGambling,
	IssueFinancialStress,
	IssueRelationshipFamily,
	IssueGriefLoss,
	IssueLoneliness,
	IssueGeneralSupport,
	IssueUnknown,
}

func (t IssueType) Valid() bool {
	for _, v := range AllIssueTypes {
		if t == v {
			return true
		}
	}
	return false
}

type Urgency string

const (
	UrgencyRoutine         Urgency = "routine"
	UrgencySoon            Urgency = "soon"
	UrgencyUrgent          Urgency = "urgent"
	UrgencyImmediateCrisis Urgency = "immediate_crisis"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyRoutine, UrgencySoon, UrgencyUrgent, UrgencyImmediateCrisis:
		return true
	}
	return false
}

const (
	MinSeverity = 1
	MaxSeverity = 4
)

// Classification is the structured judgment derived from an intake. The
// jsonschema tags define the response contract given to the reasoning service.
type Classification struct {
	IssueType               IssueType `json:"issue_type" jsonschema:"enum=mental_health,enum=crisis_safety,enum=alcohol,enum=drug_use,enum=gambling,enum=financial_stress,enum=relationship_family,enum=grief_loss,enum=loneliness,enum=general_support,enum=unknown"`
	Urgency                 Urgency   `json:"urgency" jsonschema:"enum=routine,enum=soon,enum=urgent,enum=immediate_crisis"`
	SeverityScore           int       `json:"severity_score" jsonschema:"minimum=1,maximum=4"`
	NeedsImmediateResources bool      `json:"needs_immediate_resources"`
	Confidence              float64   `json:"confidence" jsonschema:"minimum=0,maximum=1"`
	Reasoning               string    `json:"reasoning"`
	PersonalizedNote        string    `json:"personalized_note"`
}

// RequiresCrisisResources is the single rule deciding whether the crisis
// entries lead the pathway: severity at the top of the scale, an
// immediate_crisis urgency, or an explicit immediate-resources flag.
func (c Classification) RequiresCrisisResources() bool {
	return c.SeverityScore >= MaxSeverity ||
		c.Urgency == UrgencyImmediateCrisis ||
		c.NeedsImmediateResources
}

const (
	DegradedReasoningMarker = "[degraded] automated classification unavailable; conservative default applied"
	fallbackNote            = "Thank you for sharing what you're going through. We couldn't fully personalize this plan right now, " +
		"but the resources below are a good place to start, and you can reach out to any of them at any time."
)

// FallbackClassification returns the fixed classification used whenever the
// reasoning service fails or answers outside the contract.
func FallbackClassification() Classification {
	return Classification{
		IssueType:               IssueGeneralSupport,
		Urgency:                 UrgencySoon,
		SeverityScore:           2,
		NeedsImmediateResources: false,
		Confidence:              0.0,
		Reasoning:               DegradedReasoningMarker,
		PersonalizedNote:        fallbackNote,
	}
}
