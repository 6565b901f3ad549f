package buildcatalogresources

import "careplan-workers/internal/models"

const (
	EmergencyServicesName = "Emergency Services (9-1-1)"
	CrisisLifelineName    = "9-8-8 Suicide & Crisis Lifeline"
)

func emergencyServices() models.ResourceEntry {
	return models.ResourceEntry{
		Name:        EmergencyServicesName,
		Type:        "Immediate Support",
		Description: "Call if you or someone else is in immediate danger.",
		Data:        "9-1-1",
		Priority:    models.PriorityCritical,
		Provenance:  models.ProvenanceCatalog,
	}
}

func crisisLifeline() models.ResourceEntry {
	return models.ResourceEntry{
		Name:        CrisisLifelineName,
		Type:        "24/7 Phone/Text",
		Description: "Call or text 9-8-8 any time to reach a trained crisis responder.",
		Data:        "9-8-8",
		Priority:    models.PriorityCritical,
		Provenance:  models.ProvenanceCatalog,
	}
}

func studentHelpline() models.ResourceEntry {
	return models.ResourceEntry{
		Name:        "Good2Talk Student Helpline",
		Type:        "Student Helpline",
		Description: "Free, confidential support for post-secondary students, 24/7.",
		Data:        "1-866-925-5454",
		Provenance:  models.ProvenanceCatalog,
	}
}

func youthCrisisLine() models.ResourceEntry {
	return models.ResourceEntry{
		Name:        "Kids Help Phone",
		Type:        "Youth Crisis Line",
		Description: "Youth mental health support available 24/7. Text CONNECT to 686868.",
		Data:        "1-800-668-6868",
		Provenance:  models.ProvenanceCatalog,
	}
}

func guidedSelfHelp() models.ResourceEntry {
	return models.ResourceEntry{
		Name:        "BounceBack Ontario",
		Type:        "Guided Self-Help",
		Description: "CBT-based skill-building for managing stress and low mood.",
		Data:        "https://bouncebackontario.ca/",
		Provenance:  models.ProvenanceCatalog,
	}
}

type issueResource struct {
	name        string
	description string
	data        string
}

var connexOntario = issueResource{
	name:        "ConnexOntario",
	description: "24/7 support for addiction, gambling, and mental health.",
	data:        "https://www.connexontario.ca/",
}

// issueResources is the issue-specific table. Issue types without an entry
// contribute nothing.
var issueResources = map[models.IssueType][]issueResource{
	models.IssueMentalHealth: {{
		name:        "Wellness Together Canada",
		description: "Free mental health and substance use support portal.",
		data:        "https://wellnesstogether.ca/",
	}},
	models.IssueCrisisSafety: {{
		name:        "Talk Suicide Canada",
		description: "National support for people in distress or worried about someone else.",
		data:        "1-833-456-4566",
	}},
	models.IssueAlcohol:  {connexOntario},
	models.IssueDrugUse:  {connexOntario},
	models.IssueGambling: {connexOntario},
	models.IssueFinancialStress: {{
		name:        "Credit Counselling Canada",
		description: "Non-profit debt help and financial education.",
		data:        "https://creditcounsellingcanada.ca/",
	}},
	models.IssueRelationshipFamily: {{
		name:        "Family Service Canada",
		description: "Community-based family and relationship counselling.",
		data:        "https://familyservicecanada.org/",
	}},
	models.IssueGriefLoss: {{
		name:        "MyGrief.ca",
		description: "Online support for people dealing with loss and grief.",
		data:        "https://mygrief.ca/",
	}},
}

var studentRelevant = map[models.IssueType]bool{
	models.IssueMentalHealth:   true,
	models.IssueLoneliness:     true,
	models.IssueGeneralSupport: true,
}

// Build maps a classification to its catalog resources. The order of the steps
// is fixed: crisis entries, issue entries, student helpline, youth crisis line,
// guided self-help. Every call returns fresh entries.
func Build(c models.Classification) []models.ResourceEntry {
	out := make([]models.ResourceEntry, 0, 6)

	if c.RequiresCrisisResources() {
		out = append(out, emergencyServices(), crisisLifeline())
	}

	for _, r := range issueResources[c.IssueType] {
		out = append(out, models.ResourceEntry{
			Name:        r.name,
			Type:        "Specialized Support",
			Description: r.description,
			Data:        r.data,
			Provenance:  models.ProvenanceCatalog,
		})
	}

	if studentRelevant[c.IssueType] {
		out = append(out, studentHelpline())
	}
	if c.SeverityScore >= 2 {
		out = append(out, youthCrisisLine())
	}
	if c.SeverityScore <= 2 {
		out = append(out, guidedSelfHelp())
	}
	return out
}

// IsCrisisPrefix reports whether pathway starts with the two crisis entries in
// order.
func IsCrisisPrefix(pathway []models.ResourceEntry) bool {
	return len(pathway) >= 2 &&
		pathway[0].Name == EmergencyServicesName &&
		pathway[1].Name == CrisisLifelineName
}

// CrisisEntries returns fresh copies of the two crisis entries.
func CrisisEntries() []models.ResourceEntry {
	return []models.ResourceEntry{emergencyServices(), crisisLifeline()}
}
