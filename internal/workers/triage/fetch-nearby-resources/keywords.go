package fetchnearbyresources

import "careplan-workers/internal/models"

const (
	DefaultKeyword = "mental health"
	BroadKeyword   = "counseling"
)

var keywordByIssue = map[models.IssueType]string{
	models.IssueMentalHealth:       "psychotherapist | mental health clinic | counseling center",
	models.IssueCrisisSafety:       "hospital emergency room | crisis intervention center | 24 hour clinic",
	models.IssueGambling:           "gambling addiction support | Gamblers Anonymous",
	models.IssueAlcohol:            "alcohol recovery | Alcoholics Anonymous | addiction treatment",
	models.IssueDrugUse:            "drug addiction treatment | detox center | rehab center",
	models.IssueGeneralSupport:     "community center | social services | non-profit organization",
	models.IssueFinancialStress:    "credit counseling | debt relief service | food bank | legal aid",
	models.IssueRelationshipFamily: "marriage counselor | family counselor | relationship therapy",
	models.IssueGriefLoss:          "grief counseling | bereavement support | hospice care",
	models.IssueLoneliness:         "volunteer center | social club | community center",
	models.IssueUnknown:            "community health center",
}

// broadFallback lists issue types whose specific keywords often come back empty
// in smaller towns.
var broadFallback = map[models.IssueType]bool{
	models.IssueGambling:           true,
	models.IssueAlcohol:            true,
	models.IssueDrugUse:            true,
	models.IssueGriefLoss:          true,
	models.IssueRelationshipFamily: true,
	models.IssueLoneliness:         true,
}

// KeywordFor returns the primary search keyword for an issue type.
func KeywordFor(issue models.IssueType) string {
	if kw, ok := keywordByIssue[issue]; ok {
		return kw
	}
	return DefaultKeyword
}

// SearchTerms is the ordered list of keywords tried while results are empty:
// the primary keyword, then for broad-fallback issues "counseling" and the
// generic default.
func SearchTerms(issue models.IssueType) []string {
	terms := []string{KeywordFor(issue)}
	if broadFallback[issue] {
		terms = append(terms, BroadKeyword, DefaultKeyword)
	}
	return terms
}
