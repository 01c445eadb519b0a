package mapping

import "time"

// CodeMapping is one NAMASTE-to-ICD-11 mapping row.
type CodeMapping struct {
	ID          int64     `db:"id" json:"id"`
	SourceCode  string    `db:"source_code" json:"source_code"`
	SourceTerm  string    `db:"source_term" json:"source_term"`
	TargetCode  string    `db:"target_code" json:"target_code"`
	TargetTerm  string    `db:"target_term" json:"target_term"`
	Equivalence string    `db:"equivalence" json:"equivalence"`
	Confidence  int       `db:"confidence" json:"confidence"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TranslateRequest represents a FHIR ConceptMap $translate request.
type TranslateRequest struct {
	System string `json:"system"`
	Code   string `json:"code"`
}

// Equivalence codes assigned by confidence score, following the FHIR
// concept-map-equivalence value set.
const (
	EquivalenceEquivalent = "equivalent"
	EquivalenceEqual      = "equal"
	EquivalenceWider      = "wider"
	EquivalenceRelatedTo  = "relatedto"
)

// Candidate pairs below this similarity score are not mapped at all.
const ScoreCutoff = 60

// EquivalenceForScore grades a similarity score (0-100) into a FHIR
// equivalence code.
func EquivalenceForScore(score int) string {
	switch {
	case score >= 95:
		return EquivalenceEquivalent
	case score >= 80:
		return EquivalenceEqual
	case score >= ScoreCutoff:
		return EquivalenceWider
	default:
		return EquivalenceRelatedTo
	}
}
