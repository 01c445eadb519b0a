package fhir

import (
	"fmt"
	"strings"
	"time"
)

// CodeSystem represents a FHIR CodeSystem resource.
type CodeSystem struct {
	ResourceType  string              `json:"resourceType"`
	ID            string              `json:"id"`
	URL           string              `json:"url"`
	Version       string              `json:"version,omitempty"`
	Name          string              `json:"name,omitempty"`
	Title         string              `json:"title,omitempty"`
	Status        string              `json:"status"`
	Experimental  bool                `json:"experimental"`
	Date          string              `json:"date,omitempty"`
	Publisher     string              `json:"publisher,omitempty"`
	Description   string              `json:"description,omitempty"`
	CaseSensitive bool                `json:"caseSensitive"`
	Content       string              `json:"content"`
	Concept       []CodeSystemConcept `json:"concept,omitempty"`
}

// CodeSystemConcept is a single concept definition, possibly with children.
type CodeSystemConcept struct {
	Code       string              `json:"code"`
	Display    string              `json:"display"`
	Definition string              `json:"definition,omitempty"`
	Concept    []CodeSystemConcept `json:"concept,omitempty"`
}

// CodeSystemMeta holds the fixed metadata for a generated code system.
type CodeSystemMeta struct {
	ID        string
	URL       string
	Version   string
	Name      string
	Title     string
	Publisher string
}

// NAMASTEMeta is the metadata for the National Ayurveda Morbidity Codes system.
func NAMASTEMeta() CodeSystemMeta {
	return CodeSystemMeta{
		ID:        "namaste-ayurveda-codes",
		URL:       "https://namaste.ayush.gov.in/ayurveda",
		Version:   "1.0.0",
		Name:      "NAMASTE",
		Title:     "National Ayurveda Morbidity Codes (NAMASTE)",
		Publisher: "Ministry of Ayush, Government of India",
	}
}

// ConceptRow is one flat code/display/definition row used to build a CodeSystem.
type ConceptRow struct {
	Code       string
	Display    string
	Definition string
}

// BuildCodeSystem assembles a complete CodeSystem from flat rows. Codes with a
// hyphenated prefix matching an earlier code are nested under that parent
// (e.g. "AAC-2" under "AAC"). Rows with an empty code or display are rejected.
func BuildCodeSystem(meta CodeSystemMeta, rows []ConceptRow, now time.Time) (*CodeSystem, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no concept rows to build code system %q", meta.ID)
	}

	var roots []CodeSystemConcept
	for i, row := range rows {
		code := strings.TrimSpace(row.Code)
		display := strings.TrimSpace(row.Display)
		if code == "" {
			return nil, fmt.Errorf("row %d: missing code", i)
		}
		if display == "" {
			return nil, fmt.Errorf("row %d (%s): missing display", i, code)
		}
		concept := CodeSystemConcept{
			Code:       code,
			Display:    display,
			Definition: strings.TrimSpace(row.Definition),
		}
		insertConcept(&roots, concept)
	}

	return &CodeSystem{
		ResourceType:  "CodeSystem",
		ID:            meta.ID,
		URL:           meta.URL,
		Version:       meta.Version,
		Name:          meta.Name,
		Title:         meta.Title,
		Status:        "active",
		Experimental:  false,
		Date:          now.Format(time.RFC3339),
		Publisher:     meta.Publisher,
		Description:   "This code system defines the National Ayurveda Morbidity Codes (NAMASTE) for documenting clinical conditions in Ayurveda",
		CaseSensitive: true,
		Content:       "complete",
		Concept:       roots,
	}, nil
}

// insertConcept places a concept under its hyphen-prefix parent when one
// exists, otherwise at the root level.
func insertConcept(roots *[]CodeSystemConcept, concept CodeSystemConcept) {
	if idx := strings.LastIndex(concept.Code, "-"); idx > 0 {
		parentCode := concept.Code[:idx]
		if parent := findConcept(*roots, parentCode); parent != nil {
			parent.Concept = append(parent.Concept, concept)
			return
		}
	}
	*roots = append(*roots, concept)
}

func findConcept(concepts []CodeSystemConcept, code string) *CodeSystemConcept {
	for i := range concepts {
		if concepts[i].Code == code {
			return &concepts[i]
		}
		if found := findConcept(concepts[i].Concept, code); found != nil {
			return found
		}
	}
	return nil
}
