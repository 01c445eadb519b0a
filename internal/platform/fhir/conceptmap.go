package fhir

import (
	"fmt"
	"time"
)

// ConceptMap represents a FHIR ConceptMap resource.
type ConceptMap struct {
	ResourceType string            `json:"resourceType"`
	ID           string            `json:"id"`
	URL          string            `json:"url"`
	Version      string            `json:"version,omitempty"`
	Status       string            `json:"status"`
	Date         string            `json:"date,omitempty"`
	SourceURI    string            `json:"sourceUri,omitempty"`
	TargetURI    string            `json:"targetUri,omitempty"`
	Group        []ConceptMapGroup `json:"group"`
}

// ConceptMapGroup maps codes between one source and one target system.
type ConceptMapGroup struct {
	Source  string              `json:"source"`
	Target  string              `json:"target"`
	Element []ConceptMapElement `json:"element"`
}

// ConceptMapElement maps a single source code to its targets.
type ConceptMapElement struct {
	Code    string             `json:"code"`
	Display string             `json:"display,omitempty"`
	Target  []ConceptMapTarget `json:"target"`
}

// ConceptMapTarget is one mapped target code with its equivalence.
type ConceptMapTarget struct {
	Code        string `json:"code"`
	Display     string `json:"display,omitempty"`
	Equivalence string `json:"equivalence"`
}

// MappingRow is one flat source-to-target mapping used to build a ConceptMap.
type MappingRow struct {
	SourceCode    string
	SourceDisplay string
	TargetCode    string
	TargetDisplay string
	Equivalence   string
}

// ConceptMapMeta holds the fixed metadata for a generated concept map.
type ConceptMapMeta struct {
	ID           string
	URL          string
	Version      string
	SourceSystem string
	TargetSystem string
}

// NAMASTEToICD11Meta is the metadata for the NAMASTE to ICD-11 TM2 map.
func NAMASTEToICD11Meta() ConceptMapMeta {
	return ConceptMapMeta{
		ID:           "namaste-ayurveda-to-icd11-tm2",
		URL:          "https://namaste.ayush.gov.in/fhir/ConceptMap/namaste-to-icd11",
		Version:      "1.0.0",
		SourceSystem: "https://namaste.ayush.gov.in/ayurveda",
		TargetSystem: "http://id.who.int/icd/release/11/mms",
	}
}

// BuildConceptMap assembles a ConceptMap from flat mapping rows. An empty
// equivalence falls back to "relatedto".
func BuildConceptMap(meta ConceptMapMeta, rows []MappingRow, now time.Time) (*ConceptMap, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("no mapping rows to build concept map %q", meta.ID)
	}

	group := ConceptMapGroup{
		Source: meta.SourceSystem,
		Target: meta.TargetSystem,
	}
	for i, row := range rows {
		if row.SourceCode == "" || row.TargetCode == "" {
			return nil, fmt.Errorf("row %d: source and target codes are required", i)
		}
		equivalence := row.Equivalence
		if equivalence == "" {
			equivalence = "relatedto"
		}
		group.Element = append(group.Element, ConceptMapElement{
			Code:    row.SourceCode,
			Display: row.SourceDisplay,
			Target: []ConceptMapTarget{{
				Code:        row.TargetCode,
				Display:     row.TargetDisplay,
				Equivalence: equivalence,
			}},
		})
	}

	return &ConceptMap{
		ResourceType: "ConceptMap",
		ID:           meta.ID,
		URL:          meta.URL,
		Version:      meta.Version,
		Status:       "active",
		Date:         now.Format(time.RFC3339),
		SourceURI:    meta.SourceSystem,
		TargetURI:    meta.TargetSystem,
		Group:        []ConceptMapGroup{group},
	}, nil
}
