package fhir

import (
	"testing"
	"time"
)

func TestBuildConceptMap(t *testing.T) {
	rows := []MappingRow{
		{SourceCode: "AAE-16", SourceDisplay: "Jvara", TargetCode: "MG26", TargetDisplay: "Fever of other or unknown origin", Equivalence: "equal"},
		{SourceCode: "AAB-2", SourceDisplay: "Atisara", TargetCode: "ME05", TargetDisplay: "Diarrhoea"},
	}

	cm, err := BuildConceptMap(NAMASTEToICD11Meta(), rows, time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cm.ResourceType != "ConceptMap" || cm.Status != "active" {
		t.Errorf("unexpected resource metadata: %+v", cm)
	}
	if len(cm.Group) != 1 {
		t.Fatalf("expected 1 group, got %d", len(cm.Group))
	}

	group := cm.Group[0]
	if group.Source != "https://namaste.ayush.gov.in/ayurveda" || group.Target != "http://id.who.int/icd/release/11/mms" {
		t.Errorf("unexpected group systems: %+v", group)
	}
	if len(group.Element) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(group.Element))
	}
	if group.Element[0].Target[0].Equivalence != "equal" {
		t.Errorf("unexpected equivalence: %s", group.Element[0].Target[0].Equivalence)
	}
	// Missing equivalence falls back to relatedto.
	if group.Element[1].Target[0].Equivalence != "relatedto" {
		t.Errorf("expected relatedto fallback, got %s", group.Element[1].Target[0].Equivalence)
	}
}

func TestBuildConceptMapRejectsBadRows(t *testing.T) {
	if _, err := BuildConceptMap(NAMASTEToICD11Meta(), nil, time.Now()); err == nil {
		t.Error("expected error for empty rows")
	}
	if _, err := BuildConceptMap(NAMASTEToICD11Meta(), []MappingRow{{SourceCode: "A"}}, time.Now()); err == nil {
		t.Error("expected error for missing target code")
	}
}
