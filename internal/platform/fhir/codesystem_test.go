package fhir

import (
	"testing"
	"time"
)

func TestBuildCodeSystemHierarchy(t *testing.T) {
	rows := []ConceptRow{
		{Code: "AAC", Display: "Vata disorders"},
		{Code: "AAC-2", Display: "Vatavyadhi", Definition: "Disorder of vata dosha"},
		{Code: "AAC-2-1", Display: "Pakshaghata"},
		{Code: "AAE-16", Display: "Jvara"},
	}

	cs, err := BuildCodeSystem(NAMASTEMeta(), rows, time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cs.ResourceType != "CodeSystem" || cs.Status != "active" || cs.Content != "complete" {
		t.Errorf("unexpected resource metadata: %+v", cs)
	}
	if cs.URL != "https://namaste.ayush.gov.in/ayurveda" {
		t.Errorf("unexpected url: %s", cs.URL)
	}

	// AAC-2 nests under AAC, AAC-2-1 under AAC-2, AAE-16 at root.
	if len(cs.Concept) != 2 {
		t.Fatalf("expected 2 root concepts, got %d", len(cs.Concept))
	}
	root := cs.Concept[0]
	if root.Code != "AAC" || len(root.Concept) != 1 {
		t.Fatalf("expected AAC with one child, got %+v", root)
	}
	child := root.Concept[0]
	if child.Code != "AAC-2" || child.Definition != "Disorder of vata dosha" {
		t.Errorf("unexpected child: %+v", child)
	}
	if len(child.Concept) != 1 || child.Concept[0].Code != "AAC-2-1" {
		t.Errorf("expected AAC-2-1 nested under AAC-2, got %+v", child.Concept)
	}
	if cs.Concept[1].Code != "AAE-16" {
		t.Errorf("expected AAE-16 at root, got %s", cs.Concept[1].Code)
	}
}

func TestBuildCodeSystemOrphanPrefix(t *testing.T) {
	// A hyphenated code without a matching parent stays at the root.
	cs, err := BuildCodeSystem(NAMASTEMeta(), []ConceptRow{{Code: "XYZ-9", Display: "Orphan"}}, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cs.Concept) != 1 || cs.Concept[0].Code != "XYZ-9" {
		t.Errorf("expected orphan at root, got %+v", cs.Concept)
	}
}

func TestBuildCodeSystemRejectsBadRows(t *testing.T) {
	if _, err := BuildCodeSystem(NAMASTEMeta(), nil, time.Now()); err == nil {
		t.Error("expected error for empty rows")
	}
	if _, err := BuildCodeSystem(NAMASTEMeta(), []ConceptRow{{Code: "", Display: "x"}}, time.Now()); err == nil {
		t.Error("expected error for missing code")
	}
	if _, err := BuildCodeSystem(NAMASTEMeta(), []ConceptRow{{Code: "A", Display: "  "}}, time.Now()); err == nil {
		t.Error("expected error for blank display")
	}
}
