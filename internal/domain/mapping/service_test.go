package mapping

import (
	"context"
	"sort"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ayushbridge/bridge/internal/platform/icd"
)

// =========== Mocks ===========

type mockRepo struct {
	mappings []*CodeMapping
}

func (m *mockRepo) ListBySourceCode(_ context.Context, sourceCode string) ([]*CodeMapping, error) {
	var out []*CodeMapping
	for _, cm := range m.mappings {
		if cm.SourceCode == sourceCode {
			out = append(out, cm)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out, nil
}

func (m *mockRepo) ListAll(_ context.Context, limit, offset int) ([]*CodeMapping, error) {
	if offset >= len(m.mappings) {
		return nil, nil
	}
	end := offset + limit
	if end > len(m.mappings) {
		end = len(m.mappings)
	}
	return m.mappings[offset:end], nil
}

func (m *mockRepo) Upsert(_ context.Context, cm *CodeMapping) error {
	m.mappings = append(m.mappings, cm)
	return nil
}

func (m *mockRepo) DeleteAll(_ context.Context) error {
	m.mappings = nil
	return nil
}

type mockICD struct {
	results map[string][]icd.Entity
}

func (m *mockICD) Search(_ context.Context, query string, _ int) (*icd.SearchResult, error) {
	return &icd.SearchResult{DestinationEntities: m.results[query]}, nil
}

// =========== Tests ===========

func TestTranslateMapped(t *testing.T) {
	repo := &mockRepo{mappings: []*CodeMapping{
		{SourceCode: "AAE-16", SourceTerm: "Jvara", TargetCode: "MG26", TargetTerm: "Fever of other or unknown origin", Equivalence: EquivalenceEqual, Confidence: 85},
	}}
	svc := NewService(repo, nil, zerolog.Nop())

	params, err := svc.Translate(context.Background(), &TranslateRequest{Code: "AAE-16"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var result *bool
	matches := 0
	for _, p := range params.Parameter {
		switch p.Name {
		case "result":
			result = p.ValueBoolean
		case "match":
			matches++
			var equivalence, code string
			for _, part := range p.Part {
				if part.Name == "equivalence" {
					equivalence = part.ValueCode
				}
				if part.Name == "concept" && part.ValueCoding != nil {
					code = part.ValueCoding.Code
				}
			}
			if equivalence != EquivalenceEqual {
				t.Errorf("expected equivalence equal, got %s", equivalence)
			}
			if code != "MG26" {
				t.Errorf("expected target code MG26, got %s", code)
			}
		}
	}
	if result == nil || !*result {
		t.Error("expected result=true")
	}
	if matches != 1 {
		t.Errorf("expected 1 match, got %d", matches)
	}
}

func TestTranslateUnmapped(t *testing.T) {
	svc := NewService(&mockRepo{}, nil, zerolog.Nop())

	params, err := svc.Translate(context.Background(), &TranslateRequest{Code: "AAB-99"})
	if err != nil {
		t.Fatalf("unmapped code should not be an error: %v", err)
	}
	for _, p := range params.Parameter {
		if p.Name == "result" && p.ValueBoolean != nil && *p.ValueBoolean {
			t.Error("expected result=false for unmapped code")
		}
	}
}

func TestTranslateMissingCode(t *testing.T) {
	svc := NewService(&mockRepo{}, nil, zerolog.Nop())
	if _, err := svc.Translate(context.Background(), &TranslateRequest{}); err == nil {
		t.Fatal("expected error for missing code")
	}
}

func TestTranslateUnsupportedSystem(t *testing.T) {
	svc := NewService(&mockRepo{}, nil, zerolog.Nop())
	_, err := svc.Translate(context.Background(), &TranslateRequest{
		System: "http://snomed.info/sct",
		Code:   "AAE-16",
	})
	if err == nil {
		t.Fatal("expected error for non-NAMASTE source system")
	}
}

func TestBuild(t *testing.T) {
	repo := &mockRepo{mappings: []*CodeMapping{
		{SourceCode: "OLD-1", TargetCode: "X"},
	}}
	icdMock := &mockICD{results: map[string][]icd.Entity{
		"Jvara": {
			{TheCode: "MG26", Title: "Jvara"},
			{TheCode: "1A00", Title: "Typhoid fever"},
		},
		"Atisara": {
			{TheCode: "ZZ99", Title: "Completely unrelated term xyz"},
		},
	}}
	svc := NewService(repo, icdMock, zerolog.Nop())

	count, err := svc.Build(context.Background(), []SourceTerm{
		{Code: "AAE-16", Term: "Jvara"},
		{Code: "AAB-2", Term: "Atisara"},
		{Code: "", Term: "skipped"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Only the Jvara candidate clears the cutoff; the previous table is gone.
	if count != 1 {
		t.Fatalf("expected 1 mapping, got %d", count)
	}
	if len(repo.mappings) != 1 {
		t.Fatalf("expected repository to hold 1 mapping, got %d", len(repo.mappings))
	}

	m := repo.mappings[0]
	if m.SourceCode != "AAE-16" || m.TargetCode != "MG26" {
		t.Errorf("unexpected mapping: %+v", m)
	}
	if m.Confidence != 100 || m.Equivalence != EquivalenceEquivalent {
		t.Errorf("expected perfect-match grading, got confidence=%d equivalence=%s", m.Confidence, m.Equivalence)
	}
}

func TestBuildWithoutClient(t *testing.T) {
	svc := NewService(&mockRepo{}, nil, zerolog.Nop())
	if _, err := svc.Build(context.Background(), []SourceTerm{{Code: "A", Term: "a"}}); err == nil {
		t.Fatal("expected error when icd client is not configured")
	}
}

func TestConceptMapRows(t *testing.T) {
	repo := &mockRepo{mappings: []*CodeMapping{
		{SourceCode: "AAE-16", SourceTerm: "Jvara", TargetCode: "MG26", TargetTerm: "Fever", Equivalence: EquivalenceEqual},
		{SourceCode: "AAB-2", SourceTerm: "Atisara", TargetCode: "ME05", TargetTerm: "Diarrhoea", Equivalence: EquivalenceWider},
	}}
	svc := NewService(repo, nil, zerolog.Nop())

	rows, err := svc.ConceptMapRows(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].SourceCode != "AAE-16" || rows[0].Equivalence != EquivalenceEqual {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
}
