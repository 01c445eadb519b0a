package terminology

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// memRepo is an in-memory concept repository. It backs development mode and
// the artifacts CLI, where the NAMASTE export CSV is the source of truth and
// no database is involved.
type memRepo struct {
	concepts []*Concept
	byKey    map[string]*Concept // system + "|" + code
}

// NewMemoryRepo creates an in-memory repository over a fixed concept set.
// Concepts are held sorted by display then code so candidate order is stable.
func NewMemoryRepo(concepts []*Concept) ConceptRepository {
	sorted := make([]*Concept, len(concepts))
	copy(sorted, concepts)
	sort.Slice(sorted, func(i, j int) bool {
		di, dj := strings.ToLower(sorted[i].Display), strings.ToLower(sorted[j].Display)
		if di != dj {
			return di < dj
		}
		return sorted[i].Code < sorted[j].Code
	})

	byKey := make(map[string]*Concept, len(sorted))
	for _, c := range sorted {
		byKey[c.System+"|"+c.Code] = c
	}
	return &memRepo{concepts: sorted, byKey: byKey}
}

func (r *memRepo) Search(_ context.Context, systems []string, query string, limit int) ([]*Concept, error) {
	if limit <= 0 {
		limit = 20
	}
	wanted := make(map[string]bool, len(systems))
	for _, s := range systems {
		wanted[s] = true
	}

	q := strings.ToLower(query)
	var results []*Concept
	for _, c := range r.concepts {
		if len(wanted) > 0 && !wanted[c.System] {
			continue
		}
		if strings.Contains(strings.ToLower(c.Code), q) ||
			strings.Contains(strings.ToLower(c.Display), q) {
			results = append(results, c)
			if len(results) >= limit {
				break
			}
		}
	}
	return results, nil
}

func (r *memRepo) GetByCode(_ context.Context, system, code string) (*Concept, error) {
	c, ok := r.byKey[system+"|"+code]
	if !ok {
		return nil, ErrNotFound
	}
	return c, nil
}

// NAMASTE morbidity export column headers.
const (
	namasteCodeColumn       = "NAMC_CODE"
	namasteTermColumn       = "NAMC_term"
	namasteDefinitionColumn = "Long_definition"
)

// LoadNAMASTECSV reads the NAMASTE morbidity-code export and returns its rows
// as concepts owned by the NAMASTE system. Rows with an empty code or term
// are skipped.
func LoadNAMASTECSV(path string) ([]*Concept, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open namaste csv: %w", err)
	}
	defer f.Close()
	return ReadNAMASTECSV(f)
}

// ReadNAMASTECSV parses NAMASTE concepts from CSV data. The first record must
// be a header naming at least the NAMC_CODE and NAMC_term columns.
func ReadNAMASTECSV(r io.Reader) ([]*Concept, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read namaste csv header: %w", err)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	codeIdx, ok := col[namasteCodeColumn]
	if !ok {
		return nil, fmt.Errorf("namaste csv missing %s column", namasteCodeColumn)
	}
	termIdx, ok := col[namasteTermColumn]
	if !ok {
		return nil, fmt.Errorf("namaste csv missing %s column", namasteTermColumn)
	}
	defIdx, hasDef := col[namasteDefinitionColumn]

	var concepts []*Concept
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read namaste csv row: %w", err)
		}

		code := fieldAt(record, codeIdx)
		term := fieldAt(record, termIdx)
		if code == "" || term == "" {
			continue
		}

		concept := &Concept{
			Code:    code,
			Display: term,
			System:  SystemNAMASTE,
		}
		if hasDef {
			concept.Definition = fieldAt(record, defIdx)
		}
		concepts = append(concepts, concept)
	}
	return concepts, nil
}

func fieldAt(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
