package terminology

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ayushbridge/bridge/internal/platform/fhir"
)

// Validation errors returned by Search. Handlers map these to 400 responses,
// keeping them distinct from an empty (successful) result.
var (
	ErrEmptyQuery    = errors.New("query must not be empty")
	ErrUnknownSystem = errors.New("unknown system")
)

const (
	builtinDefaultLimit = 20
	maxLimit            = 100

	// The repository is asked for more candidates than the caller's limit so
	// that ranking happens over the full substring-match set rather than an
	// arbitrary prefix of it.
	candidateLimit = 500
)

// Service implements terminology search and the FHIR CodeSystem operations.
type Service struct {
	concepts     ConceptRepository
	defaultLimit int
}

// NewService creates a terminology service over the given repository.
// defaultLimit caps search results when a request does not name its own
// limit; values outside [1, maxLimit] fall back to the built-in default.
func NewService(concepts ConceptRepository, defaultLimit int) *Service {
	if defaultLimit <= 0 || defaultLimit > maxLimit {
		defaultLimit = builtinDefaultLimit
	}
	return &Service{concepts: concepts, defaultLimit: defaultLimit}
}

// Search runs a free-text concept search. The query must be non-empty after
// trimming and every entry in req.Systems must be a known identifier; an
// empty Systems slice searches all systems. Results are ranked exact match
// first, then prefix, then substring, with ties broken on display and code so
// identical input always yields identical output.
func (s *Service) Search(ctx context.Context, req SearchRequest) ([]*Concept, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	systems, err := normalizeSystems(req.Systems)
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	candidates, err := s.concepts.Search(ctx, systems, query, candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("search concepts: %w", err)
	}

	rankConcepts(candidates, query)
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	if candidates == nil {
		candidates = []*Concept{}
	}
	return candidates, nil
}

// normalizeSystems validates and deduplicates the requested system filter.
func normalizeSystems(systems []string) ([]string, error) {
	if len(systems) == 0 {
		return nil, nil
	}
	seen := make(map[string]bool, len(systems))
	var out []string
	for _, id := range systems {
		id = strings.TrimSpace(id)
		if !KnownSystem(id) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSystem, id)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

// Match rank classes, in order of relevance.
const (
	rankExact = iota
	rankPrefix
	rankSubstring
)

func rankClass(c *Concept, query string) int {
	display := strings.ToLower(c.Display)
	code := strings.ToLower(c.Code)
	switch {
	case display == query || code == query:
		return rankExact
	case strings.HasPrefix(display, query) || strings.HasPrefix(code, query):
		return rankPrefix
	default:
		return rankSubstring
	}
}

// rankConcepts orders candidates by match class, then case-insensitive
// display, then code, then system.
func rankConcepts(concepts []*Concept, query string) {
	q := strings.ToLower(strings.TrimSpace(query))
	sort.SliceStable(concepts, func(i, j int) bool {
		ri, rj := rankClass(concepts[i], q), rankClass(concepts[j], q)
		if ri != rj {
			return ri < rj
		}
		di, dj := strings.ToLower(concepts[i].Display), strings.ToLower(concepts[j].Display)
		if di != dj {
			return di < dj
		}
		if concepts[i].Code != concepts[j].Code {
			return concepts[i].Code < concepts[j].Code
		}
		return concepts[i].System < concepts[j].System
	})
}

// resolveSystem accepts either a system identifier or a canonical URI.
func resolveSystem(system string) (string, error) {
	if KnownSystem(system) {
		return system, nil
	}
	if id := SystemForURI(system); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSystem, system)
}

// Lookup implements the FHIR CodeSystem $lookup operation.
func (s *Service) Lookup(ctx context.Context, req *LookupRequest) (*fhir.Parameters, error) {
	if req.System == "" {
		return nil, fmt.Errorf("system is required")
	}
	if req.Code == "" {
		return nil, fmt.Errorf("code is required")
	}
	system, err := resolveSystem(req.System)
	if err != nil {
		return nil, err
	}

	concept, err := s.concepts.GetByCode(ctx, system, req.Code)
	if err != nil {
		return nil, fmt.Errorf("code not found in %s: %s", system, req.Code)
	}

	params := []fhir.Parameter{
		{Name: "name", ValueString: system},
		{Name: "display", ValueString: concept.Display},
	}
	if concept.Definition != "" {
		params = append(params, fhir.Parameter{Name: "definition", ValueString: concept.Definition})
	}
	return fhir.NewParameters(params...), nil
}

// ValidateCode implements the FHIR CodeSystem $validate-code operation.
func (s *Service) ValidateCode(ctx context.Context, req *ValidateCodeRequest) (*fhir.Parameters, error) {
	if req.System == "" {
		return nil, fmt.Errorf("system is required")
	}
	if req.Code == "" {
		return nil, fmt.Errorf("code is required")
	}
	system, err := resolveSystem(req.System)
	if err != nil {
		return nil, err
	}

	concept, err := s.concepts.GetByCode(ctx, system, req.Code)
	found := err == nil
	if found && req.Display != "" && !strings.EqualFold(req.Display, concept.Display) {
		found = false
	}

	result := found
	params := []fhir.Parameter{
		{Name: "result", ValueBoolean: &result},
	}
	if found {
		params = append(params, fhir.Parameter{Name: "display", ValueString: concept.Display})
	} else {
		params = append(params, fhir.Parameter{
			Name:        "message",
			ValueString: fmt.Sprintf("code '%s' not found in system '%s'", req.Code, system),
		})
	}
	return fhir.NewParameters(params...), nil
}

// Expand returns a page of concepts matching filter within one system, for
// the ValueSet $expand operation. An empty filter expands the whole system in
// candidate order.
func (s *Service) Expand(ctx context.Context, system, filter string, count, offset int) ([]*Concept, error) {
	system, err := resolveSystem(system)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		count = maxLimit
	}
	if offset < 0 {
		offset = 0
	}

	var matches []*Concept
	if strings.TrimSpace(filter) == "" {
		matches, err = s.concepts.Search(ctx, []string{system}, "", candidateLimit)
		if err != nil {
			return nil, fmt.Errorf("expand concepts: %w", err)
		}
	} else {
		matches, err = s.Search(ctx, SearchRequest{Query: filter, Systems: []string{system}, Limit: maxLimit})
		if err != nil {
			return nil, err
		}
	}
	if offset >= len(matches) {
		return []*Concept{}, nil
	}
	matches = matches[offset:]
	if len(matches) > count {
		matches = matches[:count]
	}
	return matches, nil
}
