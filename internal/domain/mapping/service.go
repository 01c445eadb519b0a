package mapping

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ayushbridge/bridge/internal/domain/terminology"
	"github.com/ayushbridge/bridge/internal/platform/fhir"
	"github.com/ayushbridge/bridge/internal/platform/icd"
)

// ICDSearcher is the slice of the WHO ICD-11 client the mapping builder needs.
type ICDSearcher interface {
	Search(ctx context.Context, query string, limit int) (*icd.SearchResult, error)
}

// SourceTerm is one source-system concept fed to the mapping builder.
type SourceTerm struct {
	Code string
	Term string
}

// Service implements mapping lookup, FHIR $translate, and the fuzzy
// auto-mapping builder.
type Service struct {
	repo   Repository
	icd    ICDSearcher
	logger zerolog.Logger
}

// NewService creates a mapping service. The ICD searcher may be nil when the
// WHO API is not configured; Build then returns an error but lookup and
// translate still work against stored mappings.
func NewService(repo Repository, icdClient ICDSearcher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, icd: icdClient, logger: logger}
}

// ListForCode returns all stored mappings for a source code, best first.
func (s *Service) ListForCode(ctx context.Context, sourceCode string) ([]*CodeMapping, error) {
	sourceCode = strings.TrimSpace(sourceCode)
	if sourceCode == "" {
		return nil, fmt.Errorf("source code is required")
	}
	return s.repo.ListBySourceCode(ctx, sourceCode)
}

// BestMapping returns the highest-confidence mapping for a source code, or
// nil when the code is unmapped.
func (s *Service) BestMapping(ctx context.Context, sourceCode string) (*CodeMapping, error) {
	mappings, err := s.ListForCode(ctx, sourceCode)
	if err != nil {
		return nil, err
	}
	if len(mappings) == 0 {
		return nil, nil
	}
	return mappings[0], nil
}

// Translate implements the FHIR ConceptMap $translate operation. An unmapped
// code is a successful result=false response, not an error.
func (s *Service) Translate(ctx context.Context, req *TranslateRequest) (*fhir.Parameters, error) {
	if req.Code == "" {
		return nil, fmt.Errorf("code is required")
	}
	if req.System != "" &&
		req.System != terminology.SystemNAMASTE && req.System != terminology.URINAMASTE {
		return nil, fmt.Errorf("unsupported source system %q", req.System)
	}

	mappings, err := s.repo.ListBySourceCode(ctx, strings.TrimSpace(req.Code))
	if err != nil {
		return nil, fmt.Errorf("translate %s: %w", req.Code, err)
	}

	result := len(mappings) > 0
	params := []fhir.Parameter{
		{Name: "result", ValueBoolean: &result},
	}
	if !result {
		params = append(params, fhir.Parameter{
			Name:        "message",
			ValueString: fmt.Sprintf("no mapping found for code '%s'", req.Code),
		})
	}
	for _, m := range mappings {
		params = append(params, fhir.Parameter{
			Name: "match",
			Part: []fhir.Parameter{
				{Name: "equivalence", ValueCode: m.Equivalence},
				{Name: "concept", ValueCoding: &fhir.Coding{
					System:  terminology.URIICD11Bio,
					Code:    m.TargetCode,
					Display: m.TargetTerm,
				}},
			},
		})
	}
	return fhir.NewParameters(params...), nil
}

// Build regenerates the mapping table. For every source term it searches the
// WHO ICD-11 API, scores each candidate title with TokenSortRatio, and stores
// the best candidate at or above ScoreCutoff. Existing mappings are replaced.
// Returns the number of mappings written.
func (s *Service) Build(ctx context.Context, sources []SourceTerm) (int, error) {
	if s.icd == nil {
		return 0, fmt.Errorf("icd client not configured; set ICD_CLIENT_ID and ICD_CLIENT_SECRET")
	}
	if len(sources) == 0 {
		return 0, fmt.Errorf("no source terms to map")
	}

	if err := s.repo.DeleteAll(ctx); err != nil {
		return 0, err
	}

	written := 0
	for _, src := range sources {
		if src.Code == "" || src.Term == "" {
			continue
		}

		result, err := s.icd.Search(ctx, src.Term, 10)
		if err != nil {
			// One bad upstream response should not abandon the whole run.
			s.logger.Warn().Err(err).Str("term", src.Term).Msg("icd search failed, skipping term")
			continue
		}

		best, score := bestCandidate(src.Term, result.DestinationEntities)
		if best == nil || score < ScoreCutoff {
			continue
		}

		m := &CodeMapping{
			SourceCode:  src.Code,
			SourceTerm:  src.Term,
			TargetCode:  best.TheCode,
			TargetTerm:  best.Title,
			Equivalence: EquivalenceForScore(score),
			Confidence:  score,
		}
		if err := s.repo.Upsert(ctx, m); err != nil {
			return written, fmt.Errorf("store mapping for %s: %w", src.Code, err)
		}
		written++

		s.logger.Debug().
			Str("source_code", src.Code).
			Str("target_code", best.TheCode).
			Int("confidence", score).
			Msg("mapped term")
	}

	s.logger.Info().Int("mappings", written).Int("terms", len(sources)).Msg("mapping build complete")
	return written, nil
}

func bestCandidate(term string, candidates []icd.Entity) (*icd.Entity, int) {
	var best *icd.Entity
	bestScore := -1
	for i := range candidates {
		c := &candidates[i]
		if c.Title == "" || c.TheCode == "" {
			continue
		}
		score := TokenSortRatio(term, c.Title)
		if score > bestScore {
			best = c
			bestScore = score
		}
	}
	return best, bestScore
}

// ConceptMapRows converts stored mappings into rows for the ConceptMap
// artifact builder.
func (s *Service) ConceptMapRows(ctx context.Context) ([]fhir.MappingRow, error) {
	const page = 500
	var rows []fhir.MappingRow
	for offset := 0; ; offset += page {
		mappings, err := s.repo.ListAll(ctx, page, offset)
		if err != nil {
			return nil, err
		}
		for _, m := range mappings {
			rows = append(rows, fhir.MappingRow{
				SourceCode:    m.SourceCode,
				SourceDisplay: m.SourceTerm,
				TargetCode:    m.TargetCode,
				TargetDisplay: m.TargetTerm,
				Equivalence:   m.Equivalence,
			})
		}
		if len(mappings) < page {
			break
		}
	}
	return rows, nil
}
