package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ayushbridge/bridge/internal/domain/mapping"
	"github.com/ayushbridge/bridge/internal/domain/terminology"
	"github.com/ayushbridge/bridge/internal/platform/fhir"
)

// Service records dual-coded diagnoses and assembles diagnostic reports.
type Service struct {
	repo     Repository
	concepts terminology.ConceptRepository
	mappings mapping.Repository
}

// NewService creates a diagnosis service.
func NewService(repo Repository, concepts terminology.ConceptRepository, mappings mapping.Repository) *Service {
	return &Service{repo: repo, concepts: concepts, mappings: mappings}
}

// Record validates the input, resolves the NAMASTE term, attaches the best
// ICD-11 mapping when one exists, and stores the diagnosis.
func (s *Service) Record(ctx context.Context, in *RecordInput) (*Record, error) {
	if err := in.Normalize(); err != nil {
		return nil, err
	}

	display := in.Display
	concept, err := s.concepts.GetByCode(ctx, terminology.SystemNAMASTE, in.Code)
	if err != nil {
		if !errors.Is(err, terminology.ErrNotFound) {
			return nil, fmt.Errorf("resolve code %s: %w", in.Code, err)
		}
		if display == "" {
			return nil, fmt.Errorf("unknown NAMASTE code '%s'", in.Code)
		}
	} else if display == "" {
		display = concept.Display
	}

	rec := &Record{
		ID:                 uuid.New().String(),
		PatientID:          in.PatientID,
		NAMASTECode:        in.Code,
		NAMASTEDisplay:     display,
		ClinicalStatus:     in.ClinicalStatus,
		VerificationStatus: in.VerificationStatus,
		Note:               in.Note,
		RecordedAt:         time.Now().UTC(),
	}

	mapped, err := s.mappings.ListBySourceCode(ctx, in.Code)
	if err != nil {
		return nil, fmt.Errorf("lookup mapping for %s: %w", in.Code, err)
	}
	if len(mapped) > 0 {
		rec.ICDCode = mapped[0].TargetCode
		rec.ICDDisplay = mapped[0].TargetTerm
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Get returns a stored diagnosis by id.
func (s *Service) Get(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}
	return s.repo.GetByID(ctx, id)
}

// ListByPatient returns a patient's diagnoses, newest first.
func (s *Service) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Record, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

// BuildReport assembles a FHIR DiagnosticReport over previously recorded
// diagnoses. Every referenced diagnosis must exist and belong to the patient.
func (s *Service) BuildReport(ctx context.Context, in *ReportInput) (map[string]interface{}, error) {
	if in.PatientID == "" {
		return nil, fmt.Errorf("patient_id is required")
	}
	if len(in.DiagnosisIDs) == 0 {
		return nil, fmt.Errorf("diagnosis_ids is required")
	}

	var results []fhir.Reference
	for _, id := range in.DiagnosisIDs {
		rec, err := s.repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("unknown diagnosis '%s'", id)
			}
			return nil, err
		}
		if rec.PatientID != in.PatientID {
			return nil, fmt.Errorf("diagnosis '%s' does not belong to patient '%s'", id, in.PatientID)
		}
		results = append(results, fhir.Reference{
			Reference: fhir.FormatReference("Condition", rec.ID),
			Display:   rec.NAMASTEDisplay,
		})
	}

	report := map[string]interface{}{
		"resourceType": "DiagnosticReport",
		"id":           uuid.New().String(),
		"status":       "final",
		"code": fhir.CodeableConcept{
			Coding: []fhir.Coding{{
				System:  LOINCSystem,
				Code:    ReportLOINCCode,
				Display: "Pathology study",
			}},
		},
		"subject": fhir.Reference{
			Reference: fhir.FormatReference("Patient", in.PatientID),
		},
		"effectiveDateTime": time.Now().UTC().Format(time.RFC3339),
		"result":            results,
	}
	if in.Conclusion != "" {
		report["conclusion"] = in.Conclusion
	}
	return report, nil
}
