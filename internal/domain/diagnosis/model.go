package diagnosis

import (
	"fmt"
	"time"

	"github.com/ayushbridge/bridge/internal/domain/terminology"
	"github.com/ayushbridge/bridge/internal/platform/fhir"
)

// Terminology system URIs used on stored condition codings.
const (
	ClinicalStatusSystem     = "http://terminology.hl7.org/CodeSystem/condition-clinical"
	VerificationStatusSystem = "http://terminology.hl7.org/CodeSystem/condition-ver-status"
	LOINCSystem              = "http://loinc.org"
)

// LOINC code carried on generated diagnostic reports.
const ReportLOINCCode = "11526-1"

// RecordInput is the body of POST /record-diagnosis.
type RecordInput struct {
	PatientID          string `json:"patient_id"`
	Code               string `json:"code"`
	Display            string `json:"display,omitempty"`
	ClinicalStatus     string `json:"clinical_status,omitempty"`
	VerificationStatus string `json:"verification_status,omitempty"`
	Note               string `json:"note,omitempty"`
}

// Record is a stored diagnosis: a NAMASTE coding plus, when a mapping exists,
// the equivalent ICD-11 coding.
type Record struct {
	ID                 string    `db:"id" json:"id"`
	PatientID          string    `db:"patient_id" json:"patient_id"`
	NAMASTECode        string    `db:"namaste_code" json:"namaste_code"`
	NAMASTEDisplay     string    `db:"namaste_display" json:"namaste_display"`
	ICDCode            string    `db:"icd_code" json:"icd_code,omitempty"`
	ICDDisplay         string    `db:"icd_display" json:"icd_display,omitempty"`
	ClinicalStatus     string    `db:"clinical_status" json:"clinical_status"`
	VerificationStatus string    `db:"verification_status" json:"verification_status"`
	Note               string    `db:"note" json:"note,omitempty"`
	RecordedAt         time.Time `db:"recorded_at" json:"recorded_at"`
}

// ReportInput is the body of POST /api/v1/diagnostic-reports.
type ReportInput struct {
	PatientID    string   `json:"patient_id"`
	DiagnosisIDs []string `json:"diagnosis_ids"`
	Conclusion   string   `json:"conclusion,omitempty"`
}

var clinicalStatuses = map[string]string{
	"active":     "Active",
	"recurrence": "Recurrence",
	"relapse":    "Relapse",
	"inactive":   "Inactive",
	"remission":  "Remission",
	"resolved":   "Resolved",
}

var verificationStatuses = map[string]string{
	"unconfirmed":      "Unconfirmed",
	"provisional":      "Provisional",
	"differential":     "Differential",
	"confirmed":        "Confirmed",
	"refuted":          "Refuted",
	"entered-in-error": "Entered in Error",
}

// Normalize applies defaults and checks status codes against the FHIR
// condition status value sets.
func (in *RecordInput) Normalize() error {
	if in.PatientID == "" {
		return fmt.Errorf("patient_id is required")
	}
	if in.Code == "" {
		return fmt.Errorf("code is required")
	}
	if in.ClinicalStatus == "" {
		in.ClinicalStatus = "active"
	}
	if in.VerificationStatus == "" {
		in.VerificationStatus = "confirmed"
	}
	if _, ok := clinicalStatuses[in.ClinicalStatus]; !ok {
		return fmt.Errorf("invalid clinical_status '%s'", in.ClinicalStatus)
	}
	if _, ok := verificationStatuses[in.VerificationStatus]; !ok {
		return fmt.Errorf("invalid verification_status '%s'", in.VerificationStatus)
	}
	return nil
}

// ToFHIR renders the record as a FHIR R4 Condition resource.
func (r *Record) ToFHIR() map[string]interface{} {
	codings := []fhir.Coding{
		{
			System:  terminology.URINAMASTE,
			Code:    r.NAMASTECode,
			Display: r.NAMASTEDisplay,
		},
	}
	if r.ICDCode != "" {
		codings = append(codings, fhir.Coding{
			System:  terminology.URIICD11Bio,
			Code:    r.ICDCode,
			Display: r.ICDDisplay,
		})
	}

	cond := map[string]interface{}{
		"resourceType": "Condition",
		"id":           r.ID,
		"clinicalStatus": fhir.CodeableConcept{
			Coding: []fhir.Coding{{
				System:  ClinicalStatusSystem,
				Code:    r.ClinicalStatus,
				Display: clinicalStatuses[r.ClinicalStatus],
			}},
		},
		"verificationStatus": fhir.CodeableConcept{
			Coding: []fhir.Coding{{
				System:  VerificationStatusSystem,
				Code:    r.VerificationStatus,
				Display: verificationStatuses[r.VerificationStatus],
			}},
		},
		"code": fhir.CodeableConcept{
			Coding: codings,
			Text:   r.NAMASTEDisplay,
		},
		"subject": fhir.Reference{
			Reference: fhir.FormatReference("Patient", r.PatientID),
		},
		"recordedDate": r.RecordedAt.UTC().Format(time.RFC3339),
	}
	if r.Note != "" {
		cond["note"] = []map[string]string{{"text": r.Note}}
	}
	return cond
}
