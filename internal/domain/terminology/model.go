package terminology

// Concept is a single coded term within a terminology system.
type Concept struct {
	Code       string `db:"code" json:"code"`
	Display    string `db:"display" json:"display"`
	Definition string `db:"definition" json:"definition"`
	System     string `db:"system" json:"system"`
}

// SearchRequest is the body of POST /terminology/search. An empty Systems
// slice means "search all systems".
type SearchRequest struct {
	Query   string   `json:"query"`
	Systems []string `json:"systems"`
	Limit   int      `json:"limit"`
}

// LookupRequest represents a FHIR CodeSystem $lookup request.
type LookupRequest struct {
	System string `json:"system"`
	Code   string `json:"code"`
}

// ValidateCodeRequest represents a FHIR CodeSystem $validate-code request.
type ValidateCodeRequest struct {
	System  string `json:"system"`
	Code    string `json:"code"`
	Display string `json:"display,omitempty"`
}

// System identifiers accepted in search requests.
const (
	SystemNAMASTE  = "NAMASTE"
	SystemICD11TM2 = "ICD11-TM2"
	SystemICD11Bio = "ICD11-BIO"
)

// Canonical URIs for the supported code systems.
const (
	URINAMASTE  = "https://namaste.ayush.gov.in/ayurveda"
	URIICD11TM2 = "http://id.who.int/icd/release/11/mms/tm2"
	URIICD11Bio = "http://id.who.int/icd/release/11/mms"
)

// AllSystems lists every searchable system identifier in canonical order.
func AllSystems() []string {
	return []string{SystemNAMASTE, SystemICD11TM2, SystemICD11Bio}
}

// KnownSystem reports whether id is one of the enumerated system identifiers.
func KnownSystem(id string) bool {
	switch id {
	case SystemNAMASTE, SystemICD11TM2, SystemICD11Bio:
		return true
	}
	return false
}

// SystemURI resolves a system identifier to its canonical URI. Unknown
// identifiers resolve to the empty string.
func SystemURI(id string) string {
	switch id {
	case SystemNAMASTE:
		return URINAMASTE
	case SystemICD11TM2:
		return URIICD11TM2
	case SystemICD11Bio:
		return URIICD11Bio
	}
	return ""
}

// SystemForURI is the inverse of SystemURI. Unknown URIs map to "".
func SystemForURI(uri string) string {
	switch uri {
	case URINAMASTE:
		return SystemNAMASTE
	case URIICD11TM2:
		return SystemICD11TM2
	case URIICD11Bio:
		return SystemICD11Bio
	}
	return ""
}
