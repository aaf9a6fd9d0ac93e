package models

import "time"

// Strain is a named plant variety. Community verification (is_verified) and
// lab testing (is_lab_tested) are independent statuses and may both be set.
type Strain struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	StrainType    string   `json:"strain_type"` // indica, sativa, hybrid
	ThcContent    *float64 `json:"thc_content"`
	CbdContent    *float64 `json:"cbd_content"`
	FloweringTime string   `json:"flowering_time"`
	YieldInfo     string   `json:"yield_info"`
	CreatedBy     string   `json:"created_by"`

	IsVerified           bool       `json:"is_verified"`
	IsLabTested          bool       `json:"is_lab_tested"`
	LabName              string     `json:"lab_name"`
	LabTestDate          *time.Time `json:"lab_test_date"`
	LabReportURL         string     `json:"lab_report_url"`
	LabCertificateNumber string     `json:"lab_certificate_number"`
	VerifiedThc          *float64   `json:"verified_thc"`
	VerifiedCbd          *float64   `json:"verified_cbd"`
	VerifiedTerpenes     string     `json:"verified_terpenes"`
	VerificationNotes    string     `json:"verification_notes"`
	VerifiedAt           *time.Time `json:"verified_at"`
	VerifiedBy           *string    `json:"verified_by"`

	CreatedAt time.Time `json:"created_at"`

	// Filled by joins on read paths, not stored on the strain row.
	CreatorUsername  string `json:"creator_username,omitempty"`
	VerifierUsername string `json:"verifier_username,omitempty"`
}

// StrainFilter narrows strain listings. Zero values mean "no filter".
type StrainFilter struct {
	Search        string
	Type          string
	VerifiedOnly  bool
	LabTestedOnly bool
	Page          int
	PerPage       int
}
