// Package subsidy holds the owned state of the verification core: score
// entries, appeals, the audit trail and the system configuration singleton,
// together with the caller-visible error kinds and authorization checks.
package subsidy

const (
	// QualificationThreshold is the fixed score cutoff at or above which an
	// application is approved.
	QualificationThreshold int64 = 70

	// MaxScore caps the composite score. There is deliberately no lower
	// clamp; all current factors are non-negative so the floor is latent.
	MaxScore int64 = 100

	// AppealWindow is the number of height units after scoring during which
	// an appeal may be submitted.
	AppealWindow uint64 = 144
)

// Status is the application status as held by the external status store.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Application is the status-store view of a subsidy application.
type Application struct {
	ApplicationID string `json:"application_id"`
	FarmerID      string `json:"farmer_id"`
	Status        Status `json:"status"`
}

// Factor is one named component of an eligibility score.
type Factor struct {
	Name   string `json:"name"`
	Points int64  `json:"points"`
}

// ScoreEntry is the latest verification record for an application. Exactly
// one entry exists per application at any time; re-scoring overwrites and the
// history lives in the audit trail.
type ScoreEntry struct {
	ApplicationID string   `json:"application_id"`
	Score         int64    `json:"score"`
	VerifiedAt    uint64   `json:"verified_at"`
	Factors       []Factor `json:"factors"`
}

// Qualifies reports whether a score meets the qualification threshold.
func Qualifies(score int64) bool {
	return score >= QualificationThreshold
}

// Appeal is the single appeal slot for an application. Resolver holds the
// submitter's identity until resolution and the resolving admin's identity
// afterwards.
type Appeal struct {
	ApplicationID string `json:"application_id"`
	Reason        string `json:"reason"`
	SubmittedAt   uint64 `json:"submitted_at"`
	Resolved      bool   `json:"resolved"`
	Resolver      string `json:"resolver"`
}

// AuditEntry is one immutable record of a scoring decision, initial or
// appeal-revised. VerificationID is assigned sequentially starting at 1.
type AuditEntry struct {
	VerificationID uint64 `json:"verification_id"`
	ApplicationID  string `json:"application_id"`
	Farmer         string `json:"farmer"`
	Score          int64  `json:"score"`
	Timestamp      uint64 `json:"timestamp"`
	Outcome        bool   `json:"outcome"`
}

// SystemConfig is the process-wide configuration singleton consulted by every
// mutating operation. TotalVerifications doubles as the audit sequence
// generator: it equals the highest assigned verification id.
type SystemConfig struct {
	OracleID           string `json:"oracle_id"`
	AdminID            string `json:"admin_id"`
	Paused             bool   `json:"paused"`
	VerificationFee    int64  `json:"verification_fee"`
	TotalVerifications uint64 `json:"total_verifications"`
}
