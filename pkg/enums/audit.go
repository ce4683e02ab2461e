package enums

import "fmt"

// AuditActorType identifies what kind of principal performed an audited action.
type AuditActorType string

const (
	AuditActorTypeUser   AuditActorType = "user"
	AuditActorTypeAdmin  AuditActorType = "admin"
	AuditActorTypeSystem AuditActorType = "system"
	AuditActorTypeJob    AuditActorType = "job"
)

var validAuditActorTypes = []AuditActorType{
	AuditActorTypeUser,
	AuditActorTypeAdmin,
	AuditActorTypeSystem,
	AuditActorTypeJob,
}

// IsValid reports whether the value is a known AuditActorType.
func (t AuditActorType) IsValid() bool {
	for _, candidate := range validAuditActorTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// AuditSeverity grades audited actions for alerting purposes.
type AuditSeverity string

const (
	AuditSeverityInfo     AuditSeverity = "info"
	AuditSeverityWarning  AuditSeverity = "warning"
	AuditSeverityCritical AuditSeverity = "critical"
)

var validAuditSeverities = []AuditSeverity{
	AuditSeverityInfo,
	AuditSeverityWarning,
	AuditSeverityCritical,
}

// IsValid reports whether the value is a known AuditSeverity.
func (s AuditSeverity) IsValid() bool {
	for _, candidate := range validAuditSeverities {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseAuditSeverity converts raw input into an AuditSeverity.
func ParseAuditSeverity(value string) (AuditSeverity, error) {
	for _, candidate := range validAuditSeverities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit severity %q", value)
}
