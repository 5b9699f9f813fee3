package enum

// AlertSeverity is the low-stock level reached by a material after a consumption
type AlertSeverity string

const (
	AlertNone     AlertSeverity = ""
	AlertWarning  AlertSeverity = "warning"
	AlertCritical AlertSeverity = "critical"
)

func (a AlertSeverity) String() string {
	if a == AlertNone {
		return "none"
	}
	return string(a)
}

// Rank orders severities so that escalation can be compared: none < warning < critical
func (a AlertSeverity) Rank() int {
	switch a {
	case AlertWarning:
		return 1
	case AlertCritical:
		return 2
	default:
		return 0
	}
}

// ParseAlertSeverity accepts "warning" or "critical"; anything else is AlertNone
func ParseAlertSeverity(s string) AlertSeverity {
	switch AlertSeverity(s) {
	case AlertWarning, AlertCritical:
		return AlertSeverity(s)
	}
	return AlertNone
}
