package diag

// Severity orders diagnostics: info < warning < error.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	// SevError blocks output only when it comes from the front end or from
	// loading the unit; rewrite-time problems are warnings.
	SevError
)

var severityNames = [...]string{
	SevInfo:    "INFO",
	SevWarning: "WARNING",
	SevError:   "ERROR",
}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "UNKNOWN"
}
