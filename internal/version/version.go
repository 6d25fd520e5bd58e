// Package version implements the idempotency gate. Each successfully
// cleansed object is tagged with the processor version that produced it;
// subsequent notifications for the same object are skipped unless the major
// version has moved, since only a major bump signals a behaviour-changing
// cleansing revision that must be reapplied.
package version

import "strings"

// TagKey is the object tag holding the processor version.
const TagKey = "DOCUMENT_PROCESSOR_VERSION"

// Default is the processor version baked into this build. The orchestrator
// takes the effective version at construction so tests can exercise others.
const Default = "1.0.0"

// Reason explains a gate decision.
type Reason int

const (
	// ReasonNoTag: the object has never been processed.
	ReasonNoTag Reason = iota
	// ReasonCompatible: tagged with the same major version; skip.
	ReasonCompatible
	// ReasonMajorMismatch: tagged by a different major revision; reprocess.
	ReasonMajorMismatch
	// ReasonParseFailure: a version string could not be parsed; the gate
	// fails open and the caller should log a warning.
	ReasonParseFailure
)

// Decision is the outcome of the gate for one object.
type Decision struct {
	Process  bool
	Reason   Reason
	Existing string
}

// Evaluate decides whether an object with the given tags needs cleansing
// under the current processor version.
func Evaluate(tags map[string]string, current string) Decision {
	existing, ok := tags[TagKey]
	if !ok {
		return Decision{Process: true, Reason: ReasonNoTag}
	}

	currentMajor, ok := major(current)
	if !ok {
		return Decision{Process: true, Reason: ReasonParseFailure, Existing: existing}
	}
	existingMajor, ok := major(existing)
	if !ok {
		return Decision{Process: true, Reason: ReasonParseFailure, Existing: existing}
	}

	if currentMajor == existingMajor {
		return Decision{Process: false, Reason: ReasonCompatible, Existing: existing}
	}
	return Decision{Process: true, Reason: ReasonMajorMismatch, Existing: existing}
}

// IsTagSafe reports whether a version string can be embedded verbatim in a
// storage tag value without percent-encoding.
func IsTagSafe(v string) bool {
	if v == "" {
		return false
	}
	for _, r := range v {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r == '.' || r == '-':
		default:
			return false
		}
	}
	return true
}

// major extracts the major component of a MAJOR.MINOR.PATCH string. It is
// compared as a string, not a number, matching the tag's verbatim value.
func major(v string) (string, bool) {
	head, _, found := strings.Cut(v, ".")
	if !found || head == "" {
		return "", false
	}
	return head, true
}
