package model

// TaskSpec describes one analysis task: a fixed, data-driven record
// consumed generically by the task runner. Specs are defined once at
// process start and never modified.
//
// Design decision: Tasks are modeled as data rather than as one type per
// task. A single runner implementation consumes the table, so adding an
// analysis dimension is a registry entry, not new control flow.
type TaskSpec struct {
	// ID is the stable machine identifier, e.g. "moat".
	ID string `json:"id"`

	// DisplayName is the human-readable task name used in reports and
	// placeholder findings, e.g. "Moat Analysis".
	DisplayName string `json:"displayName"`

	// RequiredFields lists the evidence field names this task consumes.
	// The runner projects the bundle down to exactly these fields.
	RequiredFields []string `json:"requiredFields"`
}

// RequiresSource reports whether any of the task's required fields is
// produced by the given source kind.
func (s TaskSpec) RequiresSource(kind SourceKind) bool {
	for _, field := range s.RequiredFields {
		if FieldSource(field) == kind {
			return true
		}
	}
	return false
}
