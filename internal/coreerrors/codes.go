// Package coreerrors defines the error taxonomy the reasoning engine raises.
//
// Error codes are organized into categories mirroring why the engine refused
// to proceed:
//   - 1xxx: resource errors (not found, exhausted, duplicate)
//   - 2xxx: structural errors (cycle, graph invariant violation)
//   - 3xxx: collaborator errors (generator, evaluator)
//   - 4xxx: external errors (persistence)
//   - 5xxx: configuration errors
package coreerrors

// Code identifies the category and specific kind of a CoreError.
type Code string

const (
	// CodeNodeNotFound indicates an accessor was called with an unknown thought or edge id.
	CodeNodeNotFound Code = "ERR_1001_NODE_NOT_FOUND"
	// CodeResourceExhausted indicates a resource limit (thoughts, tokens, ...) was hit.
	CodeResourceExhausted Code = "ERR_1002_RESOURCE_EXHAUSTED"
	// CodeDuplicateID indicates add_thought was called with an id already present.
	CodeDuplicateID Code = "ERR_1003_DUPLICATE_ID"

	// CodeCycleDetected indicates add_edge would create a cycle under allow_cycles=false.
	CodeCycleDetected Code = "ERR_2001_CYCLE_DETECTED"
	// CodeGraphError indicates a generic structural/invariant violation.
	CodeGraphError Code = "ERR_2002_GRAPH_ERROR"

	// CodeGenerationError indicates the Generator contract failed.
	CodeGenerationError Code = "ERR_3001_GENERATION_ERROR"
	// CodeEvaluationError indicates the Evaluator contract failed.
	CodeEvaluationError Code = "ERR_3002_EVALUATION_ERROR"

	// CodePersistenceError indicates a Persistence collaborator failed.
	CodePersistenceError Code = "ERR_4001_PERSISTENCE_ERROR"

	// CodeConfigurationError indicates configuration validation or enum-name load failure.
	CodeConfigurationError Code = "ERR_5001_CONFIGURATION_ERROR"
)

// Category returns the human-readable category for a code's leading digit.
func Category(code Code) string {
	if len(code) < 5 {
		return "unknown"
	}
	switch code[4] {
	case '1':
		return "resource"
	case '2':
		return "structural"
	case '3':
		return "collaborator"
	case '4':
		return "external"
	case '5':
		return "configuration"
	default:
		return "unknown"
	}
}
