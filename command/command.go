// Package command implements the catalog of mutating operations the engine
// supports. Every mutation is expressed as a Command with a uniform
// validate/prepareUndoData/execute/undo/canMergeWith/mergeWith contract,
// dispatched by a string type tag rather than by subclass identity.
package command

import (
	"github.com/rotoshake/imagecanvas-sub005/errors"
	"github.com/rotoshake/imagecanvas-sub005/scene"
)

// Origin identifies who is responsible for a command's effect.
type Origin string

const (
	OriginLocal  Origin = "local"
	OriginRemote Origin = "remote"
	OriginServer Origin = "server"
)

// Context carries everything a command needs to read or write scene state.
// InitialState, when non-nil, is the snapshot captured by UndoManager's
// beginInteraction; commands consult it instead of the graph's live state so
// the first intermediate command in an interaction sees pre-interaction
// values rather than a later transient one.
type Context struct {
	Graph        *scene.Graph
	Origin       Origin
	InitialState *InitialState
}

// InitialState is the per-node snapshot captured at the start of an
// interaction: positions, sizes, rotations, and per-type direct properties.
type InitialState struct {
	Positions map[string][2]float64
	Sizes     map[string][2]float64
	Rotations map[string]float64
	Extra     map[string]map[string]interface{}
}

// ValidationResult is the outcome of Command.Validate.
type ValidationResult struct {
	Valid bool
	Err   error
}

// Valid builds a passing ValidationResult.
func Valid() ValidationResult { return ValidationResult{Valid: true} }

// Invalid builds a failing ValidationResult tagged as a validation error.
func Invalid(format string, args ...interface{}) ValidationResult {
	return ValidationResult{Err: errors.Mark(errors.Newf(format, args...), errors.ErrValidation)}
}

// Command is the contract every mutating operation implements.
type Command interface {
	// Type returns the command's catalog key, e.g. "node_move".
	Type() string

	// Validate is a pure precondition check against the command's params;
	// it must not mutate the graph.
	Validate(ctx *Context) ValidationResult

	// PrepareUndoData reads current (or InitialState) values and stores
	// enough to invert the operation. Called before Execute for local
	// commands.
	PrepareUndoData(ctx *Context) error

	// Execute applies the change to the graph. Returns a result value
	// (command-specific, often the list of affected node ids) or an error.
	Execute(ctx *Context) (interface{}, error)

	// Undo inverts the command from stored undo data. Must be best-effort:
	// a missing node is tolerated rather than returned as an error.
	Undo(ctx *Context) error

	// CanMergeWith reports whether other can be coalesced into this command
	// (used for rapid repeated input such as drag moves).
	CanMergeWith(other Command) bool

	// MergeWith returns a new command representing this command followed by
	// other. Only called when CanMergeWith(other) is true.
	MergeWith(other Command) Command
}

// Factory constructs a zero-value Command of a given type for dispatch by
// the pipeline. Registered per type in the catalog below.
type Factory func(params map[string]interface{}) (Command, error)

var catalog = make(map[string]Factory)

// Register adds a command type to the catalog. Called from each command
// type's init().
func Register(typeName string, f Factory) {
	catalog[typeName] = f
}

// New constructs a command instance for typeName from params, or returns
// ValidationError if the type is unknown.
func New(typeName string, params map[string]interface{}) (Command, error) {
	f, ok := catalog[typeName]
	if !ok {
		return nil, errors.Mark(errors.Newf("unknown command type %q", typeName), errors.ErrValidation)
	}
	return f(params)
}

// IsRegistered reports whether typeName has a registered factory.
func IsRegistered(typeName string) bool {
	_, ok := catalog[typeName]
	return ok
}
