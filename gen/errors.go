package gen

import (
	"errors"
	"fmt"
	"go/token"
)

// Sentinel errors for generation failures. Every GenerationError wraps one
// of these.
var (
	// ErrEmptyModule indicates the contract package has no declarations.
	ErrEmptyModule = errors.New("pvmgen: contract module has no body")

	// ErrMultipleRoles indicates one declaration carries more than one role directive.
	ErrMultipleRoles = errors.New("pvmgen: declaration has more than one role directive")

	// ErrUnknownDirective indicates a //pvm: directive with an unknown name or argument.
	ErrUnknownDirective = errors.New("pvmgen: unknown directive")

	// ErrPackageMismatch indicates source files declaring different packages.
	ErrPackageMismatch = errors.New("pvmgen: files declare different packages")

	// ErrMisplacedDirective indicates a role directive on the wrong kind of declaration.
	ErrMisplacedDirective = errors.New("pvmgen: directive not allowed on this declaration")

	// ErrDuplicateStorage indicates a second storage declaration.
	ErrDuplicateStorage = errors.New("pvmgen: duplicate storage declaration")

	// ErrDuplicateInit indicates a second init declaration.
	ErrDuplicateInit = errors.New("pvmgen: duplicate init declaration")

	// ErrDuplicateSelector indicates two calls derive the same selector.
	ErrDuplicateSelector = errors.New("pvmgen: duplicate call selector")

	// ErrNameCollision indicates two declarations map to the same generated identifier.
	ErrNameCollision = errors.New("pvmgen: generated identifier collision")

	// ErrInvalidSignature indicates a call or init function with an unsupported shape.
	ErrInvalidSignature = errors.New("pvmgen: invalid signature")

	// ErrMissingStorage indicates a declaration needs a storage type that does not exist.
	ErrMissingStorage = errors.New("pvmgen: no storage declaration")

	// ErrUnencodableType indicates a type the configured codec cannot round-trip.
	ErrUnencodableType = errors.New("pvmgen: type cannot be encoded")
)

// Code is a stable identifier for a class of generation failure.
type Code string

// Generation failure codes.
const (
	CodeEmptyModule       Code = "PVM1001"
	CodeMultipleRoles     Code = "PVM1002"
	CodeUnknownDirective  Code = "PVM1003"
	CodeMisplaced         Code = "PVM1004"
	CodePackageMismatch   Code = "PVM1005"
	CodeDuplicateStorage  Code = "PVM2001"
	CodeDuplicateInit     Code = "PVM2002"
	CodeDuplicateSelector Code = "PVM2003"
	CodeNameCollision     Code = "PVM2004"
	CodeInvalidSignature  Code = "PVM2005"
	CodeMissingStorage    Code = "PVM2006"
	CodeUnencodableType   Code = "PVM2007"
)

var codeSentinels = map[Code]error{
	CodeEmptyModule:       ErrEmptyModule,
	CodeMultipleRoles:     ErrMultipleRoles,
	CodeUnknownDirective:  ErrUnknownDirective,
	CodeMisplaced:         ErrMisplacedDirective,
	CodePackageMismatch:   ErrPackageMismatch,
	CodeDuplicateStorage:  ErrDuplicateStorage,
	CodeDuplicateInit:     ErrDuplicateInit,
	CodeDuplicateSelector: ErrDuplicateSelector,
	CodeNameCollision:     ErrNameCollision,
	CodeInvalidSignature:  ErrInvalidSignature,
	CodeMissingStorage:    ErrMissingStorage,
	CodeUnencodableType:   ErrUnencodableType,
}

// GenerationError is a fatal problem with the shape of a contract module.
// No output is produced when one is returned.
type GenerationError struct {
	Code    Code
	Pos     token.Position
	Message string
}

func (e *GenerationError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("pvmgen: %s: [%s] %s", e.Pos, e.Code, e.Message)
	}
	return fmt.Sprintf("pvmgen: [%s] %s", e.Code, e.Message)
}

// Unwrap returns the sentinel error for the failure code.
func (e *GenerationError) Unwrap() error {
	return codeSentinels[e.Code]
}

func newError(code Code, pos token.Position, format string, args ...any) *GenerationError {
	return &GenerationError{
		Code:    code,
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	}
}
