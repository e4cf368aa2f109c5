package chain

import (
	"fmt"
	"reflect"
	"strings"
)

// StepName identifies a step by the package and type that implement it.
//
// Two steps with the same type name in different packages get different
// StepNames:
//   - StepName{Module: "github.com/user/app/steps", Type: "Validate"}
//   - StepName{Module: "github.com/vendor/lib/steps", Type: "Validate"}
type StepName struct {
	// Module is the import path of the package declaring the step type.
	// Empty for steps that name themselves via Namer.
	Module string

	// Type is the type name of the step, or the name reported by Namer.
	Type string
}

// String returns "Module.Type", or just Type when Module is empty.
func (n StepName) String() string {
	if n.Module == "" {
		return n.Type
	}
	return fmt.Sprintf("%s.%s", n.Module, n.Type)
}

// ShortString keeps only the last element of the module path.
//
// Example: "github.com/nomis52/eventchain/steps.Validate" becomes "steps.Validate"
func (n StepName) ShortString() string {
	if n.Module == "" {
		return n.Type
	}
	pkg := n.Module
	if i := strings.LastIndex(pkg, "/"); i >= 0 && i < len(pkg)-1 {
		pkg = pkg[i+1:]
	}
	return fmt.Sprintf("%s.%s", pkg, n.Type)
}

// IsValid returns true if Type is populated.
func (n StepName) IsValid() bool {
	return n.Type != ""
}

// NameOf derives the display name of step from its dynamic type.
// Pointer types are dereferenced, so *Validate and Validate share a name.
func NameOf(step Step) StepName {
	if step == nil {
		return StepName{Type: "<nil>"}
	}
	if n, ok := step.(Namer); ok {
		return StepName{Type: n.Name()}
	}

	t := reflect.TypeOf(step)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Name() == "" {
		return StepName{Type: t.String()}
	}
	return StepName{
		Module: t.PkgPath(),
		Type:   t.Name(),
	}
}
