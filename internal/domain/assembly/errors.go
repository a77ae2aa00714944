package assembly

import (
	"errors"
	"strings"
)

// ErrCycle marks a dependency cycle found during assembly.
var ErrCycle = errors.New("dependency cycle")

// CycleError lists the models on the assembly chain, ending with the model
// that was entered a second time.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return "dependency cycle: " + strings.Join(e.Chain, " -> ")
}

func (e *CycleError) Unwrap() error {
	return ErrCycle
}
