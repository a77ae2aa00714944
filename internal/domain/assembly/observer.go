package assembly

import (
	"time"

	"github.com/reglet-dev/composer/internal/domain/model"
)

// Source tells how a provider was found.
type Source string

const (
	SourceExplicit  Source = "explicit"
	SourceCandidate Source = "candidate"
	SourcePackaged  Source = "packaged"
)

// Observer is notified of assembly progress. Implementations must be cheap
// and must not call back into the assembler. ProviderBound fires for every
// binding; ModelAssembled and AssemblyFailed only for the model passed to
// AssembleModel.
type Observer interface {
	ProviderBound(consumer *model.ComponentModel, req model.Requirement, provider *model.ComponentModel, source Source)
	ModelAssembled(m *model.ComponentModel, elapsed time.Duration)
	AssemblyFailed(m *model.ComponentModel, err error)
}

type nopObserver struct{}

func (nopObserver) ProviderBound(*model.ComponentModel, model.Requirement, *model.ComponentModel, Source) {
}
func (nopObserver) ModelAssembled(*model.ComponentModel, time.Duration) {}
func (nopObserver) AssemblyFailed(*model.ComponentModel, error)         {}
