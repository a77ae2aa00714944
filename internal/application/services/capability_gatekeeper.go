package services

import (
	"log/slog"
	"sync"

	apperrors "github.com/reglet-dev/composer/internal/application/errors"
	"github.com/reglet-dev/composer/internal/application/ports"
	"github.com/reglet-dev/composer/internal/domain/capabilities"
)

// Security levels.
const (
	SecurityStrict     = "strict"
	SecurityStandard   = "standard"
	SecurityPermissive = "permissive"
)

// CapabilityGatekeeper decides whether a component may be commissioned.
// Capabilities must be granted to the component's path in the grant table:
//   - strict: missing and broad capabilities are denied, even when granted
//   - standard: missing capabilities are denied, broad grants are logged
//   - permissive: missing capabilities are logged and allowed
//
// With a prompter on an interactive terminal, capabilities missing under the
// standard level are offered to the operator instead of being denied.
type CapabilityGatekeeper struct {
	table         *capabilities.GrantTable
	securityLevel string
	trustAll      bool
	logger        *slog.Logger

	// promptMu serializes prompts of components commissioned in parallel.
	promptMu sync.Mutex
	prompter ports.CapabilityPrompter
	store    ports.GrantStore
}

// NewCapabilityGatekeeper creates a new capability gatekeeper.
func NewCapabilityGatekeeper(table *capabilities.GrantTable, securityLevel string, trustAll bool, logger *slog.Logger) *CapabilityGatekeeper {
	if logger == nil {
		logger = slog.Default()
	}
	if table == nil {
		table = capabilities.NewGrantTable()
	}
	switch securityLevel {
	case SecurityStrict, SecurityPermissive:
	default:
		securityLevel = SecurityStandard
	}
	return &CapabilityGatekeeper{
		table:         table,
		securityLevel: securityLevel,
		trustAll:      trustAll,
		logger:        logger,
	}
}

// WithPrompter enables interactive grants. store may be nil, in which case
// "always" answers only last for the current run.
func (g *CapabilityGatekeeper) WithPrompter(prompter ports.CapabilityPrompter, store ports.GrantStore) *CapabilityGatekeeper {
	g.prompter = prompter
	g.store = store
	return g
}

// Authorize checks required against the grants of path.
func (g *CapabilityGatekeeper) Authorize(path string, required []capabilities.Capability) error {
	if len(required) == 0 {
		return nil
	}
	if g.trustAll {
		g.logger.Warn("auto-granting all requested capabilities (--trust-all enabled)", "model", path)
		return nil
	}

	broad := capabilities.Grant(required).Broad()
	if g.securityLevel == SecurityStrict && len(broad) > 0 {
		g.logger.Error("broad capability denied by security policy",
			"level", g.securityLevel, "model", path, "capability", broad[0].String(),
			"risk", broad[0].RiskDescription())
		return apperrors.NewSecurityError(path, "broad capability denied by strict security policy", broad)
	}

	missing := g.table.Missing(path, required)
	if len(missing) == 0 {
		for _, c := range broad {
			g.logger.Warn("broad capability granted", "model", path, "capability", c.String(), "risk", c.RiskDescription())
		}
		return nil
	}

	if g.securityLevel == SecurityPermissive {
		for _, c := range missing {
			g.logger.Warn("auto-granting capability (permissive mode)", "model", path, "capability", c.String())
		}
		return nil
	}
	if g.prompter != nil && g.prompter.IsInteractive() {
		return g.prompt(path, missing)
	}
	return apperrors.NewSecurityError(path, "capabilities not granted", missing)
}

// prompt asks for every missing capability. Approved capabilities are added
// to the grant table so that later components of the same partition are not
// asked again.
func (g *CapabilityGatekeeper) prompt(path string, missing []capabilities.Capability) error {
	g.promptMu.Lock()
	defer g.promptMu.Unlock()

	// Another component may have been granted these while we waited.
	missing = g.table.Missing(path, missing)

	var always []capabilities.Capability
	for _, c := range missing {
		granted, save, err := g.prompter.PromptForCapability(path, c)
		if err != nil {
			return apperrors.NewSecurityError(path, err.Error(), []capabilities.Capability{c})
		}
		if !granted {
			return apperrors.NewSecurityError(path, "capability denied by operator", []capabilities.Capability{c})
		}
		g.table.Add(path, c)
		if save {
			always = append(always, c)
		}
	}

	if len(always) > 0 && g.store != nil {
		if err := g.store.Save(path, always); err != nil {
			g.logger.Warn("failed to save capability grants", "model", path, "error", err)
		} else {
			g.logger.Info("capability grants saved", "model", path, "file", g.store.Location())
		}
	}
	return nil
}
