package capabilities

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/reglet-dev/composer/internal/application/ports"
	"github.com/reglet-dev/composer/internal/domain/capabilities"
)

// Prompt answers.
const (
	answerOnce   = "once"
	answerAlways = "always"
	answerDeny   = "deny"
)

// TerminalPrompter asks the operator on the terminal whether a component may
// hold a capability it was not granted.
type TerminalPrompter struct {
	// run shows the select form; replaced in tests.
	run func(title, description string, answer *string) error
}

var _ ports.CapabilityPrompter = (*TerminalPrompter)(nil)

// NewTerminalPrompter creates a new TerminalPrompter.
func NewTerminalPrompter() *TerminalPrompter {
	return &TerminalPrompter{run: runSelect}
}

func runSelect(title, description string, answer *string) error {
	return huh.NewSelect[string]().
		Title(title).
		Description(description).
		Options(
			huh.NewOption("Allow for this run", answerOnce),
			huh.NewOption("Always allow (saved to the system config)", answerAlways),
			huh.NewOption("Deny", answerDeny),
		).
		Value(answer).
		Run()
}

// IsInteractive checks if we're running in an interactive terminal.
func (p *TerminalPrompter) IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	// A character device is a terminal, not a pipe or file.
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// PromptForCapability asks whether the component at path may hold capability.
func (p *TerminalPrompter) PromptForCapability(path string, capability capabilities.Capability) (granted bool, always bool, err error) {
	title := fmt.Sprintf("%s requires permission", path)
	description := describeCapability(capability)
	if capability.IsBroad() {
		description += "\n⚠ " + capability.RiskDescription()
	}

	answer := answerDeny
	if err := p.run(title, description, &answer); err != nil {
		return false, false, fmt.Errorf("prompting for %s: %w", capability, err)
	}

	switch answer {
	case answerOnce:
		return true, false, nil
	case answerAlways:
		return true, true, nil
	default:
		return false, false, nil
	}
}

// describeCapability returns a human-readable description of a capability.
func describeCapability(c capabilities.Capability) string {
	switch c.Kind {
	case "network":
		switch {
		case c.Pattern == "outbound:*":
			return "Network access to any port"
		case c.Pattern == "outbound:private":
			return "Network access to private/reserved IPs (localhost, 192.168.x.x, 10.x.x.x, 169.254.169.254, etc.)"
		case strings.HasPrefix(c.Pattern, "outbound:"):
			return fmt.Sprintf("Network access to port %s", strings.TrimPrefix(c.Pattern, "outbound:"))
		case strings.HasPrefix(c.Pattern, "inbound:"):
			return fmt.Sprintf("Listen on port %s", strings.TrimPrefix(c.Pattern, "inbound:"))
		}
		return fmt.Sprintf("Network: %s", c.Pattern)
	case "fs":
		if path, ok := strings.CutPrefix(c.Pattern, "read:"); ok {
			return fmt.Sprintf("Read files: %s", path)
		}
		if path, ok := strings.CutPrefix(c.Pattern, "write:"); ok {
			return fmt.Sprintf("Write files: %s", path)
		}
		return fmt.Sprintf("Filesystem: %s", c.Pattern)
	case "exec":
		if c.Pattern == "/bin/sh" {
			return "Shell execution (executes shell commands)"
		}
		return fmt.Sprintf("Execute commands: %s", c.Pattern)
	case "env":
		return fmt.Sprintf("Read environment variables: %s", c.Pattern)
	default:
		return fmt.Sprintf("%s: %s", c.Kind, c.Pattern)
	}
}
