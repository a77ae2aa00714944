package capabilities

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/composer/internal/domain/capabilities"
)

func TestTerminalPrompter_IsInteractive(t *testing.T) {
	// Not t.Parallel() because it interacts with os.Stdin
	prompter := NewTerminalPrompter()
	assert.IsType(t, true, prompter.IsInteractive())
}

func TestTerminalPrompter_PromptForCapability(t *testing.T) {
	t.Parallel()

	tests := []struct {
		answer      string
		wantGranted bool
		wantAlways  bool
	}{
		{answerOnce, true, false},
		{answerAlways, true, true},
		{answerDeny, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			t.Parallel()
			var gotTitle, gotDescription string
			prompter := &TerminalPrompter{run: func(title, description string, answer *string) error {
				gotTitle, gotDescription = title, description
				*answer = tt.answer
				return nil
			}}

			granted, always, err := prompter.PromptForCapability("/app/db", capabilities.Capability{Kind: "network", Pattern: "outbound:5432"})
			require.NoError(t, err)
			assert.Equal(t, tt.wantGranted, granted)
			assert.Equal(t, tt.wantAlways, always)
			assert.Equal(t, "/app/db requires permission", gotTitle)
			assert.Equal(t, "Network access to port 5432", gotDescription)
		})
	}
}

func TestTerminalPrompter_PromptError(t *testing.T) {
	t.Parallel()
	prompter := &TerminalPrompter{run: func(string, string, *string) error {
		return errors.New("user aborted")
	}}

	granted, _, err := prompter.PromptForCapability("/app/db", capabilities.Capability{Kind: "env", Pattern: "HOME"})
	require.Error(t, err)
	assert.False(t, granted)
	assert.Contains(t, err.Error(), "user aborted")
}

func TestDescribeCapability(t *testing.T) {
	t.Parallel()

	tests := []struct {
		capability capabilities.Capability
		expected   string
	}{
		{capabilities.Capability{Kind: "network", Pattern: "outbound:*"}, "Network access to any port"},
		{capabilities.Capability{Kind: "network", Pattern: "outbound:private"}, "Network access to private/reserved IPs (localhost, 192.168.x.x, 10.x.x.x, 169.254.169.254, etc.)"},
		{capabilities.Capability{Kind: "network", Pattern: "outbound:80"}, "Network access to port 80"},
		{capabilities.Capability{Kind: "network", Pattern: "inbound:8080"}, "Listen on port 8080"},
		{capabilities.Capability{Kind: "fs", Pattern: "read:/var/log"}, "Read files: /var/log"},
		{capabilities.Capability{Kind: "fs", Pattern: "write:/tmp/out"}, "Write files: /tmp/out"},
		{capabilities.Capability{Kind: "exec", Pattern: "/bin/sh"}, "Shell execution (executes shell commands)"},
		{capabilities.Capability{Kind: "exec", Pattern: "/usr/bin/pg_dump"}, "Execute commands: /usr/bin/pg_dump"},
		{capabilities.Capability{Kind: "env", Pattern: "AWS_ACCESS_KEY"}, "Read environment variables: AWS_ACCESS_KEY"},
		{capabilities.Capability{Kind: "unknown", Pattern: "foo"}, "unknown: foo"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, describeCapability(tt.capability))
		})
	}
}
