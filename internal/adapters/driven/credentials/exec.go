package credentials

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kirillbelykh/kontur-api/internal/core/domain"
	"github.com/kirillbelykh/kontur-api/internal/core/ports"
)

// DefaultCollectorTimeout bounds a collector run. Browser automation is
// slow, so the bound is generous.
const DefaultCollectorTimeout = 2 * time.Minute

// ExecSource obtains credential tokens by running an external collector
// command. The collector prints a flat JSON object of token names and
// values to stdout.
type ExecSource struct {
	command  string
	args     []string
	timeout  time.Duration
	logger   *zap.Logger
	extraEnv []string
}

// NewExecSource creates a command-based credential source.
func NewExecSource(command string, args []string, logger *zap.Logger) *ExecSource {
	return &ExecSource{
		command: command,
		args:    args,
		timeout: DefaultCollectorTimeout,
		logger:  logger,
	}
}

// SetTimeoutForTesting overrides the collector timeout.
func (s *ExecSource) SetTimeoutForTesting(d time.Duration) {
	s.timeout = d
}

// SetEnvForTesting appends variables to the collector's environment.
func (s *ExecSource) SetEnvForTesting(env []string) {
	s.extraEnv = env
}

// Fetch runs the collector and parses its stdout.
func (s *ExecSource) Fetch(ctx context.Context) (domain.CredentialSet, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.command, s.args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if len(s.extraEnv) > 0 {
		cmd.Env = append(os.Environ(), s.extraEnv...)
	}

	if s.logger != nil {
		s.logger.Info("running credential collector",
			zap.String("command", s.command))
	}

	start := time.Now()
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return domain.CredentialSet{}, fmt.Errorf("credential collector %s: %w: %s", s.command, err, detail)
		}
		return domain.CredentialSet{}, fmt.Errorf("credential collector %s: %w", s.command, err)
	}

	var tokens map[string]string
	if err := json.Unmarshal(stdout.Bytes(), &tokens); err != nil {
		return domain.CredentialSet{}, fmt.Errorf("parse collector output: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("credential collector finished",
			zap.Int("tokens", len(tokens)),
			zap.Duration("took", time.Since(start)))
	}

	return domain.NewCredentialSet(tokens, time.Now()), nil
}

// Ensure ExecSource implements ports.CredentialSource
var _ ports.CredentialSource = (*ExecSource)(nil)
