package cmd

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"
)

// Environment passed to extensions. They are the variables config.Load reads,
// so an extension sees the same settings as folio itself.
const (
	EnvLedger   = "FOLIO_LEDGER"
	EnvCurrency = "FOLIO_CURRENCY"
	EnvLogLevel = "FOLIO_LOG_LEVEL"
)

// Known reports whether name is a registered subcommand.
func Known(c *subcommands.Commander, name string) bool {
	found := false
	c.VisitCommands(func(_ *subcommands.CommandGroup, cmd subcommands.Command) {
		if cmd.Name() == name {
			found = true
		}
	})
	return found
}

// RunExtension attempts to find and execute an external folio-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found.
func RunExtension(subcommand string, args []string) (bool, int) {
	name := "folio-" + subcommand
	lp, err := exec.LookPath(name)
	if err != nil {
		log.Debug().Err(err).Str("extension", name).Msg("extension not found")
		return false, 0
	}

	ledger := cfg.Ledger
	if abs, err := filepath.Abs(ledger); err == nil {
		ledger = abs
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(),
		EnvLedger+"="+ledger,
		EnvCurrency+"="+cfg.Currency,
		EnvLogLevel+"="+cfg.LogLevel,
	)

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return true, exitErr.ExitCode()
		}
		log.Error().Err(err).Str("extension", name).Msg("could not run extension")
		return true, 1
	}
	return true, 0
}
