package cmd

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/subcommands"
)

func TestRunExtension(t *testing.T) {
	ledger := useTempLedger(t, "trades.jsonl")
	dir := t.TempDir()
	script := "#!/bin/sh\necho \"$FOLIO_LEDGER $FOLIO_CURRENCY $*\" > \"$1\"\nexit 3\n"
	if err := os.WriteFile(filepath.Join(dir, "folio-hello"), []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	out := filepath.Join(dir, "out.txt")
	found, code := RunExtension("hello", []string{out, "world"})
	if !found {
		t.Fatal("RunExtension(hello) did not find folio-hello")
	}
	if code != 3 {
		t.Errorf("RunExtension(hello) exit code = %d, want 3", code)
	}
	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := ledger + " USD " + out + " world"
	if strings.TrimSpace(string(got)) != want {
		t.Errorf("extension saw %q, want %q", strings.TrimSpace(string(got)), want)
	}

	if found, _ := RunExtension("missing-extension", nil); found {
		t.Error("RunExtension(missing-extension) found an extension")
	}
}

func TestKnown(t *testing.T) {
	c := subcommands.NewCommander(flag.NewFlagSet("folio", flag.ContinueOnError), "folio")
	Register(c)
	for name, want := range map[string]bool{"buy": true, "holding": true, "serve": true, "hello": false} {
		if got := Known(c, name); got != want {
			t.Errorf("Known(%q) = %v, want %v", name, got, want)
		}
	}
}
