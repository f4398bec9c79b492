package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrWong99/gymvox/pkg/command"
	"github.com/MrWong99/gymvox/pkg/grammar"
)

func TestRun_Parse(t *testing.T) {
	var stdout, stderr bytes.Buffer
	missing := filepath.Join(t.TempDir(), "none.yaml")

	code := run([]string{"-config", missing, "parse", "bench", "225", "for", "5"}, &stdout, &stderr)
	if code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}

	var res grammar.Result
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		t.Fatalf("decode stdout %q: %v", stdout.String(), err)
	}
	if res.Command.Kind != command.KindLogSet {
		t.Errorf("kind = %q, want log_set", res.Command.Kind)
	}
	if res.Command.RawInput != "bench 225 for 5" {
		t.Errorf("raw_input = %q", res.Command.RawInput)
	}
}

func TestRun_ParseUsesConfigAliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := "lexicon:\n  aliases:\n    zerch: Zercher Squat\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	if code := run([]string{"-config", path, "parse", "zerch"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code = %d, stderr: %s", code, stderr.String())
	}
	var res grammar.Result
	if err := json.Unmarshal(stdout.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.ResolvedExercise == nil || res.ResolvedExercise.Canonical != "Zercher Squat" {
		t.Errorf("resolved = %+v", res.ResolvedExercise)
	}
}

func TestRun_Errors(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "none.yaml")

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantErr  string
	}{
		{"parse without text", []string{"-config", missing, "parse"}, 2, "needs a transcript"},
		{"unknown mode", []string{"-config", missing, "dance"}, 2, "unknown mode"},
		{"serve without config", []string{"-config", missing}, 1, "not found"},
		{"bad flag", []string{"-nope"}, 2, "-nope"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(tc.args, &stdout, &stderr)
			if code != tc.wantCode {
				t.Errorf("exit code = %d, want %d", code, tc.wantCode)
			}
			if !strings.Contains(stderr.String(), tc.wantErr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr.String(), tc.wantErr)
			}
		})
	}
}
