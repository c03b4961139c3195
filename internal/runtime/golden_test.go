package runtime

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"lox-lang/internal/diag"
	"lox-lang/internal/parser"
	"lox-lang/internal/resolver"
)

// goldenCase is one script fixture: a source program with either its
// expected print output or the expected error code.
type goldenCase struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
	Output string `yaml:"output,omitempty"`
	Error  string `yaml:"error,omitempty"`
}

func loadGoldenCases(t *testing.T, path string) []goldenCase {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	var cases []goldenCase
	if err := yaml.Unmarshal(data, &cases); err != nil {
		t.Fatalf("decoding %s: %v", path, err)
	}
	return cases
}

func TestGoldenScripts(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "testdata", "*.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatal("no golden fixture files found")
	}

	for _, path := range paths {
		for _, tc := range loadGoldenCases(t, path) {
			name := filepath.Base(path) + "/" + tc.Name
			t.Run(name, func(t *testing.T) {
				runGoldenCase(t, tc)
			})
		}
	}
}

func runGoldenCase(t *testing.T, tc goldenCase) {
	t.Helper()
	file, diags := parser.ParseSource(tc.Source, tc.Name)
	if diag.HasErrors(diags) {
		reportGoldenDiags(t, tc, diags)
		return
	}
	resolveDiags := resolver.Resolve(file)
	if diag.HasErrors(resolveDiags) {
		reportGoldenDiags(t, tc, resolveDiags)
		return
	}

	var out bytes.Buffer
	err := New(&out).Interpret(file)
	if err != nil {
		if tc.Error == "" {
			t.Fatalf("unexpected runtime error: %s", err.Message)
		}
		if err.Code != tc.Error {
			t.Errorf("expected error %s, got %s (%s)", tc.Error, err.Code, err.Message)
		}
		return
	}
	if tc.Error != "" {
		t.Fatalf("expected error %s, got none (output %q)", tc.Error, out.String())
	}
	if out.String() != tc.Output {
		t.Errorf("output mismatch:\nexpected:\n%s\ngot:\n%s", tc.Output, out.String())
	}
}

// reportGoldenDiags handles static errors: they match when the case expects
// that code, and fail the test otherwise.
func reportGoldenDiags(t *testing.T, tc goldenCase, diags []diag.Diagnostic) {
	t.Helper()
	if tc.Error == "" {
		t.Fatalf("unexpected static errors: %v", diags)
	}
	for _, d := range diags {
		if d.Code == tc.Error {
			return
		}
	}
	var codes []string
	for _, d := range diags {
		codes = append(codes, d.Code)
	}
	t.Errorf("expected error %s, got %s", tc.Error, strings.Join(codes, ", "))
}
