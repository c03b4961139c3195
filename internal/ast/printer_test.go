package ast_test

import (
	"testing"

	"github.com/go-test/deep"

	"lox-lang/internal/ast"
	"lox-lang/internal/diag"
	"lox-lang/internal/parser"
)

// stripSpans removes "span" keys so structural comparison ignores locations,
// which necessarily differ after printing and reparsing.
func stripSpans(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(x))
		for k, val := range x {
			if k == "span" {
				continue
			}
			out[k] = stripSpans(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, val := range x {
			out[i] = stripSpans(val)
		}
		return out
	default:
		return v
	}
}

// expectRoundTrip parses source, prints it, reparses the printed form, and
// checks the two trees are structurally identical.
func expectRoundTrip(t *testing.T, source string) {
	t.Helper()
	first, diags := parser.ParseSource(source, "test.lox")
	if diag.HasErrors(diags) {
		t.Fatalf("source %q: unexpected diagnostics: %v", source, diags)
	}

	printed := ast.Print(first)
	second, diags := parser.ParseSource(printed, "printed.lox")
	if diag.HasErrors(diags) {
		t.Fatalf("printed form %q does not reparse: %v", printed, diags)
	}

	got := stripSpans(ast.NodeToMap(second))
	want := stripSpans(ast.NodeToMap(first))
	if diff := deep.Equal(got, want); diff != nil {
		t.Errorf("round trip of %q changed the tree (printed as %q):\n%s",
			source, printed, diff)
	}
}

func TestRoundTripExpressions(t *testing.T) {
	sources := []string{
		"1 + 2 * 3;",
		"(1 + 2) * 3;",
		"-x + !y;",
		"a == b != c;",
		"a < b <= c > d >= e;",
		"a or b and c;",
		"x = y = 42;",
		"f(1, \"two\", nil)(true);",
		"0.5 + 100;",
	}
	for _, src := range sources {
		expectRoundTrip(t, src)
	}
}

func TestRoundTripStatements(t *testing.T) {
	sources := []string{
		"var x = 1;",
		"var y;",
		"print \"hello\";",
		"{ var a = 1; print a; }",
		"if (x) print 1;",
		"if (x) { print 1; } else { print 2; }",
		"while (i < 10) i = i + 1;",
		"fun add(a, b) { return a + b; }",
		"fun noop() { return; }",
	}
	for _, src := range sources {
		expectRoundTrip(t, src)
	}
}

func TestRoundTripForLoop(t *testing.T) {
	// The for loop desugars at parse time; the printed form is the desugared
	// while loop, which must itself round-trip.
	expectRoundTrip(t, "for (var i = 0; i < 3; i = i + 1) print i;")
}

func TestRoundTripProgram(t *testing.T) {
	expectRoundTrip(t, `
fun makeCounter() {
  var count = 0;
  fun increment() {
    count = count + 1;
    return count;
  }
  return increment;
}

var counter = makeCounter();
print counter();
print counter();
`)
}

func TestPrintIsStable(t *testing.T) {
	// Printing a printed form again yields the identical text.
	source := "fun f(a) { if (a) { return a * 2; } return 0; }"
	first, diags := parser.ParseSource(source, "test.lox")
	if diag.HasErrors(diags) {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	printed := ast.Print(first)
	second, diags := parser.ParseSource(printed, "printed.lox")
	if diag.HasErrors(diags) {
		t.Fatalf("printed form does not reparse: %v", diags)
	}
	if again := ast.Print(second); again != printed {
		t.Errorf("printing is not a fixpoint:\nfirst:\n%s\nsecond:\n%s", printed, again)
	}
}

func TestNumberFormatting(t *testing.T) {
	first, diags := parser.ParseSource("print 3.14; print 100; print 0.5;", "test.lox")
	if diag.HasErrors(diags) {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	printed := ast.Print(first)
	want := "print 3.14;\nprint 100;\nprint 0.5;\n"
	if printed != want {
		t.Errorf("expected %q, got %q", want, printed)
	}
}
