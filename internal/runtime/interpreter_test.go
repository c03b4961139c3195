package runtime

import (
	"bytes"
	"strings"
	"testing"

	"lox-lang/internal/diag"
	"lox-lang/internal/parser"
	"lox-lang/internal/resolver"
)

// runSource executes source through the full pipeline and returns the print
// output and the runtime error, if any. Static errors fail the test.
func runSource(t *testing.T, source string) (string, *Error) {
	t.Helper()
	file, diags := parser.ParseSource(source, "test.lox")
	if diag.HasErrors(diags) {
		t.Fatalf("source %q: parse diagnostics: %v", source, diags)
	}
	resolveDiags := resolver.Resolve(file)
	if diag.HasErrors(resolveDiags) {
		t.Fatalf("source %q: resolve diagnostics: %v", source, resolveDiags)
	}

	var out bytes.Buffer
	interp := New(&out)
	err := interp.Interpret(file)
	return out.String(), err
}

// expectOutput runs source and compares the print output line by line.
func expectOutput(t *testing.T, source string, want ...string) {
	t.Helper()
	out, err := runSource(t, source)
	if err != nil {
		t.Fatalf("source %q: unexpected runtime error: %s", source, err.Message)
	}
	wantText := ""
	if len(want) > 0 {
		wantText = strings.Join(want, "\n") + "\n"
	}
	if out != wantText {
		t.Errorf("source %q:\nexpected output:\n%s\ngot:\n%s", source, wantText, out)
	}
}

// expectError runs source and checks the runtime error code.
func expectError(t *testing.T, source, code string) *Error {
	t.Helper()
	_, err := runSource(t, source)
	if err == nil {
		t.Fatalf("source %q: expected runtime error %s, got none", source, code)
	}
	if err.Code != code {
		t.Fatalf("source %q: expected error %s, got %s (%s)", source, code, err.Code, err.Message)
	}
	return err
}

// ---- literals and printing ----

func TestPrintLiterals(t *testing.T) {
	expectOutput(t, `print 1; print 2.5; print "hi"; print true; print false; print nil;`,
		"1", "2.5", "hi", "true", "false", "nil")
}

func TestNumberFormatting(t *testing.T) {
	// Whole numbers print without a decimal part.
	expectOutput(t, "print 4 / 2; print 5 / 2; print 0.1 + 0.2;",
		"2", "2.5", "0.30000000000000004")
}

// ---- arithmetic and comparisons ----

func TestArithmetic(t *testing.T) {
	expectOutput(t, "print 1 + 2 * 3 - 4 / 2;", "5")
	expectOutput(t, "print -(3 + 2);", "-5")
}

func TestDivisionByZero(t *testing.T) {
	// IEEE semantics, not an error.
	expectOutput(t, "print 1 / 0; print -1 / 0; print 0 / 0;",
		"+Inf", "-Inf", "NaN")
}

func TestStringConcatenation(t *testing.T) {
	expectOutput(t, `print "foo" + "bar";`, "foobar")
	// Either side being a string converts the other to its display form.
	expectOutput(t, `print "n = " + 42;`, "n = 42")
	expectOutput(t, `print 1 + " and " + true;`, "1 and true")
}

func TestPlusTypeError(t *testing.T) {
	err := expectError(t, "print true + 1;", "E4002")
	if !strings.Contains(err.Message, "'+'") {
		t.Errorf("unexpected message: %s", err.Message)
	}
}

func TestComparisonNumbersOnly(t *testing.T) {
	expectOutput(t, "print 1 < 2; print 2 <= 2; print 3 > 4; print 4 >= 4;",
		"true", "true", "false", "true")
	expectError(t, `print "a" < "b";`, "E4002")
}

func TestUnaryMinusTypeError(t *testing.T) {
	expectError(t, `print -"oops";`, "E4002")
}

// ---- equality and truthiness ----

func TestEquality(t *testing.T) {
	expectOutput(t, "print 1 == 1; print 1 == 2; print 1 != 2;", "true", "false", "true")
	expectOutput(t, `print "a" == "a"; print "a" == "b";`, "true", "false")
	expectOutput(t, "print nil == nil;", "true")
	// Cross-type comparisons are always false, never coercing.
	expectOutput(t, "print nil == false; print 0 == false; print \"\" == false;",
		"false", "false", "false")
	expectOutput(t, `print 1 == "1";`, "false")
}

func TestTruthiness(t *testing.T) {
	// Only nil and false are falsy; 0 and "" are truthy.
	expectOutput(t, `if (0) print "zero truthy"; if ("") print "empty truthy";`,
		"zero truthy", "empty truthy")
	expectOutput(t, `if (nil) print "no"; else print "nil falsy";`, "nil falsy")
	expectOutput(t, "print !nil; print !0;", "true", "false")
}

// ---- logical operators ----

func TestLogicalOperators(t *testing.T) {
	// The result is always a bool of the outcome's truthiness.
	expectOutput(t, `print 1 or 2; print nil or "x"; print nil or false;`,
		"true", "true", "false")
	expectOutput(t, `print 1 and 2; print nil and 1;`, "true", "false")
}

func TestLogicalShortCircuit(t *testing.T) {
	source := `
fun sideEffect() {
  print "evaluated";
  return true;
}
print false and sideEffect();
print true or sideEffect();
`
	expectOutput(t, source, "false", "true")
}

// ---- variables and scoping ----

func TestVariables(t *testing.T) {
	expectOutput(t, "var a = 1; a = a + 1; print a;", "2")
	expectOutput(t, "var b; print b;", "nil")
}

func TestAssignmentYieldsValue(t *testing.T) {
	expectOutput(t, "var a; var b; a = b = 3; print a; print b;", "3", "3")
	expectOutput(t, "var c; print c = 7;", "7")
}

func TestBlockScoping(t *testing.T) {
	source := `
var a = "global";
{
  var a = "inner";
  print a;
}
print a;
`
	expectOutput(t, source, "inner", "global")
}

func TestUndefinedVariable(t *testing.T) {
	expectError(t, "print missing;", "E4001")
	expectError(t, "missing = 1;", "E4001")
}

func TestGlobalDeclaredAfterUseInFunction(t *testing.T) {
	// Functions may reference globals declared later, as long as the call
	// happens after the declaration.
	source := `
fun show() { print g; }
var g = "late";
show();
`
	expectOutput(t, source, "late")
}

// ---- control flow ----

func TestIfElse(t *testing.T) {
	expectOutput(t, `if (1 < 2) print "yes"; else print "no";`, "yes")
	expectOutput(t, `if (1 > 2) print "yes"; else print "no";`, "no")
}

func TestWhileCountdown(t *testing.T) {
	source := `
var i = 3;
while (i > 0) {
  print i;
  i = i - 1;
}
`
	expectOutput(t, source, "3", "2", "1")
}

func TestWhileZeroIterations(t *testing.T) {
	expectOutput(t, `while (false) print "never"; print "done";`, "done")
}

func TestForLoop(t *testing.T) {
	expectOutput(t, "for (var i = 0; i < 3; i = i + 1) print i;", "0", "1", "2")
}

func TestReturnUnwindsLoop(t *testing.T) {
	// A return inside a while body must escape the loop, not just the
	// current iteration.
	source := `
fun firstOver(limit) {
  var i = 0;
  while (true) {
    i = i + 1;
    if (i > limit) return i;
  }
}
print firstOver(4);
`
	expectOutput(t, source, "5")
}

// ---- functions and closures ----

func TestFunctionCall(t *testing.T) {
	expectOutput(t, "fun add(a, b) { return a + b; } print add(1, 2);", "3")
}

func TestFunctionWithoutReturnYieldsNil(t *testing.T) {
	expectOutput(t, "fun noop() {} print noop();", "nil")
	expectOutput(t, "fun bare() { return; } print bare();", "nil")
}

func TestFunctionPrintForm(t *testing.T) {
	expectOutput(t, "fun f() {} print f;", "<fn f>")
}

func TestRecursion(t *testing.T) {
	source := `
fun fib(n) {
  if (n < 2) return n;
  return fib(n - 1) + fib(n - 2);
}
print fib(10);
`
	expectOutput(t, source, "55")
}

func TestClosureCounter(t *testing.T) {
	source := `
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
print counter();
`
	expectOutput(t, source, "1", "2", "3")
}

func TestClosuresAreIndependent(t *testing.T) {
	source := `
fun makeCounter() {
  var count = 0;
  fun increment() {
    count = count + 1;
    return count;
  }
  return increment;
}
var a = makeCounter();
var b = makeCounter();
print a();
print a();
print b();
`
	expectOutput(t, source, "1", "2", "1")
}

func TestClosureCapturesDeclarationEnvironment(t *testing.T) {
	// The closure sees its declaration environment, not the caller's.
	source := `
var x = "global";
{
  fun show() { print x; }
  var x = "shadow";
  show();
  print x;
}
`
	expectOutput(t, source, "global", "shadow")
}

func TestFunctionsAsValues(t *testing.T) {
	source := `
fun twice(f, v) { return f(f(v)); }
fun addOne(n) { return n + 1; }
print twice(addOne, 5);
`
	expectOutput(t, source, "7")
}

// ---- call errors ----

func TestArityMismatch(t *testing.T) {
	err := expectError(t, "fun f(a, b) { return a; } f(1);", "E4004")
	if !strings.Contains(err.Message, "expects 2 arguments, got 1") {
		t.Errorf("unexpected message: %s", err.Message)
	}
}

func TestZeroParamFunctionRejectsArgument(t *testing.T) {
	out, err := runSource(t, `fun f() { print "ran"; } f(1);`)
	if err == nil || err.Code != "E4004" {
		t.Fatalf("expected E4004, got %v", err)
	}
	if out != "" {
		t.Errorf("body must not execute on arity mismatch, got %q", out)
	}
}

func TestArityCheckedBeforeArguments(t *testing.T) {
	// A mismatched call fails before evaluating any argument.
	source := `
fun f(a, b) { return a; }
fun loud() { print "evaluated"; return 1; }
f(loud());
`
	out, err := runSource(t, source)
	if err == nil || err.Code != "E4004" {
		t.Fatalf("expected E4004, got %v", err)
	}
	if out != "" {
		t.Errorf("arguments were evaluated before the arity check: %q", out)
	}
}

func TestCallingNonCallable(t *testing.T) {
	expectError(t, `var x = 1; x();`, "E4003")
	expectError(t, `"hello"();`, "E4003")
}

func TestStackOverflow(t *testing.T) {
	err := expectError(t, "fun loop() { return loop(); } loop();", "E4005")
	if !strings.Contains(err.Message, "stack overflow") {
		t.Errorf("unexpected message: %s", err.Message)
	}
}

// ---- runtime error traces ----

func TestErrorCarriesCallStack(t *testing.T) {
	source := `
fun inner() { return 1 + nil; }
fun outer() { return inner(); }
outer();
`
	_, err := runSource(t, source)
	if err == nil {
		t.Fatal("expected runtime error")
	}
	if len(err.Stack) != 2 {
		t.Fatalf("expected 2 stack frames, got %d: %v", len(err.Stack), err.Stack)
	}
	// Innermost frame last.
	if err.Stack[0].Function != "outer" || err.Stack[1].Function != "inner" {
		t.Errorf("unexpected stack: %v", err.Stack)
	}
	if err.Stack[0].Line != 4 {
		t.Errorf("expected call-site line 4 for outer, got %d", err.Stack[0].Line)
	}
}

func TestErrorAtTopLevelHasEmptyStack(t *testing.T) {
	_, err := runSource(t, "print 1 + nil;")
	if err == nil {
		t.Fatal("expected runtime error")
	}
	if len(err.Stack) != 0 {
		t.Errorf("expected empty stack, got %v", err.Stack)
	}
}

func TestExecutionStopsAtFirstError(t *testing.T) {
	out, err := runSource(t, `print "before"; print 1 + nil; print "after";`)
	if err == nil {
		t.Fatal("expected runtime error")
	}
	if out != "before\n" {
		t.Errorf("expected output up to the error, got %q", out)
	}
}

// ---- builtins ----

func TestClockBuiltin(t *testing.T) {
	source := "var t = clock(); if (t > 0) print \"ticking\";"
	expectOutput(t, source, "ticking")
}

func TestClockArity(t *testing.T) {
	expectError(t, "clock(1);", "E4004")
}

func TestBuiltinPrintForm(t *testing.T) {
	expectOutput(t, "print clock;", "<native fn clock>")
}

// ---- interpreter state persistence (REPL behavior) ----

func TestStatePersistsAcrossInterpretCalls(t *testing.T) {
	var out bytes.Buffer
	interp := New(&out)

	first, diags := parser.ParseSource("var x = 10;", "repl")
	if diag.HasErrors(diags) {
		t.Fatalf("parse: %v", diags)
	}
	resolver.Resolve(first)
	if err := interp.Interpret(first); err != nil {
		t.Fatalf("first chunk: %s", err.Message)
	}

	second, diags := parser.ParseSource("print x + 1;", "repl")
	if diag.HasErrors(diags) {
		t.Fatalf("parse: %v", diags)
	}
	resolver.Resolve(second)
	if err := interp.Interpret(second); err != nil {
		t.Fatalf("second chunk: %s", err.Message)
	}

	if out.String() != "11\n" {
		t.Errorf("expected 11, got %q", out.String())
	}
}
