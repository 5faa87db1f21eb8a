package mathexpr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

var (
	errEmpty     = errors.New("empty expression")
	errNotNumber = errors.New("expression did not evaluate to a number")
	errNonFinite = errors.New("result is not a finite number (division by zero?)")
	errOverflow  = errors.New("integer overflow")
	errInexact   = errors.New("not an exact integer expression")
)

// The parser recurses once per nesting level and a goroutine stack overflow
// cannot be recovered, so oversized or deeply nested input is refused up front.
const (
	maxExpressionLen = 64 << 10
	maxNestingDepth  = 256
)

// maxExactFloat is the largest magnitude at which every integer is exactly
// representable as a float64.
const maxExactFloat = 1 << 53

var binaryOperators = map[string]bool{
	"+":  true,
	"-":  true,
	"*":  true,
	"/":  true,
	"%":  true,
	"^":  true,
	"**": true,
}

// Value is the result of a successful computation.
type Value struct {
	i       int64
	f       float64
	isFloat bool
}

// IntValue returns an integer Value.
func IntValue(i int64) Value { return Value{i: i} }

// FloatValue returns a floating point Value.
func FloatValue(f float64) Value { return Value{f: f, isFloat: true} }

// IsFloat reports whether the value came out of floating point arithmetic.
func (v Value) IsFloat() bool { return v.isFloat }

// Float64 returns the value as a float64.
func (v Value) Float64() float64 {
	if v.isFloat {
		return v.f
	}
	return float64(v.i)
}

// String formats integers plainly and floats with at least one fractional
// digit ("25.0"), switching to exponent notation for very large or very small
// magnitudes.
func (v Value) String() string {
	if !v.isFloat {
		return strconv.FormatInt(v.i, 10)
	}
	abs := math.Abs(v.f)
	if abs != 0 && (abs >= 1e16 || abs < 1e-4) {
		return strconv.FormatFloat(v.f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v.f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// Compute evaluates an arithmetic expression. Integer literals combined with
// + - * % and exponentiation yield an integer; a float literal or a division
// makes the result a float. ^ and ** both mean exponentiation, not the bitwise
// XOR some evaluators give ^. Integer-only expressions are computed exactly in
// int64, so large powers such as 2**62 keep every digit.
func Compute(expression string) (_ Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(panicDetail(r))
		}
	}()

	if strings.TrimSpace(expression) == "" {
		return Value{}, errEmpty
	}
	if err := checkSize(expression); err != nil {
		return Value{}, err
	}

	tree, err := parser.Parse(expression)
	if err != nil {
		return Value{}, firstLine(err)
	}

	guard := &arithmeticOnly{}
	ast.Walk(&tree.Node, guard)
	if guard.err != nil {
		return Value{}, guard.err
	}

	overflowed := false
	if !guard.fractional {
		i, err := exactInt(tree.Node)
		switch {
		case err == nil:
			return IntValue(i), nil
		case errors.Is(err, errOverflow):
			overflowed = true
		}
	}

	program, err := expr.Compile(expression, expr.DisableAllBuiltins())
	if err != nil {
		return Value{}, firstLine(err)
	}

	out, err := expr.Run(program, nil)
	if err != nil {
		return Value{}, firstLine(err)
	}

	switch n := out.(type) {
	case int:
		// expr wraps on int overflow.
		if overflowed {
			return Value{}, errOverflow
		}
		return IntValue(int64(n)), nil
	case float64:
		if math.IsInf(n, 0) || math.IsNaN(n) {
			return Value{}, errNonFinite
		}
		if !guard.fractional && n == math.Trunc(n) && math.Abs(n) < maxExactFloat {
			return IntValue(int64(n)), nil
		}
		return FloatValue(n), nil
	default:
		return Value{}, errNotNumber
	}
}

func checkSize(expression string) error {
	if len(expression) > maxExpressionLen {
		return fmt.Errorf("expression is too long (%d bytes, limit %d)", len(expression), maxExpressionLen)
	}
	depth := 0
	for _, r := range expression {
		switch r {
		case '(', '[', '{':
			depth++
			if depth > maxNestingDepth {
				return fmt.Errorf("expression is nested too deeply (limit %d)", maxNestingDepth)
			}
		case ')', ']', '}':
			depth--
		}
	}
	return nil
}

// exactInt evaluates a tree of integer literals and + - * % ** ^ in int64.
// It returns errOverflow when a step leaves the int64 range and errInexact
// for anything it cannot compute exactly, such as a negative exponent.
func exactInt(node ast.Node) (int64, error) {
	switch n := node.(type) {
	case *ast.IntegerNode:
		return int64(n.Value), nil
	case *ast.UnaryNode:
		v, err := exactInt(n.Node)
		if err != nil {
			return 0, err
		}
		if n.Operator != "-" {
			return v, nil
		}
		if v == math.MinInt64 {
			return 0, errOverflow
		}
		return -v, nil
	case *ast.BinaryNode:
		l, err := exactInt(n.Left)
		if err != nil {
			return 0, err
		}
		r, err := exactInt(n.Right)
		if err != nil {
			return 0, err
		}
		switch n.Operator {
		case "+":
			return addInt(l, r)
		case "-":
			if r == math.MinInt64 {
				return 0, errOverflow
			}
			return addInt(l, -r)
		case "*":
			return mulInt(l, r)
		case "%":
			if r == 0 {
				return 0, errInexact
			}
			if r == -1 {
				return 0, nil
			}
			return l % r, nil
		case "^", "**":
			return powInt(l, r)
		}
	}
	return 0, errInexact
}

func addInt(a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, errOverflow
	}
	return a + b, nil
}

func mulInt(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	p := a * b
	if p/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, errOverflow
	}
	return p, nil
}

func powInt(base, exp int64) (int64, error) {
	if exp < 0 {
		return 0, errInexact
	}
	result := int64(1)
	for ; exp > 0; exp-- {
		if base == 0 || base == 1 {
			return base, nil
		}
		if base == -1 {
			if exp%2 == 0 {
				return result, nil
			}
			return -result, nil
		}
		var err error
		if result, err = mulInt(result, base); err != nil {
			return 0, err
		}
	}
	return result, nil
}

// arithmeticOnly rejects every node that is not a numeric literal or an
// arithmetic operator.
type arithmeticOnly struct {
	err        error
	fractional bool
}

func (v *arithmeticOnly) Visit(node *ast.Node) {
	if v.err != nil {
		return
	}
	switch n := (*node).(type) {
	case *ast.IntegerNode:
	case *ast.FloatNode:
		v.fractional = true
	case *ast.UnaryNode:
		if n.Operator != "-" && n.Operator != "+" {
			v.err = fmt.Errorf("unsupported operator %q", n.Operator)
		}
	case *ast.BinaryNode:
		if !binaryOperators[n.Operator] {
			v.err = fmt.Errorf("unsupported operator %q", n.Operator)
			return
		}
		if n.Operator == "/" {
			v.fractional = true
		}
	case *ast.IdentifierNode:
		v.err = fmt.Errorf("name %q is not defined", n.Value)
	case *ast.CallNode:
		v.err = errors.New("function calls are not allowed")
	case *ast.StringNode:
		v.err = errors.New("strings are not allowed")
	default:
		v.err = fmt.Errorf("unsupported syntax (%T)", n)
	}
}

// firstLine drops the source excerpt that expr appends to its errors.
func firstLine(err error) error {
	msg, _, _ := strings.Cut(err.Error(), "\n")
	return errors.New(strings.TrimSpace(msg))
}

func panicDetail(r any) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(r)
}
