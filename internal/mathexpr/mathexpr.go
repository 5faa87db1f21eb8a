// Package mathexpr cleans up free-form calculator input produced by an LLM and
// evaluates the arithmetic expression it contains with a restricted evaluator.
//
// Input may arrive wrapped in markdown fences or surrounded by prose. Evaluate
// strips the fences, picks out the first "<number><operator><number>" pair,
// removes whitespace and computes the result. Only numeric literals and
// arithmetic operators are accepted; names, calls, strings and every other
// expression construct are rejected before anything is run.
package mathexpr

import (
	"regexp"
	"strings"
	"unicode"
)

// ErrorPrefix starts every result string that reports a failure.
const ErrorPrefix = "Error calculating expression: "

const (
	fence     = "```"
	textFence = "```text"
)

// operandPair matches two runs of digits joined by a single operator or
// whitespace character. Spaces are tolerated around the operator.
var operandPair = regexp.MustCompile(`\d+\s*[\s*+\-/^.]\s*\d+`)

// Evaluate extracts and evaluates the arithmetic expression in raw.
// It never fails: errors are returned as text starting with ErrorPrefix.
func Evaluate(raw string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = ErrorPrefix + panicDetail(r)
		}
	}()

	value, err := Compute(Extract(StripFences(raw)))
	if err != nil {
		return ErrorPrefix + err.Error()
	}
	return value.String()
}

// StripFences returns the body of the first markdown code fence in raw.
// A fence tagged "text" wins over an untagged one. Without a fence raw is
// returned unchanged.
func StripFences(raw string) string {
	if _, after, ok := strings.Cut(raw, textFence); ok {
		body, _, _ := strings.Cut(after, fence)
		return strings.TrimSpace(body)
	}
	if strings.Contains(raw, fence) {
		parts := strings.SplitN(raw, fence, 3)
		return strings.TrimSpace(parts[1])
	}
	return raw
}

// Extract narrows text to the first operand pair, if there is one, and drops
// all whitespace. Text without a match is kept as-is apart from whitespace.
func Extract(text string) string {
	if m := operandPair.FindString(text); m != "" {
		text = m
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
}
