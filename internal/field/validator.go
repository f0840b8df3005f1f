// Package field validates and normalizes raw user answers against a
// catalog field definition.
package field

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/harunnryd/deskflow/internal/catalog"
)

const (
	MsgRequired      = "This field is required."
	MsgInvalidFormat = "Invalid format."
	MsgInvalidOption = "is not a valid option"
	MsgEmail         = "Please enter a valid email address."
	MsgPhone         = "Please enter a valid phone number."
	MsgNumber        = "Please enter a number."
)

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern  = regexp.MustCompile(`^\+?[0-9 ().\-]{7,20}$`)
	numberPattern = regexp.MustCompile(`^-?\d+([.,]\d+)?$`)

	patternCache sync.Map // string -> *regexp.Regexp
)

// Result is the outcome of validating one answer. When Valid is false,
// Error holds the message to show the user; Value is then empty.
type Result struct {
	Valid bool
	Value string
	Error string
}

func ok(value string) Result {
	return Result{Valid: true, Value: value}
}

func invalid(msg string) Result {
	return Result{Error: msg}
}

// Blank reports whether raw is empty or whitespace only.
func Blank(raw string) bool {
	return strings.TrimSpace(raw) == ""
}

// Validate checks raw against def and returns the normalized value.
// A blank answer to an optional field is valid and normalizes to "".
func Validate(def catalog.FieldDefinition, raw string) Result {
	value := strings.TrimSpace(raw)
	if value == "" {
		if def.Required {
			return invalid(MsgRequired)
		}
		return ok("")
	}

	switch def.Type {
	case catalog.FieldSelect:
		return validateSelect(def, value)
	case catalog.FieldEmail:
		if !emailPattern.MatchString(value) {
			return invalid(MsgEmail)
		}
		return ok(value)
	case catalog.FieldPhone:
		if !phonePattern.MatchString(value) || countDigits(value) < 7 {
			return invalid(MsgPhone)
		}
		return ok(value)
	case catalog.FieldNumber:
		if !numberPattern.MatchString(value) {
			return invalid(MsgNumber)
		}
		return ok(strings.Replace(value, ",", ".", 1))
	default:
		return validateText(def, value)
	}
}

func validateText(def catalog.FieldDefinition, value string) Result {
	length := utf8.RuneCountInString(value)
	if def.MinLength > 0 && length < def.MinLength {
		return invalid(fmt.Sprintf("Please enter at least %d characters.", def.MinLength))
	}
	if def.MaxLength > 0 && length > def.MaxLength {
		return invalid(fmt.Sprintf("Please enter no more than %d characters.", def.MaxLength))
	}

	if def.Pattern != "" {
		re, err := compile(def.Pattern)
		if err != nil || !re.MatchString(value) {
			if def.PatternError != "" {
				return invalid(def.PatternError)
			}
			return invalid(MsgInvalidFormat)
		}
	}
	return ok(value)
}

// validateSelect tries, in order: a 1-based index, an exact
// case-insensitive label, then a partial match that hits exactly one option.
func validateSelect(def catalog.FieldDefinition, value string) Result {
	if isDigits(value) {
		idx, err := strconv.Atoi(value)
		if err == nil && idx >= 1 && idx <= len(def.Options) {
			return ok(def.Options[idx-1])
		}
		return invalid(optionError(def, value))
	}

	for _, opt := range def.Options {
		if strings.EqualFold(opt, value) {
			return ok(opt)
		}
	}

	lowered := strings.ToLower(value)
	if opt, found := uniqueMatch(def.Options, func(opt string) bool {
		return strings.Contains(strings.ToLower(opt), lowered)
	}); found {
		return ok(opt)
	}
	if opt, found := uniqueMatch(def.Options, func(opt string) bool {
		return strings.Contains(lowered, strings.ToLower(opt))
	}); found {
		return ok(opt)
	}

	return invalid(optionError(def, value))
}

func uniqueMatch(options []string, match func(string) bool) (string, bool) {
	var hit string
	count := 0
	for _, opt := range options {
		if match(opt) {
			hit = opt
			count++
		}
	}
	return hit, count == 1
}

func optionError(def catalog.FieldDefinition, value string) string {
	return fmt.Sprintf("%q %s. Please choose one of:\n%s", value, MsgInvalidOption, FormatOptions(def.Options))
}

// FormatOptions renders options as a numbered list, one per line.
func FormatOptions(options []string) string {
	var b strings.Builder
	for i, opt := range options {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, opt)
	}
	return b.String()
}

func compile(pattern string) (*regexp.Regexp, error) {
	if cached, ok := patternCache.Load(pattern); ok {
		return cached.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patternCache.Store(pattern, re)
	return re, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
