// Package inputval holds small validators for request payloads.
package inputval

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
)

// IsValidEmail reports whether s is a bare address of the form local@domain.
// Display-name forms, whitespace and empty, leading, trailing or doubled
// dots in either part are rejected. Single-label domains are allowed.
func IsValidEmail(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t\r\n<>()[],;:\"\\") {
		return false
	}
	local, domain, ok := strings.Cut(s, "@")
	if !ok || strings.Contains(domain, "@") {
		return false
	}
	return dotAtom(local) && dotAtom(domain)
}

func dotAtom(s string) bool {
	if s == "" || strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		return false
	}
	return !strings.Contains(s, "..")
}

// Result collects validation messages in field order.
type Result struct {
	errs []string
}

func (r Result) HasErrors() bool { return len(r.errs) > 0 }

// All returns every message.
func (r Result) All() []string { return append([]string(nil), r.errs...) }

// First returns the first message or "".
func (r Result) First() string {
	if len(r.errs) == 0 {
		return ""
	}
	return r.errs[0]
}

// Validate checks exported string fields of a struct (or pointer to one)
// against their `validate` tag. Supported rules: required, email, min=N,
// max=N (N counts runes). The `label` tag names the field in messages.
func Validate(v any) Result {
	var res Result
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return res
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return res
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		tag := f.Tag.Get("validate")
		if tag == "" || !f.IsExported() || f.Type.Kind() != reflect.String {
			continue
		}
		label := f.Tag.Get("label")
		if label == "" {
			label = f.Name
		}
		if msg := check(label, strings.TrimSpace(rv.Field(i).String()), tag); msg != "" {
			res.errs = append(res.errs, msg)
		}
	}
	return res
}

func check(label, val, tag string) string {
	for _, rule := range strings.Split(tag, ",") {
		name, arg, _ := strings.Cut(rule, "=")
		switch name {
		case "required":
			if val == "" {
				return label + " is required."
			}
		case "email":
			if val != "" && !IsValidEmail(val) {
				return "A valid email address is required."
			}
		case "min":
			n, _ := strconv.Atoi(arg)
			if val != "" && utf8.RuneCountInString(val) < n {
				return fmt.Sprintf("%s must be at least %d characters.", label, n)
			}
		case "max":
			n, _ := strconv.Atoi(arg)
			if utf8.RuneCountInString(val) > n {
				return fmt.Sprintf("%s must be at most %d characters.", label, n)
			}
		}
	}
	return ""
}
