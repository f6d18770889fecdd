// Package phones formats, classifies, and filters phone numbers. Only
// mobile-class numbers survive into pipeline output.
package phones

import "regexp"

// ScanRe finds phone-shaped tokens inside free text.
var ScanRe = regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)

var digitsRe = regexp.MustCompile(`\D`)

// Digits strips everything but digits and drops a leading country code 1
// from 11-digit numbers. Returns "" when the result is not a 10-digit
// North-American number.
func Digits(raw string) string {
	d := digitsRe.ReplaceAllString(raw, "")
	if len(d) == 11 && d[0] == '1' {
		d = d[1:]
	}
	if len(d) != 10 {
		return ""
	}
	return d
}

// Format renders a number as "(NNN) NNN-NNNN". Formatting an already
// formatted number returns the same string; invalid input returns "".
func Format(raw string) string {
	d := Digits(raw)
	if d == "" {
		return ""
	}
	return "(" + d[:3] + ") " + d[3:6] + "-" + d[6:]
}

// IsPhone reports whether a cell value contains a valid 10- or 11-digit
// North-American phone number.
func IsPhone(value string) bool {
	return Digits(value) != ""
}

// ContainsPhone scans free text for any phone-shaped token that validates.
func ContainsPhone(text string) bool {
	for _, m := range ScanRe.FindAllString(text, -1) {
		if Digits(m) != "" {
			return true
		}
	}
	return false
}

// AreaCode returns the three-digit area code of a valid number, or "".
func AreaCode(raw string) string {
	d := Digits(raw)
	if d == "" {
		return ""
	}
	return d[:3]
}

// FirstPhones returns up to max distinct formatted numbers found across the
// given cell values, in first-found order.
func FirstPhones(values []string, max int) []string {
	var out []string
	seen := map[string]bool{}
	for _, v := range values {
		for _, m := range ScanRe.FindAllString(v, -1) {
			f := Format(m)
			if f == "" || seen[f] {
				continue
			}
			seen[f] = true
			out = append(out, f)
			if len(out) == max {
				return out
			}
		}
	}
	return out
}
