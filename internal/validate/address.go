package validate

import (
	"regexp"
	"strings"
)

// Address is the structured result of parsing a free-text postal address.
type Address struct {
	Number string
	Street string
	Zip    string
}

var (
	numberRe = regexp.MustCompile(`^\d+[A-Za-z]?$`)
	zipRe    = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)
	letterRe = regexp.MustCompile(`[A-Za-z]`)
)

// ParseAddress extracts the street number, street name and zip code from a
// free-text US-style address. It returns nil when any of the three parts is
// missing; malformed input never panics, it simply fails to parse.
func ParseAddress(text string) *Address {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil
	}

	zip := zipRe.FindString(s)
	if zip == "" {
		return nil
	}

	// The street portion is everything before the first comma, or the whole
	// string for comma-free input.
	street := s
	if i := strings.Index(s, ","); i >= 0 {
		street = s[:i]
	}

	fields := strings.Fields(street)
	if len(fields) < 2 {
		return nil
	}

	number := fields[0]
	if !numberRe.MatchString(number) {
		return nil
	}

	// Drop a trailing zip token so comma-free addresses keep a clean street name.
	nameFields := fields[1:]
	if last := nameFields[len(nameFields)-1]; zipRe.MatchString(last) {
		nameFields = nameFields[:len(nameFields)-1]
	}

	name := strings.Join(nameFields, " ")
	if name == "" || !letterRe.MatchString(name) {
		return nil
	}

	return &Address{
		Number: number,
		Street: name,
		Zip:    zip,
	}
}
