package replacer

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrEmptySearch is returned when the search text is blank
var ErrEmptySearch = errors.New("search text cannot be empty")

// ErrUnresolvedReference is returned when a replacement template refers to a
// capture group the pattern does not define
var ErrUnresolvedReference = errors.New("replacement references an unknown capture group")

// Pattern finds and replaces text within a single line.
// Implementations are safe for concurrent use once compiled.
type Pattern interface {
	// Replace returns the line with every match replaced and whether anything matched.
	Replace(line string) (string, bool)
	// String returns the search text as given by the user.
	String() string
}

// CompilePattern builds the Pattern for a run. Search is compiled as a
// regular expression unless literal is set; in that case both search and
// replace are plain text. For regular expressions every $name, ${name} and
// $N reference in replace must resolve against the compiled expression.
func CompilePattern(search, replace string, literal bool) (Pattern, error) {
	if search == "" {
		return nil, ErrEmptySearch
	}
	if literal {
		return &literalPattern{search: search, replace: replace}, nil
	}

	re, err := regexp.Compile(search)
	if err != nil {
		return nil, fmt.Errorf("invalid search pattern %q: %w", search, err)
	}
	if err := validateTemplate(re, replace); err != nil {
		return nil, err
	}
	return &regexPattern{re: re, template: replace}, nil
}

type literalPattern struct {
	search  string
	replace string
}

func (p *literalPattern) Replace(line string) (string, bool) {
	if !strings.Contains(line, p.search) {
		return line, false
	}
	return strings.ReplaceAll(line, p.search, p.replace), true
}

func (p *literalPattern) String() string { return p.search }

type regexPattern struct {
	re       *regexp.Regexp
	template string
}

func (p *regexPattern) Replace(line string) (string, bool) {
	if !p.re.MatchString(line) {
		return line, false
	}
	return p.re.ReplaceAllString(line, p.template), true
}

func (p *regexPattern) String() string { return p.re.String() }

// validateTemplate walks template with the same rules regexp.Expand uses and
// checks every group reference. A "$" that does not start a reference is
// copied literally by Expand, so it is accepted here too.
func validateTemplate(re *regexp.Regexp, template string) error {
	for i := 0; i < len(template); i++ {
		if template[i] != '$' {
			continue
		}
		rest := template[i+1:]
		if strings.HasPrefix(rest, "$") {
			i++
			continue
		}

		name, size, ok := extractReference(rest)
		if !ok {
			continue
		}
		if !referenceExists(re, name) {
			return fmt.Errorf("%w: $%s in %q", ErrUnresolvedReference, name, template)
		}
		i += size
	}
	return nil
}

// extractReference parses a group name at the start of s, either bare
// ($name) or braced (${name}). size is the number of bytes consumed.
func extractReference(s string) (name string, size int, ok bool) {
	if s == "" {
		return "", 0, false
	}
	brace := false
	if s[0] == '{' {
		brace = true
		s = s[1:]
	}

	n := 0
	for n < len(s) {
		r, width := utf8.DecodeRuneInString(s[n:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		n += width
	}
	if n == 0 {
		return "", 0, false
	}
	name = s[:n]

	if brace {
		if n >= len(s) || s[n] != '}' {
			return "", 0, false
		}
		return name, n + 2, true
	}
	return name, n, true
}

// referenceExists resolves name the way regexp.Expand does: all digits
// without a leading zero is a group index, anything else a group name.
func referenceExists(re *regexp.Regexp, name string) bool {
	if isDigits(name) && (name[0] != '0' || len(name) == 1) {
		if num, err := strconv.Atoi(name); err == nil {
			return num <= re.NumSubexp()
		}
	}
	return re.SubexpIndex(name) >= 0
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
