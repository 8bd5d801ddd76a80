// Package loaders reads participating media definitions from pbrt-style scene descriptions.
package loaders

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/df07/go-participating-media/pkg/core"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrSyntax is returned for malformed statements and parameters
var ErrSyntax = errors.New("syntax error")

// PBRTStatement represents a parsed PBRT statement
type PBRTStatement struct {
	Type       string               // Statement type (MakeNamedMedium, Translate, etc.)
	Subtype    string               // Quoted name after the type, if any
	Parameters map[string]PBRTParam // Named parameters
	Args       []string             // Bare arguments of transform statements
}

// MediumStatement is a MakeNamedMedium definition with the transform in effect where it appeared
type MediumStatement struct {
	Name             string
	Kind             string
	Params           *ParameterDictionary
	RenderFromMedium core.Transform
}

// MediaDescription contains every named medium of a scene description, in file order
type MediaDescription struct {
	Media   []MediumStatement
	BaseDir string // Directory relative asset filenames resolve against
}

// Medium returns the statement defining name
func (d *MediaDescription) Medium(name string) (MediumStatement, bool) {
	for _, m := range d.Media {
		if m.Name == name {
			return m, true
		}
	}
	return MediumStatement{}, false
}

// PBRTParser encapsulates the state and logic for parsing PBRT files
type PBRTParser struct {
	desc           *MediaDescription
	ctm            core.Transform
	transformStack []core.Transform
	namedCoordSys  map[string]core.Transform
	statementLines []string
	lineNumber     int
}

// ParsePBRT reads the media definitions from PBRT content
func ParsePBRT(reader io.Reader) (*MediaDescription, error) {
	parser := NewPBRTParser()

	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for scanner.Scan() {
		parser.lineNumber++
		if err := parser.processLine(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading input: %w", err)
	}

	// Process any remaining accumulated statement
	if err := parser.finalize(); err != nil {
		return nil, err
	}
	return parser.desc, nil
}

// LoadPBRT loads a PBRT file; relative asset names resolve against its directory
func LoadPBRT(filename string) (*MediaDescription, error) {
	if err := validateFilePath(filename); err != nil {
		return nil, err
	}

	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PBRT file: %w", err)
	}
	defer file.Close()

	desc, err := ParsePBRT(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	desc.BaseDir = filepath.Dir(filename)
	return desc, nil
}

// NewPBRTParser creates a new PBRT parser instance
func NewPBRTParser() *PBRTParser {
	return &PBRTParser{
		desc:          &MediaDescription{},
		ctm:           core.IdentityTransform(),
		namedCoordSys: make(map[string]core.Transform),
	}
}

func (p *PBRTParser) errorf(format string, args ...any) error {
	return fmt.Errorf("line %d: %w: %s", p.lineNumber, ErrSyntax, fmt.Sprintf(format, args...))
}

// processAccumulatedStatement parses any accumulated statement lines and clears them
func (p *PBRTParser) processAccumulatedStatement() error {
	if len(p.statementLines) == 0 {
		return nil
	}
	fullStatement := strings.Join(p.statementLines, " ")
	p.statementLines = nil

	stmt, err := parseStatement(fullStatement)
	if err != nil {
		return p.errorf("%v in '%s'", err, fullStatement)
	}
	return p.routeStatement(stmt)
}

// processLine processes a single line of PBRT input
func (p *PBRTParser) processLine(line string) error {
	line = strings.TrimSpace(stripComment(line))
	if line == "" {
		return nil
	}

	// Directives without arguments end any pending statement
	switch line {
	case "WorldBegin", "WorldEnd", "AttributeBegin", "AttributeEnd", "TransformBegin", "TransformEnd", "Identity":
		if err := p.processAccumulatedStatement(); err != nil {
			return err
		}
		return p.processDirective(line)
	}

	if isStatementStart(line) {
		if err := p.processAccumulatedStatement(); err != nil {
			return err
		}
		p.statementLines = []string{line}
		return nil
	}

	// Continue previous statement
	if len(p.statementLines) == 0 {
		return p.errorf("unexpected continuation line: %s", line)
	}
	p.statementLines = append(p.statementLines, line)
	return nil
}

func (p *PBRTParser) processDirective(directive string) error {
	switch directive {
	case "WorldBegin":
		// World space is the render space of the media
		p.ctm = core.IdentityTransform()
		p.namedCoordSys["world"] = p.ctm
	case "AttributeBegin", "TransformBegin":
		p.transformStack = append(p.transformStack, p.ctm)
	case "AttributeEnd", "TransformEnd":
		if len(p.transformStack) == 0 {
			return p.errorf("unmatched %s", directive)
		}
		p.ctm = p.transformStack[len(p.transformStack)-1]
		p.transformStack = p.transformStack[:len(p.transformStack)-1]
	case "Identity":
		p.ctm = core.IdentityTransform()
	}
	return nil
}

// finalize processes any remaining accumulated statements
func (p *PBRTParser) finalize() error {
	if err := p.processAccumulatedStatement(); err != nil {
		return err
	}
	if len(p.transformStack) != 0 {
		return fmt.Errorf("%w: %d unclosed AttributeBegin blocks at end of file", ErrSyntax, len(p.transformStack))
	}
	return nil
}

// routeStatement applies transforms to the current transform and records media
func (p *PBRTParser) routeStatement(stmt *PBRTStatement) error {
	switch stmt.Type {
	case "Translate", "Scale", "Rotate", "Transform", "ConcatTransform":
		t, err := parseTransform(stmt)
		if err != nil {
			return p.errorf("%s: %v", stmt.Type, err)
		}
		if stmt.Type == "Transform" {
			p.ctm = t
		} else {
			p.ctm = p.ctm.Compose(t)
		}
	case "CoordinateSystem":
		p.namedCoordSys[stmt.Subtype] = p.ctm
	case "CoordSysTransform":
		t, ok := p.namedCoordSys[stmt.Subtype]
		if !ok {
			return p.errorf("unknown coordinate system %q", stmt.Subtype)
		}
		p.ctm = t
	case "MakeNamedMedium":
		return p.addMedium(stmt)
	}
	// Everything else describes cameras, shapes or lights and is skipped
	return nil
}

func (p *PBRTParser) addMedium(stmt *PBRTStatement) error {
	if stmt.Subtype == "" {
		return p.errorf("MakeNamedMedium requires a name")
	}
	if _, exists := p.desc.Medium(stmt.Subtype); exists {
		return p.errorf("named medium %q redefined", stmt.Subtype)
	}

	params := NewParameterDictionary()
	for name, param := range stmt.Parameters {
		params.Set(param.Type, name, param.Values...)
	}
	kind := params.GetOneString("type", "")
	if err := params.Err(); err != nil {
		return p.errorf("medium %q: %v", stmt.Subtype, err)
	}
	if kind == "" {
		return p.errorf("no \"string type\" given for medium %q", stmt.Subtype)
	}

	p.desc.Media = append(p.desc.Media, MediumStatement{
		Name:             stmt.Subtype,
		Kind:             kind,
		Params:           params,
		RenderFromMedium: p.ctm,
	})
	return nil
}

// parseTransform converts a transform statement's arguments into a transform
func parseTransform(stmt *PBRTStatement) (core.Transform, error) {
	values := make([]float64, len(stmt.Args))
	for i, s := range stmt.Args {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return core.Transform{}, fmt.Errorf("invalid number '%s'", s)
		}
		values[i] = v
	}

	want := map[string]int{"Translate": 3, "Scale": 3, "Rotate": 4, "Transform": 16, "ConcatTransform": 16}[stmt.Type]
	if len(values) != want {
		return core.Transform{}, fmt.Errorf("requires %d values, got %d", want, len(values))
	}

	switch stmt.Type {
	case "Translate":
		return core.Translate(core.NewVec3(values[0], values[1], values[2])), nil
	case "Scale":
		return core.Scale(values[0], values[1], values[2]), nil
	case "Rotate":
		return core.Rotate(values[0], core.NewVec3(values[1], values[2], values[3])), nil
	default:
		// Matrices are written one column after another, matching mgl64's layout
		var m mgl64.Mat4
		copy(m[:], values)
		return core.NewTransform(m), nil
	}
}

// validateFilePath validates a file path before opening it
func validateFilePath(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	// Check for null bytes (could indicate path manipulation)
	if strings.Contains(filename, "\x00") {
		return fmt.Errorf("invalid file path: null bytes not allowed")
	}

	cleanPath := filepath.Clean(filename)
	if !strings.HasSuffix(strings.ToLower(cleanPath), ".pbrt") {
		return fmt.Errorf("invalid file type: only .pbrt files are allowed")
	}
	if len(cleanPath) > 512 {
		return fmt.Errorf("file path too long: maximum 512 characters allowed")
	}
	return nil
}

// stripComment removes a trailing # comment that is not inside a quoted string
func stripComment(line string) string {
	inQuotes := false
	for i, char := range line {
		switch char {
		case '"':
			inQuotes = !inQuotes
		case '#':
			if !inQuotes {
				return line[:i]
			}
		}
	}
	return line
}

// tokenizePBRT tokenizes a PBRT line respecting quoted strings and brackets
func tokenizePBRT(line string) []string {
	var tokens []string
	var current strings.Builder
	inQuotes := false
	inBrackets := false

	flush := func() {
		if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}

	for _, char := range line {
		switch char {
		case '"':
			current.WriteRune(char)
			if inBrackets {
				continue
			}
			if inQuotes {
				// End of quoted string
				flush()
			}
			inQuotes = !inQuotes
		case '[':
			if inQuotes {
				current.WriteRune(char)
				continue
			}
			flush()
			current.WriteRune(char)
			inBrackets = true
		case ']':
			current.WriteRune(char)
			if !inQuotes && inBrackets {
				flush()
				inBrackets = false
			}
		case ' ', '\t':
			if inQuotes || inBrackets {
				current.WriteRune(char)
			} else {
				flush()
			}
		default:
			current.WriteRune(char)
		}
	}
	flush()

	return tokens
}

// parseStatement parses a single PBRT statement
func parseStatement(line string) (*PBRTStatement, error) {
	parts := tokenizePBRT(line)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty statement")
	}

	stmt := &PBRTStatement{
		Type:       parts[0],
		Parameters: make(map[string]PBRTParam),
	}
	parts = parts[1:]

	// Transform statements take bare numbers, optionally bracketed
	switch stmt.Type {
	case "Translate", "Scale", "Rotate", "Transform", "ConcatTransform", "LookAt":
		for _, part := range parts {
			stmt.Args = append(stmt.Args, strings.Fields(strings.Trim(part, "[]"))...)
		}
		return stmt, nil
	}

	// Extract subtype (quoted string after type)
	if len(parts) > 0 && isQuoted(parts[0]) {
		stmt.Subtype = strings.Trim(parts[0], "\"")
		parts = parts[1:]
	}

	// Parse "type name" value pairs
	for i := 0; i < len(parts); i++ {
		if !isQuoted(parts[i]) {
			return nil, fmt.Errorf("expected parameter declaration, found %s", parts[i])
		}
		paramParts := strings.Fields(strings.Trim(parts[i], "\""))
		if len(paramParts) != 2 {
			return nil, fmt.Errorf("malformed parameter declaration %s", parts[i])
		}
		if i+1 >= len(parts) {
			return nil, fmt.Errorf("missing value for parameter %s", parts[i])
		}
		i++

		var values []string
		if strings.HasPrefix(parts[i], "[") && strings.HasSuffix(parts[i], "]") {
			// Array value - already tokenized as single token
			values = strings.Fields(strings.Trim(parts[i], "[] "))
		} else {
			values = []string{parts[i]}
		}

		stmt.Parameters[paramParts[1]] = PBRTParam{
			Type:   paramParts[0],
			Values: values,
		}
	}

	return stmt, nil
}

func isQuoted(s string) bool {
	return len(s) >= 2 && strings.HasPrefix(s, "\"") && strings.HasSuffix(s, "\"")
}

// isStatementStart reports whether a line begins with a directive name.
// Continuation lines start with a quoted parameter, a bracket or a number.
func isStatementStart(line string) bool {
	char, _ := utf8.DecodeRuneInString(line)
	return unicode.IsUpper(char)
}
