// Package descriptor parses JVM method- and field-descriptor strings
// ("(IJLjava/lang/String;[I)V") into a typed FieldType tree and a
// MethodDescriptor. Class-file parsing proper is an external collaborator
// (spec.md §1); but every consumer of this core needs to turn a resolved
// method's descriptor into parameter computational types and operand
// sizes to seed the interpreter (spec.md §4.3 "locals slots filled from
// the method descriptor") and to build the TAC Parameters block (spec.md
// §4.6), so a concrete descriptor-string decoder lives here rather than
// being assumed away.
//
// This package mirrors the scan-then-build shape of a hand-written
// recursive-descent parser: a small cursor over the input runes, one
// parse function per grammar production.
package descriptor

import (
	"fmt"
	"strings"

	"github.com/bytecodeflow/jvmtac/pkg/bytecode"
)

// FieldType is the tagged union of JVM field types: a primitive, an array,
// or an object reference.
type FieldType interface {
	ComputationalType() bytecode.ComputationalType
	String() string
	fieldType()
}

// Primitive is one of the eight JVM base types.
type Primitive struct {
	Kind rune // 'B','C','D','F','I','J','S','Z'
}

func (p Primitive) fieldType() {}

func (p Primitive) ComputationalType() bytecode.ComputationalType {
	switch p.Kind {
	case 'D':
		return bytecode.TDouble
	case 'F':
		return bytecode.TFloat
	case 'J':
		return bytecode.TLong
	default: // B, C, I, S, Z all occupy one int-categorical slot at runtime
		return bytecode.TInt
	}
}

func (p Primitive) String() string { return string(p.Kind) }

// Array is a (possibly multi-dimensional) array type; Of is the element
// type one dimension down (so a 2-D int array is Array{Of: Array{Of:
// Primitive{'I'}}}).
type Array struct {
	Of FieldType
}

func (a Array) fieldType()                                   {}
func (a Array) ComputationalType() bytecode.ComputationalType { return bytecode.TReference }
func (a Array) String() string                                { return "[" + a.Of.String() }

// Object is a reference to a named class, e.g. "java/lang/String".
type Object struct {
	ClassName string
}

func (o Object) fieldType()                                   {}
func (o Object) ComputationalType() bytecode.ComputationalType { return bytecode.TReference }
func (o Object) String() string                                { return "L" + o.ClassName + ";" }

// MethodDescriptor is the parsed form of a method signature: its parameter
// types in declaration order and its return type (nil for void).
type MethodDescriptor struct {
	Params []FieldType
	Return FieldType // nil means void
}

// HasReturnValue reports whether the method yields a value (i.e. is not
// void).
func (m *MethodDescriptor) HasReturnValue() bool { return m.Return != nil }

// ParamOperandSize returns the number of local slots parameter i occupies
// (1, or 2 for long/double).
func (m *MethodDescriptor) ParamOperandSize(i int) int {
	return m.Params[i].ComputationalType().OperandSize()
}

// scanner is a minimal cursor over the descriptor string's runes.
type scanner struct {
	src []rune
	pos int
}

func (s *scanner) peek() (rune, bool) {
	if s.pos >= len(s.src) {
		return 0, false
	}
	return s.src[s.pos], true
}

func (s *scanner) advance() rune {
	r := s.src[s.pos]
	s.pos++
	return r
}

func (s *scanner) expect(r rune) error {
	got, ok := s.peek()
	if !ok || got != r {
		return fmt.Errorf("descriptor: expected %q at position %d, got %q", r, s.pos, string(got))
	}
	s.pos++
	return nil
}

// ParseMethodDescriptor parses a full method descriptor such as
// "(IJLjava/lang/String;)V".
func ParseMethodDescriptor(src string) (*MethodDescriptor, error) {
	s := &scanner{src: []rune(src)}
	if err := s.expect('('); err != nil {
		return nil, err
	}
	var params []FieldType
	for {
		r, ok := s.peek()
		if !ok {
			return nil, fmt.Errorf("descriptor: unterminated parameter list in %q", src)
		}
		if r == ')' {
			s.pos++
			break
		}
		ft, err := parseFieldType(s)
		if err != nil {
			return nil, err
		}
		params = append(params, ft)
	}
	ret, err := parseReturnType(s)
	if err != nil {
		return nil, err
	}
	if s.pos != len(s.src) {
		return nil, fmt.Errorf("descriptor: trailing characters after return type in %q", src)
	}
	return &MethodDescriptor{Params: params, Return: ret}, nil
}

// ParseFieldDescriptor parses a single field/array/object type, e.g.
// "[Ljava/lang/String;".
func ParseFieldDescriptor(src string) (FieldType, error) {
	s := &scanner{src: []rune(src)}
	ft, err := parseFieldType(s)
	if err != nil {
		return nil, err
	}
	if s.pos != len(s.src) {
		return nil, fmt.Errorf("descriptor: trailing characters in field descriptor %q", src)
	}
	return ft, nil
}

func parseReturnType(s *scanner) (FieldType, error) {
	r, ok := s.peek()
	if !ok {
		return nil, fmt.Errorf("descriptor: missing return type")
	}
	if r == 'V' {
		s.pos++
		return nil, nil
	}
	return parseFieldType(s)
}

func parseFieldType(s *scanner) (FieldType, error) {
	r, ok := s.peek()
	if !ok {
		return nil, fmt.Errorf("descriptor: unexpected end of input")
	}
	switch r {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		s.pos++
		return Primitive{Kind: r}, nil
	case '[':
		s.pos++
		of, err := parseFieldType(s)
		if err != nil {
			return nil, err
		}
		return Array{Of: of}, nil
	case 'L':
		s.pos++
		start := s.pos
		for {
			c, ok := s.peek()
			if !ok {
				return nil, fmt.Errorf("descriptor: unterminated class name starting at %d", start)
			}
			if c == ';' {
				name := string(s.src[start:s.pos])
				s.pos++
				return Object{ClassName: name}, nil
			}
			s.pos++
		}
	default:
		return nil, fmt.Errorf("descriptor: unexpected character %q", r)
	}
}

// Render reconstructs the descriptor string for a MethodDescriptor,
// primarily useful in diagnostics (spec.md §7 tags failures with "method
// name, descriptor").
func Render(m *MethodDescriptor) string {
	var b strings.Builder
	b.WriteByte('(')
	for _, p := range m.Params {
		b.WriteString(p.String())
	}
	b.WriteByte(')')
	if m.Return == nil {
		b.WriteByte('V')
	} else {
		b.WriteString(m.Return.String())
	}
	return b.String()
}
