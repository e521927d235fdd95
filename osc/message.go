// Package osc implements the restricted OSC-style datagram format spoken
// between the appliance processes.
//
// A message is an address, an optional type-tag section and up to MaxArgs
// arguments. Every field is aligned to four bytes; numeric arguments are
// big-endian on the wire.
package osc

import (
	"fmt"
	"strings"
)

const (
	// MaxArgs is the maximum number of arguments in one message.
	MaxArgs = 3
	// MaxDatagramSize is the largest encoded message (receive and send buffer size).
	MaxDatagramSize = 1024
)

// ArgType is the one-byte type tag of an argument.
type ArgType byte

// Supported argument types.
const (
	TypeInt32   ArgType = 'i'
	TypeFloat32 ArgType = 'f'
	TypeString  ArgType = 's'
)

func (t ArgType) String() string {
	switch t {
	case TypeInt32:
		return "int32"
	case TypeFloat32:
		return "float32"
	case TypeString:
		return "string"
	default:
		return fmt.Sprintf("type(%q)", byte(t))
	}
}

// Valid reports whether t is a supported type tag.
func (t ArgType) Valid() bool {
	return t == TypeInt32 || t == TypeFloat32 || t == TypeString
}

// Arg is one typed argument.
// Len is the wire length of the value: 4 for numerics, the byte length
// (excluding padding) for strings.
type Arg struct {
	Type  ArgType
	Int   int32
	Float float32
	Str   string
	Len   int
}

// Int returns an int32 argument.
func Int(v int32) Arg {
	return Arg{Type: TypeInt32, Int: v, Len: 4}
}

// Float returns a float32 argument.
func Float(v float32) Arg {
	return Arg{Type: TypeFloat32, Float: v, Len: 4}
}

// String returns a string argument.
func String(v string) Arg {
	return Arg{Type: TypeString, Str: v, Len: len(v)}
}

// Value returns the argument value as an untyped Go value.
func (a Arg) Value() any {
	switch a.Type {
	case TypeInt32:
		return a.Int
	case TypeFloat32:
		return a.Float
	case TypeString:
		return a.Str
	default:
		return nil
	}
}

func (a Arg) String() string {
	switch a.Type {
	case TypeInt32:
		return fmt.Sprintf("i:%d", a.Int)
	case TypeFloat32:
		return fmt.Sprintf("f:%g", a.Float)
	case TypeString:
		return fmt.Sprintf("s:%q", a.Str)
	default:
		return a.Type.String()
	}
}

// Message is one decoded or to-be-encoded datagram.
type Message struct {
	Address string
	Args    []Arg
}

// NewMessage builds a message from an address and arguments.
func NewMessage(address string, args ...Arg) *Message {
	return &Message{Address: address, Args: args}
}

// TypeTags returns the type-tag string without the leading comma.
func (m *Message) TypeTags() string {
	var b strings.Builder
	for _, a := range m.Args {
		b.WriteByte(byte(a.Type))
	}
	return b.String()
}

// IntArg returns the int32 value at index i, if present with that type.
func (m *Message) IntArg(i int) (int32, bool) {
	if i < 0 || i >= len(m.Args) || m.Args[i].Type != TypeInt32 {
		return 0, false
	}
	return m.Args[i].Int, true
}

// StringArg returns the string value at index i, if present with that type.
func (m *Message) StringArg(i int) (string, bool) {
	if i < 0 || i >= len(m.Args) || m.Args[i].Type != TypeString {
		return "", false
	}
	return m.Args[i].Str, true
}

func (m *Message) String() string {
	if len(m.Args) == 0 {
		return m.Address
	}
	parts := make([]string, len(m.Args))
	for i, a := range m.Args {
		parts[i] = a.String()
	}
	return m.Address + " " + strings.Join(parts, " ")
}
