package osc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// Encode serializes m into its wire form.
//
// Layout:
//   - address, one zero terminator, zero padding to a 4-byte boundary
//   - if there are arguments: ',' plus one tag per argument, then 1-4 zero
//     bytes so the section ends on a boundary with at least one pad byte
//   - each argument: int32/float32 as 4 big-endian bytes; strings as raw
//     bytes followed by 1-4 zero bytes (the first one is the terminator)
//
// The result length is always a multiple of 4.
func Encode(m *Message) ([]byte, error) {
	if err := validate(m); err != nil {
		return nil, err
	}

	buf := make([]byte, 0, EncodedSize(m))
	buf = append(buf, m.Address...)
	buf = append(buf, 0)
	buf = padTo4(buf)

	if len(m.Args) > 0 {
		buf = append(buf, ',')
		for _, a := range m.Args {
			buf = append(buf, byte(a.Type))
		}
		buf = padAtLeastOne(buf)
	}

	for _, a := range m.Args {
		switch a.Type {
		case TypeInt32:
			buf = binary.BigEndian.AppendUint32(buf, uint32(a.Int))
		case TypeFloat32:
			buf = binary.BigEndian.AppendUint32(buf, math.Float32bits(a.Float))
		case TypeString:
			buf = append(buf, a.Str...)
			buf = padAtLeastOne(buf)
		}
	}

	if len(buf) > MaxDatagramSize {
		return nil, &EncodeError{
			Kind: ErrTooLarge,
			Msg:  fmt.Sprintf("encoded size %d exceeds maximum %d", len(buf), MaxDatagramSize),
		}
	}
	return buf, nil
}

// EncodedSize returns the wire size of m without encoding it.
// m is assumed valid.
func EncodedSize(m *Message) int {
	n := align4(len(m.Address) + 1)
	if len(m.Args) > 0 {
		n += alignAtLeastOne(1 + len(m.Args))
	}
	for _, a := range m.Args {
		if a.Type == TypeString {
			n += alignAtLeastOne(len(a.Str))
		} else {
			n += 4
		}
	}
	return n
}

func validate(m *Message) error {
	if m == nil || m.Address == "" {
		return &EncodeError{Kind: ErrNoAddress, Msg: "empty address"}
	}
	if m.Address[0] != '/' {
		return &EncodeError{Kind: ErrNoAddress, Msg: fmt.Sprintf("address %q does not start with '/'", m.Address)}
	}
	if strings.IndexByte(m.Address, 0) >= 0 {
		return &EncodeError{Kind: ErrNoAddress, Msg: "address contains a zero byte"}
	}
	if len(m.Args) > MaxArgs {
		return &EncodeError{
			Kind: ErrTooManyArgs,
			Msg:  fmt.Sprintf("%d arguments exceeds maximum %d", len(m.Args), MaxArgs),
		}
	}
	for i, a := range m.Args {
		if !a.Type.Valid() {
			return &EncodeError{Kind: ErrBadType, Msg: fmt.Sprintf("argument %d: unsupported %s", i, a.Type)}
		}
		if a.Type == TypeString && strings.IndexByte(a.Str, 0) >= 0 {
			return &EncodeError{Kind: ErrBadType, Msg: fmt.Sprintf("argument %d: string contains a zero byte", i)}
		}
	}
	return nil
}

// Decode parses one datagram.
//
// Decoding is structural only. A buffer that does not start with '/' or
// that carries bytes after the address which do not open a type-tag
// section is rejected. Arguments that do not fit in the remaining bytes are
// not recorded and end the scan; the message decoded so far is returned.
// Decode never reads past the end of b.
func Decode(b []byte) (*Message, error) {
	if len(b) == 0 || b[0] != '/' {
		return nil, &DecodeError{Kind: ErrNoAddress, Offset: 0, Msg: "missing leading '/'"}
	}

	// The end of the datagram terminates an address with no zero byte.
	end := bytes.IndexByte(b, 0)
	if end < 0 {
		end = len(b)
	}
	msg := &Message{Address: string(b[:end])}

	pos := end + 1
	for pos < len(b) && b[pos] == 0 {
		pos++
	}
	if pos >= len(b) {
		return msg, nil
	}
	if b[pos] != ',' {
		return nil, &DecodeError{
			Kind:   ErrMissingTypeTags,
			Offset: pos,
			Msg:    fmt.Sprintf("expected ',' got 0x%02x", b[pos]),
		}
	}

	tagStart := pos + 1
	tagEnd := tagStart
	for tagEnd < len(b) && b[tagEnd] != 0 {
		tagEnd++
	}
	tags := b[tagStart:tagEnd]
	pos = min(tagEnd+padLen(tagEnd), len(b))

	for _, tag := range tags {
		if len(msg.Args) == MaxArgs {
			break
		}
		arg, next, ok := decodeArg(b, pos, ArgType(tag))
		if !ok {
			break
		}
		msg.Args = append(msg.Args, arg)
		pos = next
	}
	return msg, nil
}

// decodeArg reads one argument at pos. ok is false when the argument does
// not fit in b or the tag is unsupported.
func decodeArg(b []byte, pos int, t ArgType) (arg Arg, next int, ok bool) {
	switch t {
	case TypeInt32:
		if pos+4 > len(b) {
			return Arg{}, pos, false
		}
		return Int(int32(binary.BigEndian.Uint32(b[pos:]))), pos + 4, true
	case TypeFloat32:
		if pos+4 > len(b) {
			return Arg{}, pos, false
		}
		return Float(math.Float32frombits(binary.BigEndian.Uint32(b[pos:]))), pos + 4, true
	case TypeString:
		n := bytes.IndexByte(b[pos:], 0)
		if n < 0 {
			return Arg{}, pos, false
		}
		strEnd := pos + n
		return String(string(b[pos:strEnd])), min(strEnd+padLen(strEnd), len(b)), true
	default:
		return Arg{}, pos, false
	}
}

// padLen returns the 1-4 pad bytes that follow a string or tag section
// ending at offset n.
func padLen(n int) int {
	return 4 - n%4
}

func align4(n int) int {
	return (n + 3) &^ 3
}

func alignAtLeastOne(n int) int {
	return n + padLen(n)
}

func padTo4(buf []byte) []byte {
	for len(buf)%4 != 0 {
		buf = append(buf, 0)
	}
	return buf
}

func padAtLeastOne(buf []byte) []byte {
	for range padLen(len(buf)) {
		buf = append(buf, 0)
	}
	return buf
}
