package object

import (
	"bytes"
)

// KVLM is the key-value-list-with-message payload shared by commits and
// tags: an ordered multimap of header fields followed by a free-form
// message. Keys keep their first-seen order and every value of a repeated
// key is kept in order.
type KVLM struct {
	keys    []string
	fields  map[string][][]byte
	Message []byte
}

// NewKVLM returns an empty KVLM.
func NewKVLM() *KVLM {
	return &KVLM{fields: make(map[string][][]byte)}
}

// Add appends a value for key, preserving any earlier values.
func (k *KVLM) Add(key string, value []byte) {
	if k.fields == nil {
		k.fields = make(map[string][][]byte)
	}
	if _, ok := k.fields[key]; !ok {
		k.keys = append(k.keys, key)
	}
	v := make([]byte, len(value))
	copy(v, value)
	k.fields[key] = append(k.fields[key], v)
}

// Set replaces every value of key with value. A new key goes last.
func (k *KVLM) Set(key string, value []byte) {
	if _, ok := k.fields[key]; ok {
		k.fields[key] = nil
	}
	k.Add(key, value)
}

// Get returns the first value of key.
func (k *KVLM) Get(key string) ([]byte, bool) {
	vals := k.fields[key]
	if len(vals) == 0 {
		return nil, false
	}
	return vals[0], true
}

// Values returns every value of key in stored order.
func (k *KVLM) Values(key string) [][]byte {
	return k.fields[key]
}

// Keys returns header keys in insertion order.
func (k *KVLM) Keys() []string {
	out := make([]string, len(k.keys))
	copy(out, k.keys)
	return out
}

// ParseKVLM parses a commit or tag payload.
//
// Header lines are "key SP value LF". A value continues onto following lines
// that begin with a single space; the marker is dropped and the lines are
// joined with LF. The first empty line ends the headers and everything after
// it is the message, verbatim.
func ParseKVLM(data []byte) (*KVLM, error) {
	kv := NewKVLM()
	pos := 0
	for {
		if pos >= len(data) {
			return nil, malformed("kvlm: missing blank line before message")
		}

		rest := data[pos:]
		sp := bytes.IndexByte(rest, ' ')
		nl := bytes.IndexByte(rest, '\n')

		// A newline before any space means this is the blank separator line.
		if sp < 0 || (nl >= 0 && nl < sp) {
			if nl != 0 {
				return nil, malformed("kvlm: header line without value at offset %d", pos)
			}
			kv.Message = append([]byte(nil), data[pos+1:]...)
			return kv, nil
		}
		if sp == 0 {
			return nil, malformed("kvlm: empty key at offset %d", pos)
		}

		key := string(rest[:sp])

		// The value ends at the first newline not followed by a space.
		end := sp
		for {
			n := bytes.IndexByte(rest[end+1:], '\n')
			if n < 0 {
				return nil, malformed("kvlm: unterminated value for key %q", key)
			}
			end += 1 + n
			if end+1 >= len(rest) || rest[end+1] != ' ' {
				break
			}
		}

		value := bytes.ReplaceAll(rest[sp+1:end], []byte("\n "), []byte("\n"))
		kv.Add(key, value)
		pos += end + 1
	}
}

// Bytes serializes the KVLM. Keys are emitted in insertion order, each value
// on its own header line with embedded newlines re-escaped as "\n ", then a
// blank line and the message.
func (k *KVLM) Bytes() []byte {
	var buf bytes.Buffer
	for _, key := range k.keys {
		for _, v := range k.fields[key] {
			buf.WriteString(key)
			buf.WriteByte(' ')
			buf.Write(bytes.ReplaceAll(v, []byte("\n"), []byte("\n ")))
			buf.WriteByte('\n')
		}
	}
	buf.WriteByte('\n')
	buf.Write(k.Message)
	return buf.Bytes()
}
