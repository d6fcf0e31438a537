package object

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"
)

// HashSize is the length in bytes of a raw object id.
const HashSize = sha1.Size

var hexHashRE = regexp.MustCompile(`^[0-9a-f]{40}$`)

// Envelope returns the exact bytes that are hashed and stored for an object:
// "type len\0content".
func Envelope(objType ObjectType, data []byte) []byte {
	header := fmt.Sprintf("%s %d\x00", objType, len(data))
	out := make([]byte, 0, len(header)+len(data))
	out = append(out, header...)
	return append(out, data...)
}

// HashObject computes the SHA-1 of the envelope "type len\0content".
func HashObject(objType ObjectType, data []byte) Hash {
	h := sha1.New()
	fmt.Fprintf(h, "%s %d\x00", objType, len(data))
	h.Write(data)
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

// HashOf serializes obj and returns the id it would be stored under.
func HashOf(obj Object) (Hash, error) {
	data, err := obj.Marshal()
	if err != nil {
		return "", err
	}
	return HashObject(obj.Type(), data), nil
}

// Valid reports whether h is a full 40-character lowercase hex id.
func (h Hash) Valid() bool {
	return hexHashRE.MatchString(string(h))
}

// Short returns the 7-character abbreviation used in human output.
func (h Hash) Short() string {
	if len(h) < 7 {
		return string(h)
	}
	return string(h[:7])
}

func (h Hash) raw() ([]byte, error) {
	if !h.Valid() {
		return nil, malformed("invalid object id %q", string(h))
	}
	return hex.DecodeString(string(h))
}

func hashFromRaw(b []byte) Hash {
	return Hash(hex.EncodeToString(b))
}
