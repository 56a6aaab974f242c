package utils

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/x/bsonx/bsoncore"
)

// sixIDSubtype is the BSON binary subtype used to store SixID values.
const sixIDSubtype byte = 0x80

// SixIDHookFunc defines the signature for the NewSixID test hook.
// It returns a SixID and a boolean indicating whether to override the default generation.
type SixIDHookFunc func() (id SixID, override bool)

// NewSixIDHook is a package-level variable that tests can set to override NewSixID behavior.
var NewSixIDHook SixIDHookFunc

// ErrInvalidSixID is returned when a string cannot be decoded as a SixID.
var ErrInvalidSixID = errors.New("invalid id")

// SixID is a 6-byte document ID, rendered as 10 Crockford Base32 characters
// and stored in Mongo as binary subtype 0x80.
type SixID [6]byte

// NewSixID creates a new random SixID.
func NewSixID() SixID {
	if NewSixIDHook != nil {
		if id, override := NewSixIDHook(); override {
			return id
		}
	}

	var id SixID
	if _, err := rand.Read(id[:]); err != nil {
		panic(fmt.Sprintf("sixid: crypto/rand failed: %v", err))
	}
	return id
}

// IsZero reports whether the ID is unset.
func (u SixID) IsZero() bool {
	return u == SixID{}
}

const crockfordAlphabet = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var crockfordDecodeMap [256]int8

func init() {
	for i := range crockfordDecodeMap {
		crockfordDecodeMap[i] = -1
	}
	for i := 0; i < len(crockfordAlphabet); i++ {
		c := crockfordAlphabet[i]
		crockfordDecodeMap[c] = int8(i)
		crockfordDecodeMap[strings.ToLower(string(c))[0]] = int8(i)
	}
	// Commonly confused characters.
	for _, c := range []byte{'O', 'o'} {
		crockfordDecodeMap[c] = 0
	}
	for _, c := range []byte{'I', 'i', 'L', 'l'} {
		crockfordDecodeMap[c] = 1
	}
}

// String returns the Crockford Base32 (uppercase) representation.
func (u SixID) String() string {
	result := make([]byte, 0, 10)
	var bits, offset uint
	for i := 0; i < 6; i++ {
		bits |= uint(u[i]) << offset
		offset += 8
		for offset >= 5 {
			result = append(result, crockfordAlphabet[bits&0x1F])
			bits >>= 5
			offset -= 5
		}
	}
	if offset > 0 {
		result = append(result, crockfordAlphabet[bits&0x1F])
	}
	return string(result)
}

// ParseSixID decodes the Crockford Base32 form produced by String.
// Hyphens and spaces are ignored.
func ParseSixID(s string) (SixID, error) {
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, " ", "")
	if len(s) != 10 {
		return SixID{}, ErrInvalidSixID
	}

	var id SixID
	var bits uint64
	var offset uint
	byteIndex := 0
	for i := 0; i < len(s); i++ {
		val := crockfordDecodeMap[s[i]]
		if val < 0 {
			return SixID{}, ErrInvalidSixID
		}
		bits |= uint64(val) << offset
		offset += 5
		for offset >= 8 && byteIndex < 6 {
			id[byteIndex] = byte(bits & 0xFF)
			byteIndex++
			bits >>= 8
			offset -= 8
		}
	}
	if byteIndex != 6 {
		return SixID{}, ErrInvalidSixID
	}
	return id, nil
}

// ParseSixIDs parses every string, failing on the first invalid one.
func ParseSixIDs(ss []string) ([]SixID, error) {
	ids := make([]SixID, 0, len(ss))
	for _, s := range ss {
		id, err := ParseSixID(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", err, s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// MarshalBSONValue implements bson.ValueMarshaler.
func (u SixID) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bsontype.Binary, bsoncore.AppendBinary(nil, sixIDSubtype, u[:]), nil
}

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (u *SixID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	if t == bsontype.Null || t == bsontype.Undefined {
		*u = SixID{}
		return nil
	}
	if t != bsontype.Binary {
		return fmt.Errorf("cannot decode BSON %s into SixID", t)
	}
	subtype, bin, _, ok := bsoncore.ReadBinary(data)
	if !ok {
		return errors.New("malformed BSON binary for SixID")
	}
	if subtype != sixIDSubtype || len(bin) != 6 {
		return fmt.Errorf("invalid SixID binary: subtype 0x%02x, length %d", subtype, len(bin))
	}
	copy(u[:], bin)
	return nil
}

// MarshalJSON marshals the SixID as a JSON string in Crockford Base32 format.
func (u SixID) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.String())
}

// UnmarshalJSON unmarshals a SixID from a JSON string in Crockford Base32 format.
func (u *SixID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseSixID(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// MarshalText lets SixID be used as a map key and in query binding.
func (u SixID) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *SixID) UnmarshalText(text []byte) error {
	parsed, err := ParseSixID(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}
