// Package hash provides the keyed hash families shared by the probabilistic
// structures and a salted SHA-256 digest utility.
//
// A Family maps (index, key) to a bucket in [0, modulus). The index acts as a
// domain separator: every member hashes the message "<index>|<key>", so the
// k hash functions of one bloom filter (or the depth rows of one sketch) are
// effectively independent while staying reproducible across processes.
package hash

import (
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/dgryski/go-metro"
	"github.com/kwertop/algokit"
	"github.com/spaolacci/murmur3"
	"github.com/zeebo/xxh3"
	"golang.org/x/crypto/blake2b"
)

// metroSeed is the seed the sketches have always used with metro hashing.
const metroSeed = 1373

// Family is a deterministic keyed hash producing a value in [0, modulus).
type Family interface {
	Hash(index int, key string, modulus uint64) uint64
}

// Kind names a Family implementation.
type Kind string

const (
	KindBlake2b Kind = "blake2b"
	KindXXH3    Kind = "xxh3"
	KindXXHash  Kind = "xxhash"
	KindMurmur3 Kind = "murmur3"
	KindMetro   Kind = "metro"
)

// Kinds lists every supported family, default first.
func Kinds() []Kind {
	return []Kind{KindBlake2b, KindXXH3, KindXXHash, KindMurmur3, KindMetro}
}

// ParseKind resolves a family name, case-insensitively. The empty string
// selects the default.
func ParseKind(name string) (Kind, error) {
	if name == "" {
		return KindBlake2b, nil
	}
	kind := Kind(strings.ToLower(strings.TrimSpace(name)))
	for _, k := range Kinds() {
		if k == kind {
			return k, nil
		}
	}
	return "", algokit.InvalidInput("hash", "unknown hash family %q", name)
}

// New returns the Family for kind. Unknown kinds fall back to Default.
func New(kind Kind) Family {
	switch kind {
	case KindXXH3:
		return XXH3{}
	case KindXXHash:
		return XXHash{}
	case KindMurmur3:
		return Murmur3{}
	case KindMetro:
		return Metro{}
	default:
		return Blake2b{}
	}
}

// Default is the family used when none is configured.
var Default Family = Blake2b{}

func message(index int, key string) []byte {
	buf := make([]byte, 0, len(key)+8)
	buf = strconv.AppendInt(buf, int64(index), 10)
	buf = append(buf, '|')
	return append(buf, key...)
}

func reduce(h, modulus uint64) uint64 {
	if modulus == 0 {
		return 0
	}
	return h % modulus
}

// Blake2b digests the message with an 8 byte BLAKE2b and reads the digest as
// a big-endian integer.
type Blake2b struct{}

func (Blake2b) Hash(index int, key string, modulus uint64) uint64 {
	// Size 8 with no key never fails.
	h, _ := blake2b.New(8, nil)
	h.Write(message(index, key))
	return reduce(binary.BigEndian.Uint64(h.Sum(nil)), modulus)
}

// XXH3 uses the 64-bit xxh3 hash.
type XXH3 struct{}

func (XXH3) Hash(index int, key string, modulus uint64) uint64 {
	return reduce(xxh3.Hash(message(index, key)), modulus)
}

// XXHash uses the 64-bit xxHash.
type XXHash struct{}

func (XXHash) Hash(index int, key string, modulus uint64) uint64 {
	return reduce(xxhash.Sum64(message(index, key)), modulus)
}

// Murmur3 uses the high word of 128-bit MurmurHash3.
type Murmur3 struct{}

func (Murmur3) Hash(index int, key string, modulus uint64) uint64 {
	h1, _ := murmur3.Sum128(message(index, key))
	return reduce(h1, modulus)
}

// Metro uses 64-bit metrohash.
type Metro struct{}

func (Metro) Hash(index int, key string, modulus uint64) uint64 {
	return reduce(metro.Hash64(message(index, key), metroSeed), modulus)
}
