package algokit

import (
	"math"
	"math/rand"
	"sync"
	"time"
)

var (
	srcMu sync.Mutex
	src   = rand.NewSource(time.Now().UnixNano())
)

const letterBytes = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
const (
	letterIdxBits = 6                    // 6 bits to represent a letter index
	letterIdxMask = 1<<letterIdxBits - 1 // All 1-bits, as many as letterIdxBits
	letterIdxMax  = 63 / letterIdxBits   // # of letter indices fitting in 63 bits
)

// CalculateFilterSize returns the number of bits a bloom filter needs to hold
// length items at the given false positive rate.
func CalculateFilterSize(length uint, errorRate float64) uint {
	return uint(math.Ceil(-((float64(length) * math.Log(errorRate)) / math.Pow(math.Log(2), 2))))
}

// CalculateNumHashes returns the optimal hash count for a filter of size bits
// holding length items.
func CalculateNumHashes(size, length uint) uint {
	return uint(math.Ceil(float64(size) / float64(length) * math.Log(2)))
}

// CalculateSketchWidth returns the counter row width bounding the additive
// error of a count-min sketch to errorRate times the total count.
func CalculateSketchWidth(errorRate float64) uint {
	return uint(math.Ceil(math.E / errorRate))
}

// CalculateSketchDepth returns the row count giving the error bound with
// probability 1-delta.
func CalculateSketchDepth(delta float64) uint {
	return uint(math.Ceil(math.Log(1 / delta)))
}

// GenerateRandomString returns n random ASCII letters, used for storage keys.
func GenerateRandomString(n int) string {
	b := make([]byte, n)
	srcMu.Lock()
	defer srcMu.Unlock()
	// A src.Int63() generates 63 random bits, enough for letterIdxMax characters!
	for i, cache, remain := n-1, src.Int63(), letterIdxMax; i >= 0; {
		if remain == 0 {
			cache, remain = src.Int63(), letterIdxMax
		}
		if idx := int(cache & letterIdxMask); idx < len(letterBytes) {
			b[i] = letterBytes[idx]
			i--
		}
		cache >>= letterIdxBits
		remain--
	}

	return string(b)
}

// Max returns the larger of a and b.
func Max[T int | uint | uint64 | int64](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// BitSetType names a bit array backend.
type BitSetType int

const (
	InMemoryBitSet BitSetType = iota
	RedisBitSet
)

func (t BitSetType) String() string {
	switch t {
	case RedisBitSet:
		return "redis"
	default:
		return "memory"
	}
}
