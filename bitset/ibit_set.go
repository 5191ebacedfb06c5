// Package bitset holds the bit arrays behind the membership filter: an
// in-memory backend and a Redis string backend.
package bitset

// IBitSet is a fixed-length, set-only bit array.
type IBitSet interface {
	Size() uint
	Has(index uint) (bool, error)
	HasMulti(indexes []uint) ([]bool, error)
	Insert(index uint) (bool, error)
	InsertMulti(indexes []uint) (bool, error)
	BitCount() (uint, error)
	// Release frees backing storage. The bitset must not be used afterwards.
	Release() error
}

// Factory allocates a zeroed bit array of the given length.
type Factory func(size uint) (IBitSet, error)

// MemFactory allocates in-memory bit arrays.
func MemFactory(size uint) (IBitSet, error) {
	return NewBitSetMem(size), nil
}
