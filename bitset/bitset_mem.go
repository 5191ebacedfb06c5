package bitset

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

type BitSetMem struct {
	set  *bitset.BitSet
	size uint
}

func NewBitSetMem(size uint) *BitSetMem {
	return &BitSetMem{bitset.New(size), size}
}

func FromDataMem(data []uint64) *BitSetMem {
	return &BitSetMem{bitset.From(data), uint(len(data) * 64)}
}

func (bitSet *BitSetMem) Size() uint {
	return bitSet.size
}

func (bitSet *BitSetMem) Has(index uint) (bool, error) {
	if index >= bitSet.size {
		return false, fmt.Errorf("algokit: bit index %d out of range [0, %d)", index, bitSet.size)
	}
	return bitSet.set.Test(index), nil
}

func (bitSet *BitSetMem) HasMulti(indexes []uint) ([]bool, error) {
	result := make([]bool, len(indexes))
	for i, index := range indexes {
		ok, err := bitSet.Has(index)
		if err != nil {
			return nil, err
		}
		result[i] = ok
	}
	return result, nil
}

func (bitSet *BitSetMem) Insert(index uint) (bool, error) {
	if index >= bitSet.size {
		return false, fmt.Errorf("algokit: bit index %d out of range [0, %d)", index, bitSet.size)
	}
	bitSet.set.Set(index)
	return true, nil
}

func (bitSet *BitSetMem) InsertMulti(indexes []uint) (bool, error) {
	for _, index := range indexes {
		if _, err := bitSet.Insert(index); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (bitSet *BitSetMem) BitCount() (uint, error) {
	return bitSet.set.Count(), nil
}

func (bitSet *BitSetMem) Release() error {
	bitSet.set.ClearAll()
	return nil
}
