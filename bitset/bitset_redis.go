package bitset

import (
	"context"
	"fmt"

	"github.com/kwertop/algokit"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "algokit:bitset:"

// BitSetRedis stores the bits in a single Redis string under a random key.
type BitSetRedis struct {
	client *redis.Client
	size   uint
	key    string
}

// NewBitSetRedis allocates a zeroed string of size bits under a fresh key.
func NewBitSetRedis(client *redis.Client, size uint) (*BitSetRedis, error) {
	bitSet := &BitSetRedis{
		client: client,
		size:   size,
		key:    redisKeyPrefix + algokit.GenerateRandomString(16),
	}
	zeros := make([]byte, (size+7)/8)
	if err := client.Set(context.Background(), bitSet.key, zeros, 0).Err(); err != nil {
		return nil, fmt.Errorf("algokit: error allocating bitset in redis: %w", err)
	}
	return bitSet, nil
}

// RedisFactory allocates Redis bit arrays on client.
func RedisFactory(client *redis.Client) Factory {
	return func(size uint) (IBitSet, error) {
		return NewBitSetRedis(client, size)
	}
}

func (bitSet *BitSetRedis) Size() uint {
	return bitSet.size
}

func (bitSet *BitSetRedis) Key() string {
	return bitSet.key
}

func (bitSet *BitSetRedis) checkIndex(index uint) error {
	if index >= bitSet.size {
		return fmt.Errorf("algokit: bit index %d out of range [0, %d)", index, bitSet.size)
	}
	return nil
}

func (bitSet *BitSetRedis) Has(index uint) (bool, error) {
	if err := bitSet.checkIndex(index); err != nil {
		return false, err
	}
	val, err := bitSet.client.GetBit(context.Background(), bitSet.key, int64(index)).Result()
	if err != nil {
		return false, err
	}
	return val != 0, nil
}

func (bitSet *BitSetRedis) HasMulti(indexes []uint) ([]bool, error) {
	if len(indexes) == 0 {
		return nil, fmt.Errorf("algokit: at least 1 index is required")
	}
	ctx := context.Background()
	pipe := bitSet.client.Pipeline()
	values := make([]*redis.IntCmd, len(indexes))
	for i, index := range indexes {
		if err := bitSet.checkIndex(index); err != nil {
			return nil, err
		}
		values[i] = pipe.GetBit(ctx, bitSet.key, int64(index))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	result := make([]bool, len(values))
	for i := range values {
		result[i] = values[i].Val() != 0
	}
	return result, nil
}

func (bitSet *BitSetRedis) Insert(index uint) (bool, error) {
	if err := bitSet.checkIndex(index); err != nil {
		return false, err
	}
	err := bitSet.client.SetBit(context.Background(), bitSet.key, int64(index), 1).Err()
	if err != nil {
		return false, err
	}
	return true, nil
}

func (bitSet *BitSetRedis) InsertMulti(indexes []uint) (bool, error) {
	if len(indexes) == 0 {
		return false, fmt.Errorf("algokit: at least 1 index is required")
	}
	ctx := context.Background()
	pipe := bitSet.client.TxPipeline()
	for _, index := range indexes {
		if err := bitSet.checkIndex(index); err != nil {
			return false, err
		}
		pipe.SetBit(ctx, bitSet.key, int64(index), 1)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func (bitSet *BitSetRedis) BitCount() (uint, error) {
	bitRange := &redis.BitCount{Start: 0, End: -1}
	val, err := bitSet.client.BitCount(context.Background(), bitSet.key, bitRange).Result()
	if err != nil {
		return 0, err
	}
	return uint(val), nil
}

func (bitSet *BitSetRedis) Release() error {
	return bitSet.client.Del(context.Background(), bitSet.key).Err()
}
