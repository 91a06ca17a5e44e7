package assign

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// Rand 是抽样与洗牌所需的随机源，*rand.Rand 满足该接口
type Rand interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// NewRand 用 crypto/rand 生成种子，读取失败时退回到运行时种子
func NewRand() *rand.Rand {
	var seed [16]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return rand.New(rand.NewPCG(
		binary.LittleEndian.Uint64(seed[:8]),
		binary.LittleEndian.Uint64(seed[8:]),
	))
}

// sample 从 pool 中无放回地均匀抽取 k 个，不修改 pool
func sample[T any](rnd Rand, pool []T, k int) []T {
	work := make([]T, len(pool))
	copy(work, pool)

	// 部分 Fisher–Yates
	for i := 0; i < k; i++ {
		j := i + rnd.IntN(len(work)-i)
		work[i], work[j] = work[j], work[i]
	}

	return work[:k]
}

func shuffle[T any](rnd Rand, items []T) {
	rnd.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
}
