package util

import "runtime"

// ReasonableShardCount picks a practical default shard count based on CPU
// parallelism. Heuristic: nextPow2(2*GOMAXPROCS), clamped to [1..256].
func ReasonableShardCount() int {
	p := runtime.GOMAXPROCS(0)
	if p < 1 {
		p = 1
	}
	n := int(NextPow2(uint64(p * 2)))
	if n > 256 {
		n = 256
	}
	return n
}

// ShardIndex maps a 64-bit hash to a shard index.
// Power-of-two shard counts take the mask path; other counts use modulo.
func ShardIndex(hash uint64, shards int) int {
	if shards <= 1 {
		return 0
	}
	if IsPowerOfTwo(uint64(shards)) {
		return int(hash & uint64(shards-1))
	}
	return int(hash % uint64(shards))
}

// SplitCapacity divides a power-of-two capacity across a power-of-two
// shard count. The shard count is halved until every shard holds at least
// one entry. It returns the effective shard count and per-shard capacity.
func SplitCapacity(capacity, shards int) (n, perShard int) {
	n = int(NextPow2(uint64(max(shards, 1))))
	for n > 1 && capacity/n < 1 {
		n >>= 1
	}
	return n, capacity / n
}
