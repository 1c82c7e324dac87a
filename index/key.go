package index

// Composite bucket keys are fixed-width 64-bit words: the k elementary hash
// outputs of a table are folded through a splitmix64 finalizer so distinct
// tuples map to distinct keys up to 64-bit collisions. The combine is
// deterministic, which keeps serialized indexes stable across runs.

const (
	keySalt  uint64 = 0xcbf29ce484222325
	keyGamma uint64 = 0x9e3779b97f4a7c15
)

func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

func combineKey(key, word uint64) uint64 {
	return mix64(key ^ (word + keyGamma + key<<6 + key>>2))
}

// tableSeed derives an independent stream seed for one table from the index
// seed. Adjacent table numbers land far apart in seed space.
func tableSeed(seed, table uint64) uint64 {
	return mix64(seed + (table+1)*keyGamma)
}
