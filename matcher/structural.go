package matcher

import (
	"encoding/binary"
	"hash"
	"sync"

	"github.com/minio/highwayhash"

	"github.com/viant/ilcore/ilast"
)

var hashKey = [32]byte{} // fixed key: we only need a stable digest, not a keyed MAC

// hashCache memoizes each subtree's structural digest so repeated Equal
// comparisons (e.g. a pass probing many candidate case bodies against one
// shared template during switch-on-string recognition) don't re-walk
// unchanged subtrees, mirroring the teacher's inspector/graph/hash.go use
// of highwayhash for content-addressed struct comparison.
type hashCache struct {
	mu    sync.Mutex
	byPtr map[*ilast.Instruction]uint64
}

func newHashCache() *hashCache { return &hashCache{byPtr: make(map[*ilast.Instruction]uint64)} }

func (c *hashCache) digest(n *ilast.Instruction) uint64 {
	c.mu.Lock()
	if h, ok := c.byPtr[n]; ok {
		c.mu.Unlock()
		return h
	}
	c.mu.Unlock()

	hasher, _ := highwayhash.New64(hashKey[:])
	writeDigest(hasher, n)
	h := hasher.Sum64()

	c.mu.Lock()
	c.byPtr[n] = h
	c.mu.Unlock()
	return h
}

func writeDigest(h hash.Hash64, n *ilast.Instruction) {
	var buf [9]byte
	buf[0] = byte(n.Kind)
	binary.LittleEndian.PutUint32(buf[1:], uint32(n.ValueI4))
	binary.LittleEndian.PutUint32(buf[5:], uint32(n.ChildCount()))
	h.Write(buf[:])
	h.Write([]byte(n.ValueStr))
	if n.Operator != "" {
		h.Write([]byte(n.Operator))
	}
	for _, c := range n.Children() {
		writeDigest(h, c)
	}
}

// sharedCache is process-wide: digests are a pure function of tree shape,
// so memoizing across call sites is always safe and never stale (the tree
// mutation API invalidates flags, not this cache — callers that mutate a
// subtree after hashing it must not reuse a stale Match result, same
// discipline as any other read taken before a mutation).
var sharedCache = newHashCache()

// Match reports whether a and b are structurally identical: same Kind tree
// shape, same constant/operator payloads, same Variable identity at
// corresponding positions. It never mutates either argument.
func Match(a, b *ilast.Instruction) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if sharedCache.digest(a) != sharedCache.digest(b) {
		return false
	}
	return structuralEqual(a, b)
}

func structuralEqual(a, b *ilast.Instruction) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.Variable != b.Variable {
		return false
	}
	if a.ValueI4 != b.ValueI4 || a.ValueStr != b.ValueStr || a.Operator != b.Operator {
		return false
	}
	if a.ChildCount() != b.ChildCount() {
		return false
	}
	for i := 0; i < a.ChildCount(); i++ {
		if !structuralEqual(a.Child(i), b.Child(i)) {
			return false
		}
	}
	return true
}
