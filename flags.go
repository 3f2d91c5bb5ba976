package dagrc

// Flag is a single bit in a [Flags] set. Only [Marked] is meaningful to
// the garbage collector; the rest are opaque engine flags that the
// allocator carries around but never inspects.
type Flag uint8

const (
	// Marked means the node is reachable in the current collection
	// cycle. Transient: set only during a mark phase, cleared by the
	// sweep (lazy or eager) or by lazy reuse.
	Marked Flag = 1 << iota
	// Reduced means the node has been reduced up to strategy by
	// equations. Semantic to the engine.
	Reduced
	// Copied means the node was copied in the current copy operation
	// and its copy pointer is valid. Semantic to the engine.
	Copied
	// Unrewritable means the node is reduced and not rewritable by
	// rules.
	Unrewritable
	// Unstackable means the node is unrewritable and all subterms are
	// unstackable or frozen.
	Unstackable
	// Ground means no variables occur below this node.
	Ground
	// HashValid means the node has a valid hash value (storage is
	// theory dependent).
	HashValid
)

// RewritingFlags is the conjunction of flags relevant to the rewriting
// strategy, mirroring the original implementation's grouped constant.
const RewritingFlags = Reduced | Unrewritable | Unstackable | Ground

// Flags is a set of [Flag] bits.
type Flags uint8

// Has reports whether every bit in f is set.
func (s Flags) Has(f Flag) bool {
	return s&Flags(f) == Flags(f)
}

// Set returns s with f set.
func (s Flags) Set(f Flag) Flags {
	return s | Flags(f)
}

// Clear returns s with f cleared.
func (s Flags) Clear(f Flag) Flags {
	return s &^ Flags(f)
}
