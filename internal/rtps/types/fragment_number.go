package types

// FragmentNumber is a 1-based 32-bit index into a fragmented CacheChange's
// fragment sequence (spec §3 FragmentedCacheChange / §4.1 DATA_FRAG).
type FragmentNumber uint32

// FragmentNumberFirst is the first fragment of any fragmented sample.
const FragmentNumberFirst FragmentNumber = 1
