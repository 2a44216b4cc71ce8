package rarc

// HashName computes the 16-bit name hash stored alongside every node and file
// entry. The multiplier depends on the name length including its terminator:
// names of length 1 use 2, longer names use 3. The game never verifies these
// hashes through this codec, but repacked archives must carry the original
// values to stay loadable.
func HashName(name string) uint16 {
	var hash uint32
	multiplier := uint32(1)
	if len(name)+1 == 2 {
		multiplier = 2
	} else if len(name)+1 >= 3 {
		multiplier = 3
	}

	for _, r := range name {
		hash = (hash * multiplier) & 0xFFFF
		hash = (hash + uint32(r)) & 0xFFFF
	}

	return uint16(hash)
}
