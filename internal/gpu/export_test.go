package gpu

// SetPSOHash replaces the key hash of c, letting tests force collisions.
func SetPSOHash(c *PipelineCache, hash func(PSOKey) uint64) { c.hash = hash }
