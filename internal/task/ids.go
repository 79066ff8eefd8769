package task

// NextID returns the id for a new record: 1 for an empty collection,
// otherwise the largest existing id plus one. Gaps left by deletions are
// never filled.
func NextID(c Collection) int {
	highest := 0
	for _, r := range c {
		if r.ID > highest {
			highest = r.ID
		}
	}
	return highest + 1
}
