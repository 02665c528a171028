package pipeline

import "strconv"

// nameGenerator derives unique stage names. It keeps one counter per operator
// type, bumped on every successful add of that type.
type nameGenerator struct {
	counters map[string]int
}

func newNameGenerator() *nameGenerator {
	return &nameGenerator{counters: make(map[string]int)}
}

// next returns hint when free, otherwise hint suffixed with the next free
// counter value of typeID.
func (g *nameGenerator) next(typeID, hint string, taken func(string) bool) string {
	if !taken(hint) {
		return hint
	}

	n := g.counters[typeID]

	for {
		n++

		candidate := hint + "_" + strconv.Itoa(n)
		if !taken(candidate) {
			return candidate
		}
	}
}

func (g *nameGenerator) commit(typeID string) {
	g.counters[typeID]++
}
