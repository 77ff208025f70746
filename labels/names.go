package labels

// Names is an ordered name table with a reverse lookup built once at load
// time. It backs the camera, subject, and action tables.
type Names struct {
	list  []string
	index map[string]int
}

// NewNames builds a name table from an ordered list.
func NewNames(list []string) *Names {
	index := make(map[string]int, len(list))
	for i, name := range list {
		index[name] = i
	}
	return &Names{list: append([]string(nil), list...), index: index}
}

// Len returns the number of names.
func (n *Names) Len() int { return len(n.list) }

// Name returns the name at position i.
func (n *Names) Name(i int) string { return n.list[i] }

// Index returns the position of name, if present.
func (n *Names) Index(name string) (int, bool) {
	i, ok := n.index[name]
	return i, ok
}

// All returns a copy of the ordered name list.
func (n *Names) All() []string {
	return append([]string(nil), n.list...)
}
