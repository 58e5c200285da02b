package mount

// SuccessMap records, per module root, the partitions already satisfied by
// some technique. Magic mount consults it to skip covered partitions.
type SuccessMap map[string]map[string]struct{}

// NewSuccessMap creates an empty SuccessMap.
func NewSuccessMap() SuccessMap {
	return make(SuccessMap)
}

// Mark records that partition of the module at root is mounted.
func (m SuccessMap) Mark(root, partition string) {
	parts, ok := m[root]
	if !ok {
		parts = make(map[string]struct{})
		m[root] = parts
	}
	parts[partition] = struct{}{}
}

// Covered reports whether partition of the module at root is mounted.
func (m SuccessMap) Covered(root, partition string) bool {
	_, ok := m[root][partition]
	return ok
}
