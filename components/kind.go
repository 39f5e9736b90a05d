package components

// Kind partitions the entity pool. Each kind has its own capacity and
// spawn path; lookups and group queries are kind-scoped.
type Kind uint8

const (
	KindFragment Kind = iota
	KindProjectile
	KindShip
)

// String returns the display name for a Kind.
func (k Kind) String() string {
	names := KindNames()
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// KindNames returns the display names for all entity kinds.
// The order matches the Kind constants.
func KindNames() []string {
	return []string{"Fragment", "Projectile", "Ship"}
}

// KindCount returns the number of entity kinds.
func KindCount() int {
	return len(KindNames())
}
