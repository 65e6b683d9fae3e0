// Package fieldbind binds UI style controls to members of arbitrary Go
// values.
//
// A member is a field or a property of a struct whose type belongs to a
// closed set of value kinds: Bool, Int, Float, String, Enum, Vector2 and
// Vector3. Types register their members explicitly by implementing Exposer,
// or are inspected with reflection:
//
//	type Player struct {
//		Speed  float64
//		Mode   Mode
//		secret string `bind:"-"`
//	}
//
//	func (p *Player) GetHealth() int    { ... }
//	func (p *Player) SetHealth(v int)   { ... }
//
// Resolver.Enumerate lists the bindable members of a type in name order and
// Resolver.Resolve turns a (target, name, kind) triple into an Accessor that
// reads and writes the live instance, coercing written values when needed.
//
// A Descriptor records which member of which target a control is bound to.
// Its validity is recomputed on every access, so swapping the target for one
// of another type invalidates it immediately. Binding wraps a Descriptor with
// an optional Persister, saving every write under "scope.label.member" and
// keeping a write-once default snapshot under "<key>_default".
//
// Values are persisted as flat text produced by Format and read back with
// Parse; text that no longer parses is treated as absent.
package fieldbind
