package fieldbind

import (
	"context"
	"errors"
)

type Mode int

const (
	ModeIdle Mode = iota
	ModeRunning
	ModePaused
)

func (Mode) EnumNames() []string { return []string{"Idle", "Running", "Paused"} }

type Priority int8

func (Priority) EnumNames() []string   { return []string{"Low", "High"} }
func (Priority) EnumOrdinals() []int64 { return []int64{10, 20} }

type Base struct {
	Tag string
}

type Extra struct {
	Hidden int
}

type Player struct {
	Base
	*Extra
	Speed    float64
	Lives    int
	Name     string
	Mode     Mode
	Position Vector3
	Aim      Vector2
	Alive    bool
	Rate     float32 `bind:"name=FireRate"`
	ID       string  `bind:",readonly"`
	Notes    []string
	ignored  int `bind:"-"`
	secret   string
	health   int
	small    int8
	count    uint8
	level    int
}

func (p *Player) GetHealth() int   { return p.health }
func (p *Player) SetHealth(v int)  { p.health = v }
func (p *Player) Score() int       { return p.Lives * 100 }
func (p *Player) GetTitle() string { return "Captain " + p.Name }
func (p *Player) Level() int       { return p.level }

func (p *Player) SetLevel(v int) error {
	if v < 0 {
		return errors.New("level must not be negative")
	}
	p.level = v
	return nil
}

// Audio registers its members explicitly.
type Audio struct {
	volume float64
	muted  bool
	label  string
}

func (a *Audio) ExposeMembers(set *MemberSet) {
	Field(set, "volume", &a.volume)
	Field(set, "volume", &a.muted)
	ReadOnlyField(set, "label", &a.label)
	Property(set, "Muted", func() bool { return a.muted }, func(v bool) { a.muted = v })
	Setter(set, "Reset", func(v bool) {
		if v {
			a.volume = 0
		}
	})
}

func (a *Audio) BindingLabel() string { return a.label }

// Mixer registers members through a channel that is nil on the zero value.
type Mixer struct {
	channel *Audio
}

func (m *Mixer) ExposeMembers(set *MemberSet) {
	Field(set, "gain", &m.channel.volume)
}

type Camera struct {
	Zoom float64
}

// memoryPersister is a minimal Persister over a map.
type memoryPersister struct {
	values     map[string]string
	saves      int
	saveErr    error
	defaultErr error
}

func newMemoryPersister() *memoryPersister {
	return &memoryPersister{values: map[string]string{}}
}

func (m *memoryPersister) Save(_ context.Context, key string, v Value) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.values[key] = Format(v)
	return nil
}

func (m *memoryPersister) Load(_ context.Context, key string, t ValueType) (Value, bool, error) {
	text, ok := m.values[key]
	if !ok {
		return Value{}, false, nil
	}
	v, err := Parse(t, text)
	if err != nil {
		return Value{}, false, nil
	}
	return v, true, nil
}

func (m *memoryPersister) SaveDefault(_ context.Context, key string, v Value) error {
	if m.defaultErr != nil {
		return m.defaultErr
	}
	m.values[DefaultKey(key)] = Format(v)
	return nil
}

func (m *memoryPersister) HasDefault(_ context.Context, key string) (bool, error) {
	_, ok := m.values[DefaultKey(key)]
	return ok, nil
}

func (m *memoryPersister) RestoreDefault(ctx context.Context, key string, t ValueType) (Value, bool, error) {
	return m.Load(ctx, DefaultKey(key), t)
}

func (m *memoryPersister) ResetDefault(_ context.Context, key string) error {
	delete(m.values, DefaultKey(key))
	return nil
}
