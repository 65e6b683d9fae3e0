package fieldbind

import (
	"errors"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func memberNames(members []MemberDescriptor) []string {
	names := make([]string, len(members))
	for i, member := range members {
		names[i] = member.Name
	}
	return names
}

func TestEnumerateReflectedStruct(t *testing.T) {
	r := NewResolver()
	members := r.Enumerate(reflect.TypeFor[Player]())

	want := []string{
		"Aim", "Alive", "FireRate", "Health", "ID", "Level", "Lives", "Mode",
		"Name", "Position", "Speed", "Tag", "Title", "count", "health", "secret", "small",
	}
	if diff := cmp.Diff(want, memberNames(members)); diff != "" {
		t.Fatalf("unexpected members (-want +got):\n%s", diff)
	}

	seen := map[memberKey]bool{}
	for i, member := range members {
		key := memberKey{name: member.Name, kind: member.Kind}
		if seen[key] {
			t.Fatalf("duplicate member %s", member)
		}
		seen[key] = true
		if i > 0 && strings.Compare(members[i-1].Name, member.Name) > 0 {
			t.Fatalf("members not sorted at %d: %s > %s", i, members[i-1].Name, member.Name)
		}
		if !member.Supported() {
			t.Fatalf("unsupported member %s enumerated", member)
		}
	}

	pointerMembers := r.Enumerate(reflect.TypeFor[*Player]())
	if diff := cmp.Diff(want, memberNames(pointerMembers)); diff != "" {
		t.Fatalf("expected pointer and value types to enumerate alike (-want +got):\n%s", diff)
	}
}

func TestEnumerateDescriptorDetails(t *testing.T) {
	members := NewResolver().Enumerate(reflect.TypeFor[Player]())
	byName := map[string]MemberDescriptor{}
	for _, member := range members {
		byName[member.Name] = member
	}

	cases := []struct {
		name     string
		kind     MemberKind
		value    ValueKind
		canRead  bool
		canWrite bool
	}{
		{"Speed", MemberField, KindFloat, true, true},
		{"Mode", MemberField, KindEnum, true, true},
		{"ID", MemberField, KindString, true, false},
		{"FireRate", MemberField, KindFloat, true, true},
		{"Health", MemberProperty, KindInt, true, true},
		{"Level", MemberProperty, KindInt, true, true},
		{"Title", MemberProperty, KindString, true, false},
		{"Position", MemberField, KindVector3, true, true},
		{"secret", MemberField, KindString, true, true},
	}
	for _, tc := range cases {
		member, ok := byName[tc.name]
		if !ok {
			t.Fatalf("member %s missing", tc.name)
		}
		if member.Kind != tc.kind || member.Type.Kind != tc.value || member.CanRead != tc.canRead || member.CanWrite != tc.canWrite {
			t.Fatalf("unexpected descriptor for %s: %+v", tc.name, member)
		}
		if member.Owner != reflect.TypeFor[Player]() && tc.name != "Tag" {
			t.Fatalf("unexpected owner for %s: %v", tc.name, member.Owner)
		}
	}
	if byName["Mode"].Type.Enum != EnumTypeFor[Mode]() {
		t.Fatalf("expected Mode enum type on descriptor")
	}
}

func TestEnumerateExcludesSkippedAndUnsupported(t *testing.T) {
	r := NewResolver()
	all := memberNames(r.EnumerateAll(reflect.TypeFor[Player]()))
	for _, name := range []string{"ignored", "Base", "Extra", "Hidden", "Score"} {
		if slices.Contains(all, name) {
			t.Fatalf("expected %s to be excluded, got %v", name, all)
		}
	}
	if !slices.Contains(all, "Notes") {
		t.Fatalf("expected EnumerateAll to include unsupported Notes, got %v", all)
	}
	if slices.Contains(memberNames(r.Enumerate(reflect.TypeFor[Player]())), "Notes") {
		t.Fatalf("expected Enumerate to drop unsupported Notes")
	}
}

func TestEnumerateFilters(t *testing.T) {
	r := NewResolver()
	floats := memberNames(r.Enumerate(reflect.TypeFor[Player](), OfKind(KindFloat)))
	if !slices.Equal(floats, []string{"FireRate", "Speed"}) {
		t.Fatalf("unexpected float members %v", floats)
	}
	props := memberNames(r.Enumerate(reflect.TypeFor[Player](), OfMemberKind(MemberProperty), Writable()))
	if !slices.Equal(props, []string{"Health", "Level"}) {
		t.Fatalf("unexpected writable properties %v", props)
	}
	enums := EnumerateFor[Player](OfKind(KindEnum), Readable())
	if len(enums) != 1 || enums[0].Name != "Mode" {
		t.Fatalf("unexpected enum members %v", memberNames(enums))
	}
}

func TestEnumerateExposer(t *testing.T) {
	members := NewResolver().Enumerate(reflect.TypeFor[Audio]())
	if got := memberNames(members); !slices.Equal(got, []string{"Muted", "Reset", "label", "volume"}) {
		t.Fatalf("unexpected exposed members %v", got)
	}
	for _, member := range members {
		switch member.Name {
		case "volume":
			if member.Type.Kind != KindFloat {
				t.Fatalf("expected first registration of volume to win, got %s", member.Type)
			}
		case "label":
			if member.CanWrite {
				t.Fatalf("expected label to be read only")
			}
		case "Reset":
			if member.CanRead || !member.CanWrite {
				t.Fatalf("expected Reset to be write only, got %+v", member)
			}
		}
	}
}

func TestEnumerateNonStruct(t *testing.T) {
	if got := Enumerate(reflect.TypeFor[int]()); len(got) != 0 {
		t.Fatalf("expected no members for int, got %v", got)
	}
	if got := Enumerate(nil); len(got) != 0 {
		t.Fatalf("expected no members for nil type, got %v", got)
	}
}

func TestResolveGetMatchesDirectAccess(t *testing.T) {
	p := &Player{
		Base:     Base{Tag: "hero"},
		Speed:    2.5,
		Lives:    3,
		Name:     "Ada",
		Mode:     ModeRunning,
		Position: Vector3{X: 1, Y: 2, Z: 3},
		Aim:      Vector2{X: -1, Y: 0.5},
		Alive:    true,
		Rate:     0.25,
		secret:   "hidden",
		health:   80,
		small:    -4,
		count:    250,
		level:    7,
	}

	cases := []struct {
		name string
		kind MemberKind
		want Value
	}{
		{"Speed", MemberField, Float(p.Speed)},
		{"Lives", MemberField, Int(int64(p.Lives))},
		{"Name", MemberField, String(p.Name)},
		{"Mode", MemberField, EnumValue(EnumTypeFor[Mode](), int64(p.Mode))},
		{"Position", MemberField, Vec3(1, 2, 3)},
		{"Aim", MemberField, Vec2(-1, 0.5)},
		{"Alive", MemberField, Bool(true)},
		{"FireRate", MemberField, Float(0.25)},
		{"Tag", MemberField, String("hero")},
		{"secret", MemberField, String("hidden")},
		{"small", MemberField, Int(-4)},
		{"count", MemberField, Int(250)},
		{"Health", MemberProperty, Int(80)},
		{"Level", MemberProperty, Int(7)},
		{"Title", MemberProperty, String("Captain Ada")},
	}

	r := NewResolver()
	for _, tc := range cases {
		accessor, err := r.Resolve(p, tc.name, tc.kind)
		if err != nil {
			t.Fatalf("resolve %s: %v", tc.name, err)
		}
		if got := accessor.Get(); !Equal(got, tc.want) {
			t.Fatalf("%s: expected %#v, got %#v", tc.name, tc.want, got)
		}
	}
}

func TestResolveErrors(t *testing.T) {
	r := NewResolver()
	p := &Player{}

	if _, err := r.Resolve(p, "Missing", MemberField); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := r.Resolve(p, "Health", MemberField); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected kind mismatch to be ErrNotFound, got %v", err)
	}
	if _, err := r.Resolve(p, "Notes", MemberField); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if _, err := r.Resolve(nil, "Speed", MemberField); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for nil target, got %v", err)
	}
	var nilPlayer *Player
	if _, err := r.Resolve(nilPlayer, "Speed", MemberField); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for typed nil target, got %v", err)
	}
	if _, err := r.Resolve(p, "", MemberField); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for empty name, got %v", err)
	}
	if _, err := r.Resolve(p, "Speed", MemberNone); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for MemberNone, got %v", err)
	}

	_, err := r.Resolve(p, "Missing", MemberField)
	var memberErr *MemberError
	if !errors.As(err, &memberErr) || memberErr.Member != "Missing" || memberErr.Op != "resolve" {
		t.Fatalf("expected MemberError, got %#v", err)
	}
	if !strings.Contains(err.Error(), "fieldbind: resolve") {
		t.Fatalf("unexpected error text %q", err.Error())
	}
}

func TestExposerFailureOnZeroValueIsReported(t *testing.T) {
	r := NewResolver()
	m := &Mixer{channel: &Audio{volume: 0.5}}

	if got := r.EnumerateOf(m); len(got) != 0 {
		t.Fatalf("expected no members, got %v", memberNames(got))
	}
	_, err := r.Resolve(m, "gain", MemberField)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	var exposeErr *MemberError
	if !errors.As(errors.Unwrap(err), &exposeErr) || exposeErr.Op != "expose" {
		t.Fatalf("expected the expose failure to be wrapped, got %v", err)
	}
	if !strings.Contains(err.Error(), "panic:") {
		t.Fatalf("expected panic text in %q", err.Error())
	}
	if _, err := r.Describe(m, "gain", MemberField); !errors.Is(err, ErrNotFound) || !strings.Contains(err.Error(), "expose") {
		t.Fatalf("expected describe to report the expose failure, got %v", err)
	}

	if _, err := r.Resolve(&Player{}, "Missing", MemberField); err == nil || strings.Contains(err.Error(), "expose") {
		t.Fatalf("expected a plain not found error, got %v", err)
	}
}

func TestResolveByValueIsReadOnly(t *testing.T) {
	p := Player{Speed: 4}
	accessor, err := NewResolver().Resolve(p, "Speed", MemberField)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if accessor.Get().AsFloat() != 4 {
		t.Fatalf("expected copy to read 4, got %v", accessor.Get())
	}
	if accessor.CanWrite() {
		t.Fatalf("expected value target to be read only")
	}
	if err := accessor.Set(Float(9)); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
}

func TestResolveExposerUsesLiveInstance(t *testing.T) {
	a := &Audio{volume: 0.8, label: "Main"}
	r := NewResolver()

	volume, err := r.Resolve(a, "volume", MemberField)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if volume.Get().AsFloat() != 0.8 {
		t.Fatalf("expected 0.8, got %v", volume.Get())
	}
	if err := volume.Set(Float(0.3)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if a.volume != 0.3 {
		t.Fatalf("expected live instance to change, got %v", a.volume)
	}

	muted, err := r.Resolve(a, "Muted", MemberProperty)
	if err != nil {
		t.Fatalf("resolve muted: %v", err)
	}
	if err := muted.Set(Bool(true)); err != nil || !a.muted {
		t.Fatalf("expected property setter to run, err=%v muted=%v", err, a.muted)
	}

	reset, err := r.Resolve(a, "Reset", MemberProperty)
	if err != nil {
		t.Fatalf("resolve reset: %v", err)
	}
	if !reset.Get().IsAbsent() {
		t.Fatalf("expected write only property to read as absent")
	}
	if err := reset.Set(Bool(true)); err != nil || a.volume != 0 {
		t.Fatalf("expected reset to zero volume, err=%v volume=%v", err, a.volume)
	}

	label, err := r.Resolve(a, "label", MemberField)
	if err != nil {
		t.Fatalf("resolve label: %v", err)
	}
	if err := label.Set(String("Other")); !errors.Is(err, ErrReadOnly) {
		t.Fatalf("expected ErrReadOnly, got %v", err)
	}
}

func TestResolverCachesTables(t *testing.T) {
	r := NewResolver()
	first := r.table(reflect.TypeFor[*Player]())
	second := r.table(reflect.TypeFor[Player]())
	if first != second {
		t.Fatalf("expected one table per base type")
	}
}

func TestDisplayLabel(t *testing.T) {
	cases := map[string]string{
		"speed":         "Speed",
		"maxHealth":     "Max Health",
		"FireRate":      "Fire Rate",
		"":              "",
		"élanVital":     "Élan Vital",
		"isHTTPEnabled": "Is H T T P Enabled",
	}
	for in, want := range cases {
		if got := DisplayLabel(in); got != want {
			t.Fatalf("DisplayLabel(%q) = %q, want %q", in, got, want)
		}
	}
}
