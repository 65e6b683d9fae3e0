package fieldbind

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestFormatParseRoundTrip(t *testing.T) {
	modes := EnumTypeFor[Mode]()
	priorities := EnumTypeFor[Priority]()

	cases := []struct {
		name  string
		value Value
	}{
		{"bool true", Bool(true)},
		{"bool false", Bool(false)},
		{"int negative", Int(-42)},
		{"int max", Int(math.MaxInt64)},
		{"int min", Int(math.MinInt64)},
		{"float", Float(3.14159)},
		{"float small", Float(-0.0001)},
		{"float huge", Float(1e300)},
		{"float integral", Float(3)},
		{"string empty", String("")},
		{"string padded", String("  padded, text ")},
		{"enum", EnumValue(modes, int64(ModeRunning))},
		{"enum explicit ordinal", EnumValue(priorities, 20)},
		{"vector2", Vec2(1.5, -2)},
		{"vector3", Vec3(0.1, 0.2, 0.3)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text := Format(tc.value)
			parsed, err := Parse(tc.value.Type(), text)
			if err != nil {
				t.Fatalf("parse %q: %v", text, err)
			}
			if !Equal(tc.value, parsed) {
				t.Fatalf("round trip mismatch: %#v -> %q -> %#v", tc.value, text, parsed)
			}
		})
	}
}

func TestEnumModeScenario(t *testing.T) {
	modes := EnumTypeFor[Mode]()
	if got := modes.Names(); !reflect.DeepEqual(got, []string{"Idle", "Running", "Paused"}) {
		t.Fatalf("unexpected names %v", got)
	}

	running, err := modes.Named("Running")
	if err != nil {
		t.Fatalf("named: %v", err)
	}
	if Format(running) != "Running" {
		t.Fatalf("expected Running, got %q", Format(running))
	}
	parsed, err := Parse(running.Type(), "Running")
	if err != nil || !Equal(parsed, running) {
		t.Fatalf("expected Running, got %#v (%v)", parsed, err)
	}

	_, err = Parse(running.Type(), "Unknown")
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
	var formatErr *FormatError
	if !errors.As(err, &formatErr) || formatErr.Kind != KindEnum || formatErr.Text != "Unknown" {
		t.Fatalf("expected FormatError for Unknown, got %#v", err)
	}
}

func TestEnumExplicitOrdinals(t *testing.T) {
	priorities := EnumTypeFor[Priority]()
	vt := ValueType{Kind: KindEnum, Enum: priorities}

	high, err := Parse(vt, "20")
	if err != nil || high.EnumName() != "High" {
		t.Fatalf("expected ordinal 20 to parse as High, got %#v (%v)", high, err)
	}
	if _, err := Parse(vt, "1"); !errors.Is(err, ErrFormat) {
		t.Fatalf("expected undefined ordinal to fail, got %v", err)
	}
	if got := Format(EnumValue(priorities, 15)); got != "15" {
		t.Fatalf("expected undefined ordinal to format as decimal, got %q", got)
	}
	if priorities.Index(20) != 1 {
		t.Fatalf("expected High at index 1, got %d", priorities.Index(20))
	}
	if EnumTypeFor[Priority]() != priorities {
		t.Fatalf("expected enum types to be cached per Go type")
	}
}

func TestParseRejectsMalformedText(t *testing.T) {
	cases := []struct {
		kind ValueKind
		text string
	}{
		{KindBool, "yes please"},
		{KindInt, "12.5"},
		{KindInt, "99999999999999999999"},
		{KindFloat, "fast"},
		{KindVector2, "1"},
		{KindVector2, "1,2,3"},
		{KindVector3, "1,x,3"},
		{KindEnum, "Running"},
		{KindUnsupported, "1"},
	}
	for _, tc := range cases {
		if _, err := ParseKind(tc.kind, tc.text); !errors.Is(err, ErrFormat) {
			t.Fatalf("ParseKind(%s, %q): expected ErrFormat, got %v", tc.kind, tc.text, err)
		}
	}
}

func TestParseToleratesWhitespace(t *testing.T) {
	v, err := ParseKind(KindVector3, " 1, 2 ,3 ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if v.AsVector3() != (Vector3{X: 1, Y: 2, Z: 3}) {
		t.Fatalf("unexpected vector %v", v.AsVector3())
	}
	i, err := ParseKind(KindInt, " 7\n")
	if err != nil || i.AsInt() != 7 {
		t.Fatalf("expected 7, got %#v (%v)", i, err)
	}
}

func TestEqualSemantics(t *testing.T) {
	if !Equal(Float(0.1+0.2), Float(0.3)) {
		t.Fatalf("expected float tolerance")
	}
	if Equal(Float(1), Float(1.001)) {
		t.Fatalf("expected 1 and 1.001 to differ")
	}
	if !Equal(Float(1e10), Float(1e10+1)) {
		t.Fatalf("expected relative tolerance for large magnitudes")
	}
	if !Equal(Vec2(1, 2), Vec2(1.000001, 2)) {
		t.Fatalf("expected per component tolerance")
	}
	if Equal(Int(1), Float(1)) {
		t.Fatalf("expected different kinds to differ")
	}
	if !Equal(Value{}, Value{}) {
		t.Fatalf("expected absence markers to be equal")
	}
	if Equal(String("a"), String("A")) {
		t.Fatalf("expected exact string comparison")
	}
	if EqualWithin(Float(1), Float(1.05), 0.01) || !EqualWithin(Float(1), Float(1.05), 0.1) {
		t.Fatalf("expected explicit tolerance to apply")
	}
}

func TestClassifyClosedWorld(t *testing.T) {
	supported := map[reflect.Type]ValueKind{
		reflect.TypeFor[bool]():    KindBool,
		reflect.TypeFor[int]():     KindInt,
		reflect.TypeFor[uint16]():  KindInt,
		reflect.TypeFor[float32](): KindFloat,
		reflect.TypeFor[string]():  KindString,
		reflect.TypeFor[Mode]():    KindEnum,
		reflect.TypeFor[Vector2](): KindVector2,
		reflect.TypeFor[Vector3](): KindVector3,
	}
	for typ, want := range supported {
		got, ok := Classify(typ)
		if !ok || got.Kind != want {
			t.Fatalf("Classify(%s) = %s, %v; want %s", typ, got, ok, want)
		}
	}

	unsupported := []reflect.Type{
		reflect.TypeFor[*int](),
		reflect.TypeFor[[]int](),
		reflect.TypeFor[[2]float64](),
		reflect.TypeFor[map[string]int](),
		reflect.TypeFor[struct{ X float64 }](),
		reflect.TypeFor[any](),
		reflect.TypeFor[func()](),
		reflect.TypeFor[chan int](),
		reflect.TypeFor[complex128](),
		nil,
	}
	for _, typ := range unsupported {
		if got, ok := Classify(typ); ok || got.Kind != KindUnsupported {
			t.Fatalf("Classify(%v) = %s; want unsupported", typ, got)
		}
	}
}

func TestValueOf(t *testing.T) {
	v, err := ValueOf(ModePaused)
	if err != nil || v.Kind() != KindEnum || v.EnumName() != "Paused" {
		t.Fatalf("expected Paused enum, got %#v (%v)", v, err)
	}
	v, err = ValueOf(uint8(200))
	if err != nil || v.AsInt() != 200 {
		t.Fatalf("expected Int 200, got %#v (%v)", v, err)
	}
	if _, err := ValueOf([]int{1}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if _, err := ValueOf(nil); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported for nil, got %v", err)
	}
}

func TestValueKindText(t *testing.T) {
	for _, kind := range Kinds() {
		parsed, err := ParseValueKind(kind.String())
		if err != nil || parsed != kind {
			t.Fatalf("ParseValueKind(%s) = %s, %v", kind, parsed, err)
		}
	}
	if kind, err := ParseValueKind(" vector3 "); err != nil || kind != KindVector3 {
		t.Fatalf("expected case insensitive parse, got %s %v", kind, err)
	}
	if _, err := ParseValueKind("Color"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
