package hydrate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestDecoderFromFixtures(t *testing.T) {
	fx := loadFixture(t, "hydrate_bindings.json")

	for _, tc := range fx.Cases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			decoder := NewDecoder[bindingRecord](buildOptions(tc)...)

			ctx := Context{
				Source: tc.Source,
				Scope:  tc.Scope,
			}

			result, err := decoder.Decode(ctx, tc.Input)

			if tc.ExpectErr != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tc.ExpectErr)
				}
				if !strings.Contains(err.Error(), tc.ExpectErr) {
					t.Fatalf("expected error containing %q, got %v", tc.ExpectErr, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("unexpected decode error: %v", err)
			}

			if !reflect.DeepEqual(tc.Expect, result) {
				t.Fatalf("decoded record mismatch:\nwant: %#v\n got: %#v", tc.Expect, result)
			}
		})
	}
}

func TestDecodeDoesNotMutatePayload(t *testing.T) {
	payload := map[string]any{"member": "audio.volume", "kind": "Float"}
	decoder := NewDecoder[bindingRecord](WithPreHook[bindingRecord](dottedMemberPreHook))

	if _, err := decoder.Decode(Context{Source: "inline"}, payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["member"] != "audio.volume" {
		t.Fatalf("expected caller payload untouched, got %v", payload)
	}
	if _, ok := payload["target"]; ok {
		t.Fatalf("expected no target key leaked into caller payload")
	}
}

func TestDecodeNilPayload(t *testing.T) {
	_, err := NewDecoder[bindingRecord]().Decode(Context{Source: "empty"}, nil)
	if err == nil || !strings.Contains(err.Error(), "payload is nil") {
		t.Fatalf("expected nil payload error, got %v", err)
	}
}

func TestDecodeAllIndexesSources(t *testing.T) {
	decoder := NewDecoder[bindingRecord](WithDisallowUnknownFields[bindingRecord]())
	payloads := []map[string]any{
		{"target": "a", "member": "x", "kind": "Int"},
		{"target": "b", "member": "y", "bogus": true},
	}

	_, err := decoder.DecodeAll(Context{Source: "bindings.yaml"}, payloads)
	if err == nil || !strings.Contains(err.Error(), `"bindings.yaml[1]"`) {
		t.Fatalf("expected indexed source in error, got %v", err)
	}

	records, err := decoder.DecodeAll(Context{Source: "bindings.yaml"}, payloads[:1])
	if err != nil {
		t.Fatalf("decode all: %v", err)
	}
	if len(records) != 1 || records[0].Member != "x" {
		t.Fatalf("unexpected records %#v", records)
	}
}

func TestUseNumberDecodesJSONNumber(t *testing.T) {
	type withAny struct {
		Default any `json:"default"`
	}
	decoder := NewDecoder[withAny](WithUseNumber[withAny]())
	out, err := decoder.Decode(Context{Source: "number"}, map[string]any{"default": 12.5})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	number, ok := out.Default.(json.Number)
	if !ok || number.String() != "12.5" {
		t.Fatalf("expected json.Number, got %T %v", out.Default, out.Default)
	}
}

func buildOptions(tc fixtureCase) []DecoderOption[bindingRecord] {
	options := []DecoderOption[bindingRecord]{}

	for _, optName := range tc.Options {
		switch optName {
		case "use_number":
			options = append(options, WithUseNumber[bindingRecord]())
		case "disallow_unknown":
			options = append(options, WithDisallowUnknownFields[bindingRecord]())
		}
	}

	for _, hookName := range tc.PreHooks {
		switch hookName {
		case "dotted_member":
			options = append(options, WithPreHook[bindingRecord](dottedMemberPreHook))
		}
	}

	for _, hookName := range tc.PostHooks {
		switch hookName {
		case "default_member_kind":
			options = append(options, WithPostHook[bindingRecord](defaultMemberKindPostHook))
		}
	}

	if tc.CustomDecoder == "compact_string" {
		options = append(options, WithCustomDecoder[bindingRecord](compactStringDecoder))
	}

	return options
}

func dottedMemberPreHook(_ Context, payload map[string]any) (map[string]any, error) {
	value, ok := payload["member"].(string)
	if !ok || !strings.Contains(value, ".") {
		return payload, nil
	}
	parts := strings.Split(value, ".")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid member path %q", value)
	}
	payload["target"] = parts[0]
	payload["member"] = parts[1]
	return payload, nil
}

func defaultMemberKindPostHook(_ Context, record *bindingRecord) error {
	if record == nil {
		return errors.New("record is nil")
	}
	if record.MemberKind == "" {
		record.MemberKind = "Field"
	}
	return nil
}

func compactStringDecoder(ctx Context, payload map[string]any) (bindingRecord, error) {
	raw, ok := payload["binding"].(string)
	if !ok || raw == "" {
		return bindingRecord{}, fmt.Errorf("missing binding string for %q", ctx.Source)
	}
	parts := strings.Split(raw, ":")
	if len(parts) != 3 {
		return bindingRecord{}, fmt.Errorf("malformed binding string %q", raw)
	}
	path := strings.SplitN(parts[0], ".", 2)
	if len(path) != 2 {
		return bindingRecord{}, fmt.Errorf("malformed binding path %q", parts[0])
	}
	return bindingRecord{Target: path[0], Member: path[1], MemberKind: parts[1], Kind: parts[2]}, nil
}

type fixture struct {
	Description string        `json:"description"`
	Cases       []fixtureCase `json:"cases"`
}

type fixtureCase struct {
	Name          string         `json:"name"`
	Source        string         `json:"source"`
	Scope         string         `json:"scope"`
	Input         map[string]any `json:"input"`
	Expect        bindingRecord  `json:"expect"`
	ExpectErr     string         `json:"expectErr"`
	PreHooks      []string       `json:"preHooks"`
	PostHooks     []string       `json:"postHooks"`
	Options       []string       `json:"options"`
	CustomDecoder string         `json:"customDecoder"`
}

type bindingRecord struct {
	Target     string `json:"target"`
	Member     string `json:"member"`
	MemberKind string `json:"memberKind"`
	Kind       string `json:"kind"`
}

func loadFixture(t *testing.T, name string) fixture {
	t.Helper()
	path := filepath.Join("..", "..", "testdata", name)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read hydrate fixture %q: %v", name, err)
	}
	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		t.Fatalf("failed to unmarshal hydrate fixture %q: %v", name, err)
	}
	return fx
}
