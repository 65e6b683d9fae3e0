package fieldbind

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-fieldbind/internal/hydrate"
)

// BindingConfig is the authored, serializable form of a Descriptor. Target
// names an object the host can look up; it is never the object itself.
type BindingConfig struct {
	Target     string     `json:"target" yaml:"target"`
	Member     string     `json:"member" yaml:"member"`
	MemberKind MemberKind `json:"memberKind" yaml:"memberKind"`
	Kind       ValueKind  `json:"kind" yaml:"kind"`
}

// TargetLookup maps a configured target name onto a live object.
type TargetLookup func(name string) (any, bool)

// DecodeBindingConfig decodes an authored payload. A "member" written as
// "target.member" fills Target when Target is absent, and MemberKind defaults
// to Field.
func DecodeBindingConfig(source string, payload map[string]any) (BindingConfig, error) {
	return bindingDecoder.Decode(hydrate.Context{Source: source}, payload)
}

// DecodeBindingConfigs decodes a list of payloads.
func DecodeBindingConfigs(source string, payloads []map[string]any) ([]BindingConfig, error) {
	return bindingDecoder.DecodeAll(hydrate.Context{Source: source}, payloads)
}

var bindingDecoder = hydrate.NewDecoder[BindingConfig](
	hydrate.WithDisallowUnknownFields[BindingConfig](),
	hydrate.WithPreHook[BindingConfig](splitMemberPath),
	hydrate.WithPostHook[BindingConfig](validateBindingConfig),
)

func splitMemberPath(_ hydrate.Context, payload map[string]any) (map[string]any, error) {
	member, ok := payload["member"].(string)
	if !ok {
		return payload, nil
	}
	if target, _ := payload["target"].(string); target != "" {
		return payload, nil
	}
	prefix, name, found := strings.Cut(member, ".")
	if !found {
		return payload, nil
	}
	payload["target"] = prefix
	payload["member"] = name
	return payload, nil
}

func validateBindingConfig(_ hydrate.Context, cfg *BindingConfig) error {
	if cfg.MemberKind == MemberNone {
		cfg.MemberKind = MemberField
	}
	if strings.TrimSpace(cfg.Member) == "" {
		return fmt.Errorf("%w: member is required", ErrInvalid)
	}
	if !cfg.Kind.Supported() {
		return fmt.Errorf("%w: kind is required", ErrInvalid)
	}
	return nil
}

// DescriptorFromConfig builds a Descriptor, looking the target up by name.
// An unknown target yields a descriptor without a target, which validates as
// invalid rather than failing here.
func DescriptorFromConfig(cfg BindingConfig, lookup TargetLookup) Descriptor {
	desc := Descriptor{
		MemberName:   cfg.Member,
		MemberKind:   cfg.MemberKind,
		ExpectedKind: cfg.Kind,
	}
	if lookup != nil && cfg.Target != "" {
		if target, ok := lookup(cfg.Target); ok {
			desc.Target = target
		}
	}
	return desc
}

// Config returns the authored form of d, naming the target with name.
func (d Descriptor) Config(name string) BindingConfig {
	return BindingConfig{
		Target:     name,
		Member:     d.MemberName,
		MemberKind: d.MemberKind,
		Kind:       d.ExpectedKind,
	}
}
