package attrblend

import (
	"fmt"
	"slices"
	"strings"
)

// FilterPolicy decides which attributes take part in collection blending.
type FilterPolicy uint8

const (
	// FilterAll blends every attribute.
	FilterAll FilterPolicy = iota
	// FilterInclude blends only the listed attributes.
	FilterInclude
	// FilterExclude blends every attribute except the listed ones.
	FilterExclude
)

var filterNames = [...]string{"all", "include", "exclude"}

func (f FilterPolicy) String() string {
	if int(f) < len(filterNames) {
		return filterNames[f]
	}
	return fmt.Sprintf("FilterPolicy(%d)", uint8(f))
}

// MarshalText implements encoding.TextMarshaler.
func (f FilterPolicy) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *FilterPolicy) UnmarshalText(text []byte) error {
	i := slices.Index(filterNames[:], strings.ToLower(string(text)))
	if i < 0 {
		return fmt.Errorf("attrblend: unknown filter policy %q", text)
	}
	*f = FilterPolicy(i)
	return nil
}

// BlendingDetails is the per-attribute blending policy shared by the
// collection blenders.
type BlendingDetails struct {
	// DefaultMode applies to attributes and properties without an override.
	DefaultMode BlendMode
	// Filter and FilteredAttributes select participating attributes.
	Filter             FilterPolicy
	FilteredAttributes []string
	// AttributeModes overrides DefaultMode per attribute name.
	AttributeModes map[string]BlendMode
	// PropertyModes overrides DefaultMode per point property. ModeNone
	// leaves the property alone.
	PropertyModes map[PointProperty]BlendMode
	// SkipProperties disables point property blending.
	SkipProperties bool
}

// NewBlendingDetails returns details that blend everything with mode.
func NewBlendingDetails(mode BlendMode) *BlendingDetails {
	return &BlendingDetails{DefaultMode: mode}
}

// BlendingParam is one attribute or property to blend.
type BlendingParam struct {
	Selector Selector
	Identity AttributeIdentity
	Mode     BlendMode
	// New is set for attributes found on the source but not on the target.
	New bool
}

// CanBlend reports whether the filter lets name through.
func (d *BlendingDetails) CanBlend(name string) bool {
	switch d.Filter {
	case FilterInclude:
		return slices.Contains(d.FilteredAttributes, name)
	case FilterExclude:
		return !slices.Contains(d.FilteredAttributes, name)
	default:
		return true
	}
}

// ModeFor returns the mode of an attribute. Explicit overrides are taken
// as is; the default mode falls back to Copy for kinds that cannot
// interpolate.
func (d *BlendingDetails) ModeFor(id AttributeIdentity) BlendMode {
	if m, ok := d.AttributeModes[id.Name]; ok {
		return m
	}
	m := d.DefaultMode
	if id.SupportsInterpolation {
		return m
	}
	switch m {
	case ModeNone, ModeCopy, ModeMin, ModeMax:
		return m
	default:
		return ModeCopy
	}
}

// PropertyMode returns the mode of a point property.
func (d *BlendingDetails) PropertyMode(p PointProperty) BlendMode {
	if m, ok := d.PropertyModes[p]; ok {
		return m
	}
	return d.DefaultMode
}

// PropertyParams lists the blendable properties whose mode is not None.
func (d *BlendingDetails) PropertyParams() []BlendingParam {
	if d.SkipProperties {
		return nil
	}
	params := make([]BlendingParam, 0, len(BlendableProperties))
	for _, p := range BlendableProperties {
		m := d.PropertyMode(p)
		if m == ModeNone {
			continue
		}
		params = append(params, BlendingParam{
			Selector: PropertySelector(p),
			Identity: NewAttributeIdentity("$"+p.String(), p.Kind()),
			Mode:     m,
		})
	}
	return params
}

// Params lists the attributes to blend from source into target.
//
// When source and target differ, attributes only found on the target are
// skipped, attributes whose kinds differ are skipped, and attributes only
// found on the source are returned with New set. Names in ignored and
// attributes whose mode resolves to None are dropped.
func (d *BlendingDetails) Params(source, target *Dataset, ignored ...string) []BlendingParam {
	skip := func(name string) bool {
		return !d.CanBlend(name) || slices.Contains(ignored, name)
	}

	type candidate struct {
		id    AttributeIdentity
		isNew bool
	}
	var candidates []candidate

	targetSchema := target.In
	if target.HasOutput() {
		targetSchema = target.Out()
	}

	if source == target {
		for _, id := range targetSchema.Identities() {
			candidates = append(candidates, candidate{id: id})
		}
	} else {
		for _, id := range source.In.Identities() {
			tid, ok := targetSchema.Attribute(id.Name)
			switch {
			case !ok:
				candidates = append(candidates, candidate{id: id, isNew: true})
			case tid.Kind != id.Kind:
				Logger().Debug("attrblend: skipping attribute with differing kinds",
					"attribute", id.Name, "source", id.Kind, "target", tid.Kind)
			default:
				candidates = append(candidates, candidate{id: tid})
			}
		}
	}

	params := make([]BlendingParam, 0, len(candidates))
	for _, c := range candidates {
		if skip(c.id.Name) {
			continue
		}
		m := d.ModeFor(c.id)
		if m == ModeNone {
			continue
		}
		params = append(params, BlendingParam{
			Selector: AttributeSelector(c.id.Name),
			Identity: c.id,
			Mode:     m,
			New:      c.isNew,
		})
	}
	return params
}

// AssembleDetails builds include-filtered details from a per-attribute mode
// table, keeping only the attributes that source has. The names missing
// from source are returned sorted.
func AssembleDetails(defaultMode BlendMode, properties map[PointProperty]BlendMode, attributes map[string]BlendMode, source *Dataset) (*BlendingDetails, []string) {
	d := &BlendingDetails{
		DefaultMode:    defaultMode,
		Filter:         FilterInclude,
		AttributeModes: make(map[string]BlendMode, len(attributes)),
		PropertyModes:  make(map[PointProperty]BlendMode, len(properties)),
	}
	for p, m := range properties {
		d.PropertyModes[p] = m
	}

	var missing []string
	for name, m := range attributes {
		if _, ok := source.In.Attribute(name); !ok {
			missing = append(missing, name)
			continue
		}
		d.AttributeModes[name] = m
		d.FilteredAttributes = append(d.FilteredAttributes, name)
	}
	slices.Sort(d.FilteredAttributes)
	slices.Sort(missing)
	return d, missing
}
