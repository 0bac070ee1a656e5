package config

import (
	"fmt"
	"slices"

	"github.com/gogpu/attrblend"
)

// NewDataset builds a dataset from its declaration.
func NewDataset(spec DatasetSpec) (*attrblend.Dataset, error) {
	ds := attrblend.NewDataset(spec.Name, spec.Points)

	for _, a := range spec.Attributes {
		def, err := DecodeValue(a.Kind, a.Default)
		if err != nil {
			return nil, fmt.Errorf("config: dataset %q: attribute %q default: %w", spec.Name, a.Name, err)
		}
		if err := ds.In.AddAttribute(a.Name, a.Kind, def); err != nil {
			return nil, fmt.Errorf("config: dataset %q: %w", spec.Name, err)
		}
		for i, raw := range a.Values {
			v, err := DecodeValue(a.Kind, raw)
			if err != nil {
				return nil, fmt.Errorf("config: dataset %q: %s[%d]: %w", spec.Name, a.Name, i, err)
			}
			if err := ds.In.Set(a.Name, i, v); err != nil {
				return nil, err
			}
		}
	}

	for name, values := range spec.Properties {
		prop, err := attrblend.ParsePointProperty(name)
		if err != nil {
			return nil, fmt.Errorf("config: dataset %q: %w", spec.Name, err)
		}
		if len(values) > spec.Points {
			return nil, invalid("dataset %q: property %s has %d values for %d points", spec.Name, prop, len(values), spec.Points)
		}
		for i, raw := range values {
			v, err := DecodeValue(prop.Kind(), raw)
			if err != nil {
				return nil, fmt.Errorf("config: dataset %q: $%s[%d]: %w", spec.Name, prop, i, err)
			}
			pt := ds.In.Point(i)
			pt.SetProperty(prop, v)
			ds.In.SetPoint(i, pt)
		}
	}
	return ds, nil
}

// ExportDataset declares the current state of ds: its output side when it
// has one, its input otherwise. Point properties are written only when
// some point differs from the default point.
func ExportDataset(ds *attrblend.Dataset) DatasetSpec {
	points := ds.In
	if ds.HasOutput() {
		points = ds.Out()
	}
	spec := DatasetSpec{Name: ds.Name, Points: points.Len()}

	for _, id := range points.Identities() {
		def, _ := points.Default(id.Name)
		values := points.Values(id.Name)
		a := AttributeSpec{Name: id.Name, Kind: id.Kind, Default: EncodeValue(def), Values: make([]any, len(values))}
		for i, v := range values {
			a.Values[i] = EncodeValue(v)
		}
		spec.Attributes = append(spec.Attributes, a)
	}

	base := attrblend.DefaultPoint()
	for _, prop := range attrblend.BlendableProperties {
		values := make([]any, points.Len())
		changed := false
		for i := range values {
			v := points.Point(i).Property(prop)
			changed = changed || !v.Equal(base.Property(prop))
			values[i] = EncodeValue(v)
		}
		if changed {
			if spec.Properties == nil {
				spec.Properties = make(map[string][]any)
			}
			spec.Properties[prop.String()] = values
		}
	}
	return spec
}

// Export declares every dataset of a finished plan, sorted by name when
// names is empty or restricted to names otherwise.
func Export(p *Plan, names ...string) (*File, error) {
	if len(names) == 0 {
		names = slices.Sorted(slices.Values(p.order))
	}
	f := &File{Version: CurrentVersion}
	for _, name := range names {
		ds, ok := p.Dataset(name)
		if !ok {
			return nil, fmt.Errorf("config: unknown dataset %q", name)
		}
		f.Datasets = append(f.Datasets, ExportDataset(ds))
	}
	return f, nil
}
