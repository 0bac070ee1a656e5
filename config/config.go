// Package config reads attrblend job files.
//
// A job file declares datasets and the blend jobs to run over them:
//
//	datasets:
//	  - name: a
//	    points: 3
//	    attributes:
//	      - {name: v, kind: double, values: [1, 2, 3]}
//	jobs:
//	  - name: merge
//	    type: union
//	    target: out
//	    sources: [a, b]
//	    details: {default_mode: average}
//	    contributors:
//	      - [{source: a, point: 0}, {source: b, point: 0}]
//
// Enums are written by name (mode: average, kind: double, filter: exclude)
// and selectors in their text form ($Position.Z, #Previous). References
// must be quoted because YAML reads # as a comment and reserves @.
package config

import (
	"errors"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/attrblend"
)

// CurrentVersion is the job file version written by Marshal.
const CurrentVersion = "1"

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("config: invalid job file")

// File is a parsed job file.
type File struct {
	Version  string        `yaml:"version"`
	Datasets []DatasetSpec `yaml:"datasets"`
	Jobs     []JobSpec     `yaml:"jobs,omitempty"`
}

// DatasetSpec declares one dataset.
type DatasetSpec struct {
	Name   string `yaml:"name"`
	Points int    `yaml:"points"`

	Attributes []AttributeSpec `yaml:"attributes,omitempty"`
	// Properties maps a point property name to one value per point.
	Properties map[string][]any `yaml:"properties,omitempty"`
}

// AttributeSpec declares one attribute column. Values may be shorter than
// the dataset; missing entries take the default.
type AttributeSpec struct {
	Name    string              `yaml:"name"`
	Kind    attrblend.ValueKind `yaml:"kind"`
	Default any                 `yaml:"default,omitempty"`
	Values  []any               `yaml:"values,omitempty"`
}

// JobType selects the facade a job drives.
type JobType string

const (
	JobUnion    JobType = "union"
	JobMetadata JobType = "metadata"
	JobPipeline JobType = "pipeline"
)

// JobSpec declares one blend job over named datasets.
type JobSpec struct {
	Name   string  `yaml:"name"`
	Type   JobType `yaml:"type"`
	Target string  `yaml:"target"`

	// Sources lists the union sources, in contributor order.
	Sources []string `yaml:"sources,omitempty"`
	// Source is the metadata source, or operand A of a pipeline.
	Source string `yaml:"source,omitempty"`
	// Secondary is the metadata B operand, or operand B of a pipeline.
	Secondary string `yaml:"secondary,omitempty"`

	Details *DetailsSpec `yaml:"details,omitempty"`
	Options OptionsSpec  `yaml:"options,omitempty"`
	Weight  *WeightSpec  `yaml:"weight,omitempty"`

	// Contributors holds one list per target index of a union.
	Contributors [][]ContributorSpec `yaml:"contributors,omitempty"`
	// Pairs maps target indices to source indices of a metadata job. An
	// empty list blends source i into target i.
	Pairs []PairSpec `yaml:"pairs,omitempty"`

	Operations []OperationSpec `yaml:"operations,omitempty"`
}

// DetailsSpec is the YAML form of attrblend.BlendingDetails.
type DetailsSpec struct {
	DefaultMode    *attrblend.BlendMode           `yaml:"default_mode,omitempty"`
	Filter         attrblend.FilterPolicy         `yaml:"filter,omitempty"`
	Attributes     []string                       `yaml:"attributes,omitempty"`
	Modes          map[string]attrblend.BlendMode `yaml:"modes,omitempty"`
	PropertyModes  map[string]attrblend.BlendMode `yaml:"property_modes,omitempty"`
	SkipProperties bool                           `yaml:"skip_properties,omitempty"`
}

// OptionsSpec is the YAML form of the functional options.
type OptionsSpec struct {
	Reset   *bool    `yaml:"reset,omitempty"`
	Direct  bool     `yaml:"direct,omitempty"`
	Ignored []string `yaml:"ignored,omitempty"`
}

// WeightSpec is the YAML form of attrblend.WeightConfig. A missing
// constant means 1.
type WeightSpec struct {
	Input     attrblend.WeightInput `yaml:"input,omitempty"`
	Constant  *float64              `yaml:"constant,omitempty"`
	Attribute attrblend.Selector    `yaml:"attribute,omitempty"`
	Curve     []attrblend.CurveKey  `yaml:"curve,omitempty"`
}

// ContributorSpec is one weighted contributor of a union target. A missing
// weight means 1.
type ContributorSpec struct {
	Source string   `yaml:"source"`
	Point  int      `yaml:"point"`
	Weight *float64 `yaml:"weight,omitempty"`
}

// PairSpec blends source index Source into target index Target.
type PairSpec struct {
	Target int      `yaml:"target"`
	Source int      `yaml:"source"`
	Weight *float64 `yaml:"weight,omitempty"`
}

// ConstantSpec is a literal operand.
type ConstantSpec struct {
	Kind  attrblend.ValueKind `yaml:"kind"`
	Value any                 `yaml:"value"`
}

// OperationSpec is the YAML form of attrblend.BlendOpConfig. Setting B or
// ConstantB enables operand B.
type OperationSpec struct {
	Mode      attrblend.BlendMode `yaml:"mode"`
	A         *attrblend.Selector `yaml:"a,omitempty"`
	ConstantA *ConstantSpec       `yaml:"constant_a,omitempty"`
	B         *attrblend.Selector `yaml:"b,omitempty"`
	ConstantB *ConstantSpec       `yaml:"constant_b,omitempty"`

	Output     attrblend.OutputMode       `yaml:"output,omitempty"`
	To         *attrblend.Selector        `yaml:"to,omitempty"`
	Type       attrblend.OperandAuthority `yaml:"type,omitempty"`
	CustomType attrblend.ValueKind        `yaml:"custom_type,omitempty"`
	KeepOutput bool                       `yaml:"keep_output,omitempty"`

	Weight *WeightSpec `yaml:"weight,omitempty"`
}

// Parse parses and validates a job file.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("config: parse job file: %w", err)
	}
	applyDefaults(&f)
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Marshal serializes a job file.
func Marshal(f *File) ([]byte, error) {
	if f.Version == "" {
		f.Version = CurrentVersion
	}
	return yaml.Marshal(f)
}

func applyDefaults(f *File) {
	if f.Version == "" {
		f.Version = CurrentVersion
	}
	for i := range f.Jobs {
		j := &f.Jobs[i]
		if j.Name == "" {
			j.Name = fmt.Sprintf("%s-%d", j.Type, i)
		}
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Validate checks names and references. It does not resolve selectors;
// that happens when a plan is built.
func (f *File) Validate() error {
	names := make(map[string]bool, len(f.Datasets))
	for _, d := range f.Datasets {
		switch {
		case d.Name == "":
			return invalid("dataset without a name")
		case names[d.Name]:
			return invalid("duplicate dataset %q", d.Name)
		case d.Points < 0:
			return invalid("dataset %q has %d points", d.Name, d.Points)
		}
		names[d.Name] = true
		for _, a := range d.Attributes {
			if a.Name == "" || !a.Kind.Valid() {
				return invalid("dataset %q: attribute %q needs a name and a kind", d.Name, a.Name)
			}
			if len(a.Values) > d.Points {
				return invalid("dataset %q: attribute %q has %d values for %d points", d.Name, a.Name, len(a.Values), d.Points)
			}
		}
	}

	known := func(job, name string) error {
		if !names[name] {
			return invalid("job %q: unknown dataset %q", job, name)
		}
		return nil
	}
	for _, j := range f.Jobs {
		if err := known(j.Name, j.Target); err != nil {
			return err
		}
		switch j.Type {
		case JobUnion:
			if len(j.Sources) == 0 {
				return invalid("job %q: union without sources", j.Name)
			}
			for _, s := range j.Sources {
				if err := known(j.Name, s); err != nil {
					return err
				}
			}
			for i, list := range j.Contributors {
				for _, c := range list {
					if !slices.Contains(j.Sources, c.Source) {
						return invalid("job %q: target %d draws from %q, which is not a source", j.Name, i, c.Source)
					}
				}
			}
		case JobMetadata:
			if j.Source == "" {
				return invalid("job %q: metadata job without a source", j.Name)
			}
			if err := known(j.Name, j.Source); err != nil {
				return err
			}
			if j.Secondary != "" {
				if err := known(j.Name, j.Secondary); err != nil {
					return err
				}
			}
		case JobPipeline:
			if len(j.Operations) == 0 {
				return invalid("job %q: pipeline without operations", j.Name)
			}
			for _, name := range []string{j.Source, j.Secondary} {
				if name == "" {
					continue
				}
				if err := known(j.Name, name); err != nil {
					return err
				}
			}
			for k, op := range j.Operations {
				if op.A == nil && op.ConstantA == nil {
					return invalid("job %q: operation %d has no operand A", j.Name, k)
				}
			}
		default:
			return invalid("job %q: unknown type %q", j.Name, j.Type)
		}
	}
	return nil
}

// datasets returns every dataset name a job touches.
func (j *JobSpec) datasets() []string {
	out := []string{j.Target}
	out = append(out, j.Sources...)
	for _, name := range []string{j.Source, j.Secondary} {
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}
