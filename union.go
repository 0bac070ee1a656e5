package attrblend

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/attrblend/internal/metrics"
)

// WeightedPoint is one contributor to a union target: point Point of source
// Source, weighted by Weight.
type WeightedPoint struct {
	Source int
	Point  int
	Weight float64
}

// unionEntry is one attribute or property merged across sources.
type unionEntry struct {
	param BlendingParam
	def   Value
	// from lists the sources that contribute, in source order.
	from []int

	main *ProxyDataBlender
	// subs is indexed by source; nil where the source does not contribute.
	subs []*ProxyDataBlender
}

// UnionBlender merges any number of source collections into one target.
// Each target index draws from its own list of weighted contributors.
//
// Sources are registered with AddSource or AddSources, then Init builds
// the blenders. After Init, MergeSingle may be called concurrently for
// distinct target indices, each with its own trackers.
type UnionBlender struct {
	details *BlendingDetails
	opts    options

	sources    []*Dataset
	target     *Dataset
	entries    []*unionEntry
	mismatches []string
}

// NewUnionBlender returns an empty union driven by details.
func NewUnionBlender(details *BlendingDetails, opts ...Option) *UnionBlender {
	if details == nil {
		details = NewBlendingDetails(ModeAverage)
	}
	return &UnionBlender{details: details, opts: buildOptions(opts)}
}

// AddSource registers a source and returns its index in WeightedPoint.Source.
func (u *UnionBlender) AddSource(ds *Dataset) int {
	u.sources = append(u.sources, ds)
	return len(u.sources) - 1
}

// AddSources registers several sources in order.
func (u *UnionBlender) AddSources(ds ...*Dataset) {
	for _, d := range ds {
		u.AddSource(d)
	}
}

// Sources returns the registered sources.
func (u *UnionBlender) Sources() []*Dataset { return u.sources }

// Init discovers the attributes shared by the sources and builds one main
// blender plus one per-source blender for each of them, writing to the
// output side of target.
//
// Attributes whose kind differs from the first source that declared them
// are recorded as mismatches and merged from the agreeing sources only.
// Any other setup failure aborts Init and leaves the union empty.
func (u *UnionBlender) Init(target *Dataset) error {
	u.entries, u.mismatches, u.target = nil, nil, nil
	if len(u.sources) == 0 {
		return ErrNoSources
	}
	if target == nil {
		return fmt.Errorf("%w: no target", ErrNoSources)
	}

	entries := u.discover()
	for _, e := range entries {
		if err := u.build(e, target); err != nil {
			u.entries, u.mismatches = nil, nil
			Logger().Warn("attrblend: union setup failed", "attribute", e.param.Selector.String(), "err", err)
			err = fmt.Errorf("attrblend: union %s: %w", e.param.Selector, err)
			recorder().Setup(metrics.FacadeUnion, 0, err)
			return err
		}
	}

	u.entries = slices.DeleteFunc(entries, func(e *unionEntry) bool { return e.main == nil })
	u.target = target
	recorder().Setup(metrics.FacadeUnion, u.blenderCount(), nil)
	recorder().Mismatches(len(u.mismatches))
	if len(u.mismatches) > 0 {
		Logger().Warn("attrblend: attribute type mismatch across sources",
			"attributes", strings.Join(u.mismatches, ", "))
	}
	Logger().Debug("attrblend: union ready", "sources", len(u.sources), "entries", len(u.entries))
	return nil
}

func (u *UnionBlender) blenderCount() int {
	n := 0
	for _, e := range u.entries {
		n++
		for _, sub := range e.subs {
			if sub != nil {
				n++
			}
		}
	}
	return n
}

func (u *UnionBlender) mismatch(name string) {
	if !slices.Contains(u.mismatches, name) {
		u.mismatches = append(u.mismatches, name)
	}
}

// discover collects the attribute and property entries in first-seen order.
func (u *UnionBlender) discover() []*unionEntry {
	all := make([]int, len(u.sources))
	for i := range all {
		all[i] = i
	}

	var entries []*unionEntry
	for _, p := range u.details.PropertyParams() {
		entries = append(entries, &unionEntry{param: p, def: Zero(p.Identity.Kind), from: all})
	}

	byName := make(map[string]*unionEntry)
	for si, src := range u.sources {
		for _, id := range src.In.Identities() {
			if !u.details.CanBlend(id.Name) || u.opts.isIgnored(id.Name) {
				continue
			}
			e, ok := byName[id.Name]
			if !ok {
				mode := u.details.ModeFor(id)
				if mode == ModeNone {
					continue
				}
				def, _ := src.In.Default(id.Name)
				e = &unionEntry{
					param: BlendingParam{Selector: AttributeSelector(id.Name), Identity: id, Mode: mode},
					def:   def,
				}
				byName[id.Name] = e
				entries = append(entries, e)
			}
			if e.param.Identity.Kind != id.Kind {
				u.mismatch(id.Name)
				continue
			}
			e.from = append(e.from, si)
		}
	}
	return entries
}

func (u *UnionBlender) build(e *unionEntry, target *Dataset) error {
	sel, kind := e.param.Selector, e.param.Identity.Kind

	if sel.Target == TargetAttribute {
		if id, ok := target.Side(SideOut).Attribute(sel.Name); ok && id.Kind != kind {
			u.mismatch(sel.Name)
			return nil
		}
	}

	c := NewProxyDescriptor(target, RoleWrite)
	c.RealKind, c.Default = kind, e.def
	if err := c.Capture(sel, SideOut); err != nil {
		return err
	}
	self := NewProxyDescriptor(target, RoleRead)
	self.RealKind, self.Default = kind, e.def
	if err := self.Capture(sel, SideOut); err != nil {
		return err
	}

	opts := []Option{WithResetBeforeMultiBlend(u.opts.reset), WithDirectAccess(u.opts.direct)}
	main, err := CreateProxyBlender(e.param.Mode, &self, nil, &c, opts...)
	if err != nil {
		return err
	}

	subs := make([]*ProxyDataBlender, len(u.sources))
	for _, si := range e.from {
		a := NewProxyDescriptor(u.sources[si], RoleRead)
		if err := a.Capture(sel, SideIn); err != nil {
			return err
		}
		if subs[si], err = CreateProxyBlender(e.param.Mode, &a, nil, &c, opts...); err != nil {
			return err
		}
	}
	e.main, e.subs = main, subs
	return nil
}

// Len returns the number of merged attributes and properties.
func (u *UnionBlender) Len() int { return len(u.entries) }

// Params returns the merged entries in merge order.
func (u *UnionBlender) Params() []BlendingParam {
	params := make([]BlendingParam, len(u.entries))
	for i, e := range u.entries {
		params[i] = e.param
	}
	return params
}

// InitTrackers returns one tracker slot per merged entry.
func (u *UnionBlender) InitTrackers() []OpStats {
	return make([]OpStats, len(u.entries))
}

// MergeSingle merges the contributors of target index i. A target without
// contributors is left untouched. Contributors from sources that do not
// carry an entry are ignored for that entry. Weights pass through the
// bound weight source's curve when one is set.
func (u *UnionBlender) MergeSingle(i int, contributors []WeightedPoint, trackers []OpStats) {
	if len(contributors) == 0 {
		return
	}
	for k, e := range u.entries {
		trackers[k] = e.main.BeginMultiBlend(i)
		for _, wp := range contributors {
			if wp.Source < 0 || wp.Source >= len(e.subs) || e.subs[wp.Source] == nil {
				continue
			}
			e.subs[wp.Source].MultiBlend(wp.Point, i, u.opts.weight.Remap(wp.Weight), &trackers[k])
		}
		e.main.EndMultiBlend(i, &trackers[k])
	}
}

// Validate reports whether discovery found no type mismatch. Unless quiet,
// a failed validation is logged once with every mismatched name.
func (u *UnionBlender) Validate(quiet bool) bool {
	if len(u.mismatches) == 0 {
		return true
	}
	if !quiet {
		Logger().Warn(u.Mismatches().String())
	}
	return false
}

// Mismatches returns the attributes that were found with differing kinds.
func (u *UnionBlender) Mismatches() TypeMismatchWarning {
	return TypeMismatchWarning{Names: slices.Clone(u.mismatches)}
}

// Target returns the dataset given to Init, or nil before Init.
func (u *UnionBlender) Target() *Dataset { return u.target }
