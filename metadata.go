package attrblend

import (
	"fmt"

	"github.com/gogpu/attrblend/internal/metrics"
)

// MetadataBlender blends every attribute and property of a source
// collection into a target collection, one ProxyDataBlender per entry.
//
// Init must succeed before any blend call. After Init the blender is
// read-only and may be shared across goroutines that work on distinct
// target indices.
type MetadataBlender struct {
	details *BlendingDetails
	opts    options

	target   *Dataset
	params   []BlendingParam
	blenders []*ProxyDataBlender
}

// NewMetadataBlender returns a blender driven by details.
func NewMetadataBlender(details *BlendingDetails, opts ...Option) *MetadataBlender {
	if details == nil {
		details = NewBlendingDetails(ModeAverage)
	}
	return &MetadataBlender{details: details, opts: buildOptions(opts)}
}

// Init builds the per-attribute blenders. A is read from the input side of
// source, B from secondary, and results are written to the output side of
// target. A nil secondary, or secondary == target, blends against the
// target's current output values.
//
// Init fails as a whole: on error no blender is kept.
func (m *MetadataBlender) Init(source, secondary, target *Dataset) error {
	m.params, m.blenders, m.target = nil, nil, nil
	if source == nil || target == nil {
		return ErrNoSources
	}
	if secondary == nil {
		secondary = target
	}

	ignored := make([]string, 0, len(m.opts.ignored))
	for name := range m.opts.ignored {
		ignored = append(ignored, name)
	}
	params := append(m.details.PropertyParams(), m.details.Params(source, target, ignored...)...)

	blenders := make([]*ProxyDataBlender, 0, len(params))
	for _, p := range params {
		bl, err := m.build(p, source, secondary, target)
		if err != nil {
			Logger().Warn("attrblend: metadata blender setup failed", "attribute", p.Selector.String(), "err", err)
			err = fmt.Errorf("attrblend: blending %s: %w", p.Selector, err)
			recorder().Setup(metrics.FacadeMetadata, 0, err)
			return err
		}
		blenders = append(blenders, bl)
	}

	m.params, m.blenders, m.target = params, blenders, target
	recorder().Setup(metrics.FacadeMetadata, len(blenders), nil)
	Logger().Debug("attrblend: metadata blender ready", "source", source, "target", target, "blenders", len(blenders))
	return nil
}

func (m *MetadataBlender) build(p BlendingParam, source, secondary, target *Dataset) (*ProxyDataBlender, error) {
	a := NewProxyDescriptor(source, RoleRead)
	if err := a.Capture(p.Selector, SideIn); err != nil {
		return nil, err
	}

	def := Zero(a.RealKind)
	if p.Selector.Target == TargetAttribute {
		if d, ok := source.In.Default(p.Selector.Name); ok {
			def = d
		}
	}

	c := NewProxyDescriptor(target, RoleWrite)
	c.RealKind, c.Default = a.RealKind, def
	if err := c.Capture(p.Selector, SideOut); err != nil {
		return nil, err
	}

	b := NewProxyDescriptor(secondary, RoleRead)
	bSide := SideIn
	if secondary == target {
		bSide = SideOut
	}
	if err := b.CaptureStrict(p.Selector, bSide); err != nil || b.WorkingKind != a.WorkingKind {
		b = a
		b.Dataset, b.Side, b.Default = target, SideOut, def
	}

	return CreateProxyBlender(p.Mode, &a, &b, &c, m.optionList()...)
}

func (m *MetadataBlender) optionList() []Option {
	return []Option{
		WithResetBeforeMultiBlend(m.opts.reset),
		WithDirectAccess(m.opts.direct),
		WithWeightSource(m.opts.weight),
	}
}

// Params returns the entries being blended, in blend order.
func (m *MetadataBlender) Params() []BlendingParam { return m.params }

// Target returns the dataset given to Init, or nil before Init.
func (m *MetadataBlender) Target() *Dataset { return m.target }

// Len returns the number of blenders.
func (m *MetadataBlender) Len() int { return len(m.blenders) }

// InitTrackers returns one tracker slot per blender.
func (m *MetadataBlender) InitTrackers() []OpStats {
	return make([]OpStats, len(m.blenders))
}

// Blend applies every blender to (ai, bi) -> ti.
func (m *MetadataBlender) Blend(ai, bi, ti int, w float64) {
	for _, b := range m.blenders {
		b.Blend(ai, bi, ti, w)
	}
}

// BlendFrom blends source index src into target index target.
func (m *MetadataBlender) BlendFrom(src, target int, w float64) {
	for _, b := range m.blenders {
		b.BlendFrom(src, target, w)
	}
}

// BeginMultiBlend starts accumulation at target for every blender.
// trackers must come from InitTrackers.
func (m *MetadataBlender) BeginMultiBlend(target int, trackers []OpStats) {
	for i, b := range m.blenders {
		trackers[i] = b.BeginMultiBlend(target)
	}
}

// MultiBlend folds one contribution into every tracker.
func (m *MetadataBlender) MultiBlend(src, target int, w float64, trackers []OpStats) {
	for i, b := range m.blenders {
		b.MultiBlend(src, target, w, &trackers[i])
	}
}

// EndMultiBlend finalizes every tracker at target.
func (m *MetadataBlender) EndMultiBlend(target int, trackers []OpStats) {
	for i, b := range m.blenders {
		b.EndMultiBlend(target, &trackers[i])
	}
}

// Div divides every output at target by divider.
func (m *MetadataBlender) Div(target int, divider float64) {
	for _, b := range m.blenders {
		b.Div(target, divider)
	}
}
