package attrblend

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/attrblend/internal/metrics"
)

// OutputMode selects where a pipeline operation writes.
type OutputMode uint8

const (
	// OutputSameAsA writes to operand A's selector on the target.
	OutputSameAsA OutputMode = iota
	// OutputSameAsB writes to operand B's selector on the target.
	OutputSameAsB
	// OutputNew writes to OutputTo.
	OutputNew
	// OutputTransient writes to OutputTo and removes the attribute from the
	// target once the pipeline completes.
	OutputTransient
)

var outputModeNames = [...]string{"sameasa", "sameasb", "new", "transient"}

func (m OutputMode) String() string {
	if int(m) < len(outputModeNames) {
		return outputModeNames[m]
	}
	return fmt.Sprintf("OutputMode(%d)", uint8(m))
}

// MarshalText implements encoding.TextMarshaler.
func (m OutputMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *OutputMode) UnmarshalText(text []byte) error {
	key := strings.NewReplacer("_", "", "-", "").Replace(strings.ToLower(string(text)))
	i := slices.Index(outputModeNames[:], key)
	if i < 0 {
		return fmt.Errorf("attrblend: unknown output mode %q", text)
	}
	*m = OutputMode(i)
	return nil
}

// OperandAuthority decides the kind of an output attribute that does not
// exist yet.
type OperandAuthority uint8

const (
	// AuthorityAuto guesses from the output sub-field, then picks the
	// broader operand kind.
	AuthorityAuto OperandAuthority = iota
	// AuthorityA uses operand A's kind.
	AuthorityA
	// AuthorityB uses operand B's kind.
	AuthorityB
	// AuthorityCustom uses BlendOpConfig.CustomType.
	AuthorityCustom
)

var authorityNames = [...]string{"auto", "a", "b", "custom"}

func (a OperandAuthority) String() string {
	if int(a) < len(authorityNames) {
		return authorityNames[a]
	}
	return fmt.Sprintf("OperandAuthority(%d)", uint8(a))
}

// MarshalText implements encoding.TextMarshaler.
func (a OperandAuthority) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *OperandAuthority) UnmarshalText(text []byte) error {
	i := slices.Index(authorityNames[:], strings.ToLower(string(text)))
	if i < 0 {
		return fmt.Errorf("attrblend: unknown operand authority %q", text)
	}
	*a = OperandAuthority(i)
	return nil
}

// BlendOpConfig configures one pipeline operation.
//
// Operand and output selectors may use #Previous or #k to read the output
// of an earlier operation; such operands are read from the target's output
// side.
type BlendOpConfig struct {
	Mode BlendMode

	OperandA  Selector
	ConstantA *Value

	// UseOperandB enables OperandB and ConstantB. Without it B mirrors A.
	UseOperandB bool
	OperandB    Selector
	ConstantB   *Value

	OutputMode OutputMode
	OutputTo   Selector
	OutputType OperandAuthority
	CustomType ValueKind

	// KeepOutputOnMultiBlend seeds multi-source accumulation with the
	// existing output instead of the mode's neutral element.
	KeepOutputOnMultiBlend bool

	Weight WeightConfig
}

// BlendOperation is one prepared pipeline step.
type BlendOperation struct {
	index   int
	config  BlendOpConfig
	blender *ProxyDataBlender
	weight  *WeightSource
}

// Index returns the position of the operation in its pipeline.
func (o *BlendOperation) Index() int { return o.index }

// Config returns the configuration with references and outputs resolved.
func (o *BlendOperation) Config() BlendOpConfig { return o.config }

// Output returns the resolved output selector.
func (o *BlendOperation) Output() Selector { return o.config.OutputTo }

// Blender returns the underlying blender.
func (o *BlendOperation) Blender() *ProxyDataBlender { return o.blender }

// Blend blends source index src into target with an explicit weight, which
// passes through the weight curve.
func (o *BlendOperation) Blend(src, target int, w float64) {
	o.blender.BlendFrom(src, target, o.weight.Remap(w))
}

// BlendAB blends A[ai] and B[bi] into C[ti].
func (o *BlendOperation) BlendAB(ai, bi, ti int, w float64) {
	o.blender.Blend(ai, bi, ti, o.weight.Remap(w))
}

// BlendAutoWeight blends src into target with the weight read at src.
func (o *BlendOperation) BlendAutoWeight(src, target int) {
	o.blender.BlendFrom(src, target, o.weight.Read(src))
}

// BeginMultiBlend starts accumulation at target.
func (o *BlendOperation) BeginMultiBlend(target int) OpStats {
	return o.blender.BeginMultiBlend(target)
}

// MultiBlend folds one contribution into st.
func (o *BlendOperation) MultiBlend(src, target int, w float64, st *OpStats) {
	o.blender.MultiBlend(src, target, o.weight.Remap(w), st)
}

// EndMultiBlend finalizes st at target.
func (o *BlendOperation) EndMultiBlend(target int, st *OpStats) {
	o.blender.EndMultiBlend(target, st)
}

// BlendOpsManager prepares and runs an ordered list of blend operations
// against one target. Operations run in ascending order for each index.
type BlendOpsManager struct {
	opts options

	target           *Dataset
	sourceA, sourceB *Dataset
	sideA, sideB     Side
	multiOnly        bool

	ops []*BlendOperation
}

// NewBlendOpsManager returns a manager writing to target. Both operand
// sources default to the target's input side.
func NewBlendOpsManager(target *Dataset, opts ...Option) *BlendOpsManager {
	return &BlendOpsManager{
		opts:    buildOptions(opts),
		target:  target,
		sourceA: target,
		sourceB: target,
	}
}

// SetSources sets the datasets operands A and B are read from.
func (m *BlendOpsManager) SetSources(a *Dataset, sideA Side, b *Dataset, sideB Side) {
	m.sourceA, m.sideA = a, sideA
	m.sourceB, m.sideB = b, sideB
}

// SetUsedForMultiBlendOnly makes every operation blend its A operand into
// the output, ignoring B.
func (m *BlendOpsManager) SetUsedForMultiBlendOnly(v bool) { m.multiOnly = v }

// Init prepares every operation in ascending order. References must point
// at an earlier operation. On error no operation is kept.
func (m *BlendOpsManager) Init(configs []BlendOpConfig) error {
	m.ops = nil
	if m.target == nil || m.sourceA == nil || m.sourceB == nil {
		return ErrNoSources
	}

	ops := make([]*BlendOperation, 0, len(configs))
	for i, cfg := range configs {
		op, err := m.prepare(i, cfg, ops)
		if err != nil {
			Logger().Warn("attrblend: blend operation setup failed", "operation", i, "err", err)
			recorder().Setup(metrics.FacadePipeline, 0, err)
			return err
		}
		ops = append(ops, op)
	}
	m.ops = ops
	recorder().Setup(metrics.FacadePipeline, len(ops), nil)
	Logger().Debug("attrblend: pipeline ready", "target", m.target, "operations", len(ops))
	return nil
}

// fixReference replaces #Previous and #k by the output selector of the
// referenced operation. isRef reports whether a replacement happened.
func fixReference(i int, sel Selector, prepared []*BlendOperation) (fixed Selector, isRef bool, err error) {
	var k int
	switch sel.Target {
	case TargetPrevious:
		k = i - 1
	case TargetOperation:
		k = sel.Operation
	default:
		return sel, false, nil
	}

	switch {
	case k == i:
		return sel, true, &ConfigurationError{Operation: i, Reference: sel.String(),
			Err: fmt.Errorf("%w: self reference", ErrInvalidReference)}
	case k < 0 || k >= len(prepared):
		return sel, true, &ConfigurationError{Operation: i, Reference: sel.String(),
			Err: fmt.Errorf("%w: no earlier operation %d", ErrInvalidReference, k)}
	}

	out := prepared[k].config.OutputTo
	if sel.Field != SubfieldNone {
		out = out.WithField(sel.Field)
	}
	return out, true, nil
}

func (m *BlendOpsManager) prepare(i int, cfg BlendOpConfig, prepared []*BlendOperation) (*BlendOperation, error) {
	confErr := func(ref string, err error) error {
		return &ConfigurationError{Operation: i, Reference: ref, Err: err}
	}

	selA, refA, err := fixReference(i, cfg.OperandA, prepared)
	if err != nil {
		return nil, err
	}
	cfg.OperandA = selA

	selB, refB := selA, refA
	if cfg.UseOperandB {
		if selB, refB, err = fixReference(i, cfg.OperandB, prepared); err != nil {
			return nil, err
		}
	} else {
		cfg.ConstantB = cfg.ConstantA
	}
	cfg.OperandB = selB

	switch cfg.OutputMode {
	case OutputSameAsA:
		cfg.OutputTo = selA
	case OutputSameAsB:
		cfg.OutputTo = selB
	default:
		if cfg.OutputTo, _, err = fixReference(i, cfg.OutputTo, prepared); err != nil {
			return nil, err
		}
	}
	if cfg.OutputTo.Target == TargetLast {
		last := m.target.Side(SideOut).LastAttribute()
		if last == "" {
			return nil, confErr(cfg.OutputTo.String(), fmt.Errorf("%w: nothing written yet", ErrUnknownAttribute))
		}
		cfg.OutputTo = AttributeSelector(last).WithField(cfg.OutputTo.Field)
	}
	if cfg.OutputTo.Target != TargetAttribute && cfg.OutputTo.Target != TargetProperty {
		return nil, confErr(cfg.OutputTo.String(), fmt.Errorf("%w: output must be an attribute or property", ErrInvalidReference))
	}

	a, err := m.operand(selA, cfg.ConstantA, refA, m.sourceA, m.sideA)
	if err != nil {
		return nil, err
	}
	b, err := m.operand(selB, cfg.ConstantB, refB, m.sourceB, m.sideB)
	if err != nil {
		return nil, err
	}

	kind, err := m.outputKind(cfg, &a, &b)
	if err != nil {
		return nil, confErr(cfg.OutputTo.String(), err)
	}

	c := NewProxyDescriptor(m.target, RoleWrite)
	c.RealKind = kind
	if err := c.Capture(cfg.OutputTo, SideOut); err != nil {
		return nil, err
	}
	a.WorkingKind, b.WorkingKind = c.WorkingKind, c.WorkingKind

	ws, err := cfg.Weight.Build(m.sourceA)
	if err != nil {
		if cfg.Mode.RequiresWeight() {
			return nil, &ModeCompatibilityError{Mode: cfg.Mode, Kind: c.WorkingKind, Subject: cfg.OutputTo.String(),
				Err: fmt.Errorf("%w: %w", ErrWeightRequired, err)}
		}
		ws = ConstantWeight(1)
	}

	opts := []Option{
		WithResetBeforeMultiBlend(!cfg.KeepOutputOnMultiBlend),
		WithDirectAccess(m.opts.direct),
		WithWeightSource(ws),
	}
	var bp *ProxyDescriptor
	if !m.multiOnly {
		bp = &b
	}
	bl, err := CreateProxyBlender(cfg.Mode, &a, bp, &c, opts...)
	if err != nil {
		return nil, err
	}

	return &BlendOperation{index: i, config: cfg, blender: bl, weight: ws}, nil
}

// operand builds the read descriptor of one operand.
func (m *BlendOpsManager) operand(sel Selector, constant *Value, isRef bool, ds *Dataset, side Side) (ProxyDescriptor, error) {
	if constant != nil {
		d := ConstantDescriptor(*constant)
		d.Selector = sel
		return d, nil
	}
	if isRef {
		ds, side = m.target, SideOut
	}
	d := NewProxyDescriptor(ds, RoleRead)
	d.Direct = m.opts.direct
	if err := d.Capture(sel, side); err != nil {
		return ProxyDescriptor{}, err
	}
	return d, nil
}

// outputKind picks the storage kind of the output.
func (m *BlendOpsManager) outputKind(cfg BlendOpConfig, a, b *ProxyDescriptor) (ValueKind, error) {
	out := cfg.OutputTo
	if out.Target == TargetProperty {
		return out.Property.Kind(), nil
	}

	if id, ok := m.target.Side(SideOut).Attribute(out.Name); ok {
		var want ValueKind
		switch cfg.OutputType {
		case AuthorityA:
			want = a.RealKind
		case AuthorityB:
			want = b.RealKind
		case AuthorityCustom:
			want = cfg.CustomType
		}
		if want.Valid() && want != id.Kind {
			Logger().Warn("attrblend: existing output kind differs from the requested kind",
				"output", out.Name, "existing", id.Kind, "requested", want)
		}
		return id.Kind, nil
	}

	var kind ValueKind
	switch cfg.OutputType {
	case AuthorityA:
		kind = a.RealKind
	case AuthorityB:
		kind = b.RealKind
	case AuthorityCustom:
		kind = cfg.CustomType
	default:
		kind = out.Field.sourceKind()
		if !kind.Valid() {
			kind = BroaderKind(operandKind(a), operandKind(b))
		}
	}
	if !kind.Valid() {
		return KindUnknown, fmt.Errorf("%w: cannot infer output kind", ErrUnsupportedKind)
	}
	return kind, nil
}

// operandKind is the kind an operand contributes to output inference;
// narrowed operands count as doubles.
func operandKind(d *ProxyDescriptor) ValueKind {
	if d.Selector.Field != SubfieldNone {
		return KindDouble
	}
	return d.RealKind
}

// Len returns the number of prepared operations.
func (m *BlendOpsManager) Len() int { return len(m.ops) }

// Operations returns the prepared operations in order.
func (m *BlendOpsManager) Operations() []*BlendOperation { return m.ops }

// Target returns the dataset written to.
func (m *BlendOpsManager) Target() *Dataset { return m.target }

// BlendAutoWeight runs every operation for src into target.
func (m *BlendOpsManager) BlendAutoWeight(src, target int) {
	for _, op := range m.ops {
		op.BlendAutoWeight(src, target)
	}
}

// Blend runs every operation for src into target with weight w.
func (m *BlendOpsManager) Blend(src, target int, w float64) {
	for _, op := range m.ops {
		op.Blend(src, target, w)
	}
}

// BlendAB runs every operation on A[ai] and B[bi] into ti.
func (m *BlendOpsManager) BlendAB(ai, bi, ti int, w float64) {
	for _, op := range m.ops {
		op.BlendAB(ai, bi, ti, w)
	}
}

// InitTrackers returns one tracker slot per operation.
func (m *BlendOpsManager) InitTrackers() []OpStats {
	return make([]OpStats, len(m.ops))
}

// BeginMultiBlend starts accumulation at target for every operation.
func (m *BlendOpsManager) BeginMultiBlend(target int, trackers []OpStats) {
	for i, op := range m.ops {
		trackers[i] = op.BeginMultiBlend(target)
	}
}

// MultiBlend folds one contribution into every operation.
func (m *BlendOpsManager) MultiBlend(src, target int, w float64, trackers []OpStats) {
	for i, op := range m.ops {
		op.MultiBlend(src, target, w, &trackers[i])
	}
}

// EndMultiBlend finalizes every operation at target.
func (m *BlendOpsManager) EndMultiBlend(target int, trackers []OpStats) {
	for i, op := range m.ops {
		op.EndMultiBlend(target, &trackers[i])
	}
}

// Cleanup removes transient outputs from the target and returns their
// names. An output written by a later non-transient operation is kept.
func (m *BlendOpsManager) Cleanup() []string {
	var transient []string
	for _, op := range m.ops {
		out := op.config.OutputTo
		if out.Target != TargetAttribute {
			continue
		}
		if op.config.OutputMode == OutputTransient {
			if !slices.Contains(transient, out.Name) {
				transient = append(transient, out.Name)
			}
		} else {
			transient = slices.DeleteFunc(transient, func(n string) bool { return n == out.Name })
		}
	}
	for _, name := range transient {
		m.target.Out().RemoveAttribute(name)
	}
	return transient
}
