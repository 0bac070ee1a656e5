package attrblend

import "fmt"

// ProxyDataBlender combines operand buffers A and B into output buffer C
// under one blend mode. All three buffers share one working kind.
//
// Pairwise calls (Blend and its sugar) are stateless. Multi-source
// accumulation follows BeginMultiBlend, any number of MultiBlend calls,
// then EndMultiBlend, with the tracker owned by the caller. Calls for
// distinct target indices may run concurrently.
type ProxyDataBlender struct {
	mode BlendMode
	kind ValueKind
	ops  kindOps

	a, b, c BufferProxy

	reset  bool
	weight *WeightSource
}

// CreateProxyBlender resolves the descriptors and returns a blender. A nil b
// makes the output its own B operand, which is how collection facades blend
// into an existing target. c is always resolved for writing on the output
// side.
//
// Weighted modes use the weight passed to Blend and MultiBlend. A weight
// source given with WithWeightSource is only read by BlendAutoWeight, which
// falls back to 1 when none is bound. Only BlendOpsManager rejects weighted
// modes without a weight source (ErrWeightRequired).
func CreateProxyBlender(mode BlendMode, a, b, c *ProxyDescriptor, opts ...Option) (*ProxyDataBlender, error) {
	o := buildOptions(opts)
	if a == nil || c == nil {
		return nil, fmt.Errorf("%w: blender needs A and C operands", ErrUnknownAttribute)
	}

	cd := *c
	cd.Role, cd.Side = RoleWrite, SideOut
	cd.Direct = cd.Direct || o.direct
	if cd.WorkingKind != a.WorkingKind || (b != nil && b.WorkingKind != a.WorkingKind) {
		return nil, kindMismatch(a, b, &cd)
	}

	ad := *a
	ad.Direct = ad.Direct || o.direct
	pa, err := ad.Resolve()
	if err != nil {
		return nil, err
	}
	pc, err := cd.Resolve()
	if err != nil {
		return nil, err
	}
	pb := pc
	if b != nil {
		bd := *b
		bd.Direct = bd.Direct || o.direct
		if pb, err = bd.Resolve(); err != nil {
			return nil, err
		}
	}

	return newBlender(mode, pa, pb, pc, cd.Selector.String(), o)
}

// NewProxyBlender returns a blender over already resolved proxies. A nil b
// is replaced by c.
func NewProxyBlender(mode BlendMode, a, b, c BufferProxy, opts ...Option) (*ProxyDataBlender, error) {
	if a == nil || c == nil {
		return nil, fmt.Errorf("%w: blender needs A and C operands", ErrUnknownAttribute)
	}
	if b == nil {
		b = c
	}
	if a.Kind() != c.Kind() || b.Kind() != c.Kind() {
		return nil, fmt.Errorf("%w: %s, %s, %s", ErrKindMismatch, a.Kind(), b.Kind(), c.Kind())
	}
	return newBlender(mode, a, b, c, "", buildOptions(opts))
}

func newBlender(mode BlendMode, a, b, c BufferProxy, subject string, o options) (*ProxyDataBlender, error) {
	kind := c.Kind()
	if !mode.SupportsKind(kind) {
		return nil, &ModeCompatibilityError{Mode: mode, Kind: kind, Subject: subject, Err: ErrModeUnsupported}
	}
	if !c.Writable() {
		return nil, &ResolutionError{Selector: subject, Err: fmt.Errorf("%w: output is read-only", ErrUnsupportedKind)}
	}
	Logger().Debug("attrblend: blender created", "mode", mode, "kind", kind, "output", subject)
	return &ProxyDataBlender{
		mode:   mode,
		kind:   kind,
		ops:    opsFor(kind),
		a:      a,
		b:      b,
		c:      c,
		reset:  o.reset,
		weight: o.weight,
	}, nil
}

func kindMismatch(a, b, c *ProxyDescriptor) error {
	bk := a.WorkingKind
	if b != nil {
		bk = b.WorkingKind
	}
	return c.fail(fmt.Errorf("%w: A is %s, B is %s, C is %s", ErrKindMismatch, a.WorkingKind, bk, c.WorkingKind))
}

// Mode returns the blend mode.
func (p *ProxyDataBlender) Mode() BlendMode { return p.mode }

// Kind returns the working kind.
func (p *ProxyDataBlender) Kind() ValueKind { return p.kind }

// Output returns the C buffer.
func (p *ProxyDataBlender) Output() BufferProxy { return p.c }

// Blend writes mode(A[ai], B[bi], w) into C[ti].
func (p *ProxyDataBlender) Blend(ai, bi, ti int, w float64) {
	p.c.Write(ti, p.mode.apply(p.ops, p.a.Read(ai), p.b.Read(bi), w))
}

// BlendFrom blends A[src] with B[target] into C[target].
func (p *ProxyDataBlender) BlendFrom(src, target int, w float64) {
	p.Blend(src, target, target, w)
}

// BlendSelf blends index target against itself.
func (p *ProxyDataBlender) BlendSelf(target int, w float64) {
	p.Blend(target, target, target, w)
}

// BlendAutoWeight is BlendFrom with the weight read at src from the bound
// weight source. Without a weight source the weight is 1.
func (p *ProxyDataBlender) BlendAutoWeight(src, target int) {
	w := 1.0
	if p.weight != nil {
		w = p.weight.Read(src)
	}
	p.BlendFrom(src, target, w)
}

// Div divides C[target] by divider. A zero divider is ignored.
func (p *ProxyDataBlender) Div(target int, divider float64) {
	if divider == 0 {
		return
	}
	p.c.Write(target, p.ops.scale(p.c.Read(target), 1/divider))
}

// BeginMultiBlend starts accumulation at target and returns its tracker.
//
// With reset enabled the mode's neutral element is written into C; Copy and
// None leave C untouched. With reset disabled the current value of C seeds
// the accumulation as one contribution of weight 1.
func (p *ProxyDataBlender) BeginMultiBlend(target int) OpStats {
	st := OpStats{acc: p.ops.accZero(), reset: p.reset}
	if p.reset {
		if v, ok := p.mode.neutral(p.ops); ok {
			p.c.Write(target, v)
		}
		return st
	}
	if p.mode.accumulatesInTracker() {
		st.acc = p.ops.accumulate(st.acc, p.c.Read(target), 1)
		st.Count, st.WeightSum = 1, 1
	}
	return st
}

// MultiBlend folds A[src] with weight w into the accumulation at target.
//
// Average, Weight and Lerp only update the tracker. Every other mode
// writes the running value into C immediately; Copy and None overwrite it
// with the latest contribution.
func (p *ProxyDataBlender) MultiBlend(src, target int, w float64, st *OpStats) {
	v := p.a.Read(src)
	switch {
	case p.mode.accumulatesInTracker():
		if p.mode == ModeLerp {
			w = clamp01(w)
		}
		st.acc = p.ops.accumulate(st.acc, v, w)
		st.WeightSum += w
	case p.mode == ModeCopy || p.mode == ModeNone:
		p.c.Write(target, v)
	case (p.mode == ModeMin || p.mode == ModeMax) && st.reset && st.Count == 0:
		p.c.Write(target, v)
	default:
		p.c.Write(target, p.mode.apply(p.ops, v, p.c.Read(target), w))
	}
	st.Count++
}

// EndMultiBlend finalizes the accumulation at target. A tracker without
// weight leaves C as BeginMultiBlend set it.
func (p *ProxyDataBlender) EndMultiBlend(target int, st *OpStats) {
	if !p.mode.accumulatesInTracker() || st.Count == 0 || st.WeightSum == 0 {
		return
	}
	p.c.Write(target, p.ops.finalize(st.acc, st.WeightSum))
}
