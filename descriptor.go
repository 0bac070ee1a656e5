package attrblend

import "fmt"

// Role tells whether a resolved proxy is read from or written to.
type Role uint8

const (
	// RoleRead resolves a read-only proxy.
	RoleRead Role = iota
	// RoleWrite resolves a writable proxy on the output side.
	RoleWrite
)

func (r Role) String() string {
	if r == RoleWrite {
		return "write"
	}
	return "read"
}

// ProxyDescriptor describes where a blend operand lives. It holds no data;
// Resolve binds it to a BufferProxy.
//
// The usual lifecycle is NewProxyDescriptor, Capture, optional adjustment
// of WorkingKind, then Resolve.
type ProxyDescriptor struct {
	Dataset  *Dataset
	Side     Side
	Role     Role
	Selector Selector

	// RealKind is the kind of the backing storage. Capture fills it in;
	// callers set it beforehand when the descriptor targets an output
	// attribute that does not exist yet.
	RealKind ValueKind
	// WorkingKind is the kind values are converted to on read and write.
	WorkingKind ValueKind

	// Constant reads the selector once, at the first input point, and
	// repeats it for every index. The read happens in Resolve, so later
	// writes to that point are not seen.
	Constant bool
	// Default seeds newly allocated output columns.
	Default Value
	// Direct skips conversion when the real and working kinds match.
	Direct bool
	// Strict forbids allocating missing output columns.
	Strict bool

	literal *Value
}

// NewProxyDescriptor returns a descriptor on ds with the given role.
func NewProxyDescriptor(ds *Dataset, role Role) ProxyDescriptor {
	side := SideIn
	if role == RoleWrite {
		side = SideOut
	}
	return ProxyDescriptor{Dataset: ds, Role: role, Side: side}
}

// ConstantDescriptor returns a read descriptor that yields v at every index.
func ConstantDescriptor(v Value) ProxyDescriptor {
	return ProxyDescriptor{
		Role:        RoleRead,
		RealKind:    v.Kind(),
		WorkingKind: v.Kind(),
		Constant:    true,
		literal:     &v,
	}
}

// IsLiteral reports whether the descriptor wraps a literal constant.
func (d *ProxyDescriptor) IsLiteral() bool { return d.literal != nil }

func (d *ProxyDescriptor) String() string {
	if d.literal != nil {
		return "const(" + d.literal.String() + ")"
	}
	return fmt.Sprintf("%s[%s].%s", d.Dataset, d.Side, d.Selector)
}

func (d *ProxyDescriptor) fail(err error) error {
	re := &ResolutionError{Selector: d.Selector.String(), Err: err}
	if d.Dataset != nil {
		re.Dataset = d.Dataset.String()
	}
	return re
}

// Capture binds the descriptor to sel on side and infers its kinds. It
// inspects the schema only and never allocates.
func (d *ProxyDescriptor) Capture(sel Selector, side Side) error {
	d.Selector, d.Side = sel, side
	if d.literal != nil {
		return nil
	}
	if d.Dataset == nil {
		return d.fail(ErrUnknownAttribute)
	}

	switch sel.Target {
	case TargetPrevious, TargetOperation:
		return d.fail(ErrInvalidReference)
	case TargetLast:
		last := d.Dataset.Side(SideOut).LastAttribute()
		if last == "" {
			return d.fail(ErrUnknownAttribute)
		}
		d.Selector = AttributeSelector(last).WithField(sel.Field)
	}

	switch d.Selector.Target {
	case TargetProperty:
		if d.Selector.Property == PropertyNone || d.Selector.Property >= propertyCount {
			return d.fail(ErrUnsupportedKind)
		}
		d.RealKind = d.Selector.Property.Kind()
	default:
		id, ok := d.schema().Attribute(d.Selector.Name)
		switch {
		case ok:
			d.RealKind = id.Kind
		case d.readsOutput() && d.Strict:
			return d.fail(ErrMissingOutput)
		case d.readsOutput() && d.RealKind.Valid():
			// allocated by Resolve
		default:
			return d.fail(ErrUnknownAttribute)
		}
	}

	if !d.Selector.Field.validFor(d.RealKind) {
		return d.fail(fmt.Errorf("%w: %s on %s", ErrInvalidSubfield, d.Selector.Field, d.RealKind))
	}
	d.WorkingKind = d.RealKind
	if d.Selector.Field != SubfieldNone {
		d.WorkingKind = KindDouble
	}
	return nil
}

// CaptureStrict is Capture with missing output attributes treated as
// failures.
func (d *ProxyDescriptor) CaptureStrict(sel Selector, side Side) error {
	strict := d.Strict
	d.Strict = true
	err := d.Capture(sel, side)
	d.Strict = strict
	return err
}

func (d *ProxyDescriptor) readsOutput() bool {
	return !d.Constant && (d.Side == SideOut || d.Role == RoleWrite)
}

// schema returns the points whose columns describe this descriptor without
// forking the output side.
func (d *ProxyDescriptor) schema() *Points {
	if d.readsOutput() && d.Dataset.HasOutput() {
		return d.Dataset.Out()
	}
	return d.Dataset.In
}

// Resolve binds the descriptor to a proxy. The only side effect is the
// allocation of a missing output column. Constant descriptors are the one
// case that reads data: their value is taken from the first input point
// here, not at blend time.
func (d ProxyDescriptor) Resolve() (BufferProxy, error) {
	if !d.WorkingKind.Valid() {
		return nil, d.fail(fmt.Errorf("%w: working kind %s", ErrUnsupportedKind, d.WorkingKind))
	}
	if d.Constant {
		if d.Role == RoleWrite {
			return nil, d.fail(fmt.Errorf("%w: constants are read-only", ErrUnsupportedKind))
		}
		return NewConstantProxy(d.constant(), d.WorkingKind), nil
	}
	if d.Dataset == nil {
		return nil, d.fail(ErrUnknownAttribute)
	}

	narrowed := d.Selector.Field != SubfieldNone
	kind := d.WorkingKind
	if narrowed {
		kind = d.RealKind
	}

	points := d.Dataset.In
	if d.readsOutput() {
		points = d.Dataset.Out()
	}
	writable := d.Role == RoleWrite

	var base BufferProxy
	switch d.Selector.Target {
	case TargetProperty:
		base = &propertyProxy{points: points, property: d.Selector.Property, kind: kind, writable: writable}
	case TargetAttribute:
		def := d.Default
		if !def.IsValid() {
			def = Zero(d.RealKind)
		}
		col, err := points.column(d.Selector.Name, d.RealKind, def, d.readsOutput() && !d.Strict)
		if err != nil {
			if d.readsOutput() && d.Strict {
				return nil, d.fail(ErrMissingOutput)
			}
			return nil, d.fail(err)
		}
		if writable {
			points.last = d.Selector.Name
		}
		base = &attributeProxy{
			col:      col,
			kind:     kind,
			writable: writable,
			direct:   d.Direct && col.identity.Kind == kind,
		}
	default:
		return nil, d.fail(ErrInvalidReference)
	}

	if narrowed {
		if !d.Selector.Field.validFor(d.RealKind) {
			return nil, d.fail(ErrInvalidSubfield)
		}
		return &subfieldProxy{inner: base, field: d.Selector.Field, kind: d.WorkingKind}, nil
	}
	return base, nil
}

// constant evaluates a constant descriptor.
func (d *ProxyDescriptor) constant() Value {
	if d.literal != nil {
		return *d.literal
	}
	if d.Dataset == nil || d.Dataset.Len() == 0 {
		return Zero(d.WorkingKind)
	}
	var v Value
	switch d.Selector.Target {
	case TargetProperty:
		v = d.Dataset.In.Point(0).Property(d.Selector.Property)
	default:
		got, ok := d.Dataset.In.Get(d.Selector.Name, 0)
		if !ok {
			return Zero(d.WorkingKind)
		}
		v = got
	}
	if d.Selector.Field != SubfieldNone {
		return Double(d.Selector.Field.read(v))
	}
	return v
}
