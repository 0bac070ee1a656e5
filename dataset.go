package attrblend

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/image/math/f64"
)

// Side selects the input or output half of a dataset.
type Side uint8

const (
	// SideIn is the read-only input data.
	SideIn Side = iota
	// SideOut is the output data, forked from the input on first use.
	SideOut
)

func (s Side) String() string {
	if s == SideOut {
		return "out"
	}
	return "in"
}

// Point is one record's fixed geometric properties.
type Point struct {
	Transform Transform
	Density   float32
	BoundsMin f64.Vec3
	BoundsMax f64.Vec3
	Color     f64.Vec4
	Steepness float32
	Seed      int32
}

// DefaultPoint returns a unit point at the origin.
func DefaultPoint() Point {
	return Point{
		Transform: IdentityTransform(),
		Density:   1,
		BoundsMin: f64.Vec3{-1, -1, -1},
		BoundsMax: f64.Vec3{1, 1, 1},
		Color:     f64.Vec4{1, 1, 1, 1},
		Steepness: 0.5,
	}
}

// AttributeIdentity identifies a named, typed column.
type AttributeIdentity struct {
	Name                  string
	Kind                  ValueKind
	SupportsInterpolation bool
}

// NewAttributeIdentity builds the identity of a column of the given kind.
// Booleans and text never interpolate.
func NewAttributeIdentity(name string, kind ValueKind) AttributeIdentity {
	return AttributeIdentity{
		Name:                  name,
		Kind:                  kind,
		SupportsInterpolation: kind.IsNumeric() && kind != KindBool,
	}
}

type column struct {
	identity AttributeIdentity
	def      Value
	values   []Value
}

// Points is one side of a dataset: a run of point records plus named
// attribute columns of the same length.
//
// Schema changes (AddAttribute, RemoveAttribute) are setup operations and
// must not race with reads or writes. Concurrent Set calls on distinct
// indices are safe.
type Points struct {
	points  []Point
	columns map[string]*column
	names   []string
	last    string
}

// NewPoints returns n default points without attributes.
func NewPoints(n int) *Points {
	p := &Points{
		points:  make([]Point, n),
		columns: make(map[string]*column),
	}
	for i := range p.points {
		p.points[i] = DefaultPoint()
	}
	return p
}

// Len returns the number of points.
func (p *Points) Len() int { return len(p.points) }

// Point returns a copy of point i.
func (p *Points) Point(i int) Point { return p.points[i] }

// SetPoint replaces point i.
func (p *Points) SetPoint(i int, pt Point) { p.points[i] = pt }

// AddAttribute creates a column of kind filled with def. Adding an existing
// attribute of the same kind is a no-op.
func (p *Points) AddAttribute(name string, kind ValueKind, def Value) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %s for %q", ErrUnsupportedKind, kind, name)
	}
	if col, ok := p.columns[name]; ok {
		if col.identity.Kind != kind {
			return fmt.Errorf("%w: %q is %s, not %s", ErrKindMismatch, name, col.identity.Kind, kind)
		}
		return nil
	}
	def = Convert(def, kind)
	col := &column{
		identity: NewAttributeIdentity(name, kind),
		def:      def,
		values:   make([]Value, len(p.points)),
	}
	for i := range col.values {
		col.values[i] = def
	}
	p.columns[name] = col
	p.names = append(p.names, name)
	return nil
}

// RemoveAttribute drops a column. Unknown names are ignored.
func (p *Points) RemoveAttribute(name string) {
	if _, ok := p.columns[name]; !ok {
		return
	}
	delete(p.columns, name)
	p.names = slices.DeleteFunc(p.names, func(n string) bool { return n == name })
	if p.last == name {
		p.last = ""
	}
}

// Attribute returns the identity of a column.
func (p *Points) Attribute(name string) (AttributeIdentity, bool) {
	col, ok := p.columns[name]
	if !ok {
		return AttributeIdentity{}, false
	}
	return col.identity, true
}

// Default returns the default value of a column.
func (p *Points) Default(name string) (Value, bool) {
	col, ok := p.columns[name]
	if !ok {
		return Value{}, false
	}
	return col.def, true
}

// Identities lists every column in creation order.
func (p *Points) Identities() []AttributeIdentity {
	out := make([]AttributeIdentity, 0, len(p.names))
	for _, name := range p.names {
		out = append(out, p.columns[name].identity)
	}
	return out
}

// Get returns attribute name at index i.
func (p *Points) Get(name string, i int) (Value, bool) {
	col, ok := p.columns[name]
	if !ok {
		return Value{}, false
	}
	return col.values[i], true
}

// Set stores v, converted to the column kind, at index i.
func (p *Points) Set(name string, i int, v Value) error {
	col, ok := p.columns[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAttribute, name)
	}
	col.values[i] = Convert(v, col.identity.Kind)
	return nil
}

// Values returns a copy of a column.
func (p *Points) Values(name string) []Value {
	col, ok := p.columns[name]
	if !ok {
		return nil
	}
	return slices.Clone(col.values)
}

// LastAttribute returns the most recently allocated or written-to column
// name, or "" when none.
func (p *Points) LastAttribute() string { return p.last }

// Clone returns a deep copy.
func (p *Points) Clone() *Points {
	c := &Points{
		points:  slices.Clone(p.points),
		columns: make(map[string]*column, len(p.columns)),
		names:   slices.Clone(p.names),
		last:    p.last,
	}
	for name, col := range p.columns {
		c.columns[name] = &column{
			identity: col.identity,
			def:      col.def,
			values:   slices.Clone(col.values),
		}
	}
	return c
}

// column returns the named column, allocating it with def on the fly when
// allowed.
func (p *Points) column(name string, kind ValueKind, def Value, allocate bool) (*column, error) {
	if col, ok := p.columns[name]; ok {
		return col, nil
	}
	if !allocate {
		return nil, ErrUnknownAttribute
	}
	if err := p.AddAttribute(name, kind, def); err != nil {
		return nil, err
	}
	return p.columns[name], nil
}

// Dataset is the storage facade for one point collection: an input side
// and an output side forked from it on first use.
type Dataset struct {
	ID   uuid.UUID
	Name string
	In   *Points

	out *Points
}

// NewDataset returns a dataset of n default points.
func NewDataset(name string, n int) *Dataset {
	return &Dataset{
		ID:   uuid.New(),
		Name: name,
		In:   NewPoints(n),
	}
}

// Out returns the output side, cloning the input on the first call.
func (d *Dataset) Out() *Points {
	if d.out == nil {
		d.out = d.In.Clone()
	}
	return d.out
}

// HasOutput reports whether the output side has been forked.
func (d *Dataset) HasOutput() bool { return d.out != nil }

// Commit makes the output side the new input and drops the output, so a
// following blend reads the results of the previous one. It is a no-op
// when no output was forked.
func (d *Dataset) Commit() {
	if d.out == nil {
		return
	}
	d.In, d.out = d.out, nil
}

// Side returns the points of side s.
func (d *Dataset) Side(s Side) *Points {
	if s == SideOut {
		return d.Out()
	}
	return d.In
}

// Len returns the number of points.
func (d *Dataset) Len() int { return d.In.Len() }

func (d *Dataset) String() string {
	if d == nil {
		return "<nil>"
	}
	return d.Name + "(" + d.ID.String()[:8] + ")"
}

// GetAttributeIdentities lists the input side columns.
func (d *Dataset) GetAttributeIdentities() []AttributeIdentity {
	return d.In.Identities()
}

// AllocateOutputBuffer creates, or returns, an output column and a writable
// proxy over it.
func (d *Dataset) AllocateOutputBuffer(name string, kind ValueKind, def Value) (BufferProxy, error) {
	col, err := d.Out().column(name, kind, def, true)
	if err != nil {
		return nil, &ResolutionError{Selector: name, Dataset: d.String(), Err: err}
	}
	if col.identity.Kind != kind {
		return nil, &ResolutionError{Selector: name, Dataset: d.String(), Err: ErrKindMismatch}
	}
	d.out.last = name
	return &attributeProxy{col: col, kind: kind, writable: true}, nil
}
