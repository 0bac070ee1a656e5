package attrblend

// BufferProxy is an indexed view over values of one working kind.
//
// Reads and writes convert between the working kind and the kind of the
// backing storage. Proxies over distinct indices may be used from
// different goroutines concurrently; a single index must not be written
// concurrently.
type BufferProxy interface {
	// Kind returns the working kind.
	Kind() ValueKind
	// Read returns the value at index i.
	Read(i int) Value
	// Write stores v at index i. It panics on read-only proxies.
	Write(i int, v Value)
	// Writable reports whether Write is allowed.
	Writable() bool
}

// attributeProxy reads and writes a named column. When kind matches the
// column kind and direct is set, values bypass conversion.
type attributeProxy struct {
	col      *column
	kind     ValueKind
	writable bool
	direct   bool
}

func (p *attributeProxy) Kind() ValueKind { return p.kind }
func (p *attributeProxy) Writable() bool  { return p.writable }

func (p *attributeProxy) Read(i int) Value {
	if p.direct {
		return p.col.values[i]
	}
	return Convert(p.col.values[i], p.kind)
}

func (p *attributeProxy) Write(i int, v Value) {
	if !p.writable {
		panic("attrblend: write to read-only attribute " + p.col.identity.Name)
	}
	if p.direct {
		p.col.values[i] = v
		return
	}
	p.col.values[i] = Convert(v, p.col.identity.Kind)
}

// propertyProxy reads and writes one fixed property of each point.
type propertyProxy struct {
	points   *Points
	property PointProperty
	kind     ValueKind
	writable bool
}

func (p *propertyProxy) Kind() ValueKind { return p.kind }
func (p *propertyProxy) Writable() bool  { return p.writable }

func (p *propertyProxy) Read(i int) Value {
	return Convert(p.points.points[i].Property(p.property), p.kind)
}

func (p *propertyProxy) Write(i int, v Value) {
	if !p.writable {
		panic("attrblend: write to read-only property " + p.property.String())
	}
	p.points.points[i].SetProperty(p.property, v)
}

// constantProxy returns the same value at every index.
type constantProxy struct {
	value Value
}

// NewConstantProxy returns a read-only proxy yielding v converted to kind.
func NewConstantProxy(v Value, kind ValueKind) BufferProxy {
	return &constantProxy{value: Convert(v, kind)}
}

func (p *constantProxy) Kind() ValueKind { return p.value.kind }
func (p *constantProxy) Writable() bool  { return false }
func (p *constantProxy) Read(int) Value  { return p.value }

func (p *constantProxy) Write(int, Value) {
	panic("attrblend: write to constant")
}

// subfieldProxy narrows an inner proxy working in the real kind to one
// scalar component. Writes read-modify-write the composite so the other
// components are left untouched.
type subfieldProxy struct {
	inner BufferProxy
	field Subfield
	kind  ValueKind
}

func (p *subfieldProxy) Kind() ValueKind { return p.kind }
func (p *subfieldProxy) Writable() bool  { return p.inner.Writable() }

func (p *subfieldProxy) Read(i int) Value {
	return Convert(Double(p.field.read(p.inner.Read(i))), p.kind)
}

func (p *subfieldProxy) Write(i int, v Value) {
	whole := p.inner.Read(i)
	p.inner.Write(i, p.field.write(whole, Convert(v, KindDouble).v[0]))
}
