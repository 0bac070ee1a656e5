// Package attrblend blends typed per-point attributes between point
// datasets.
//
// # Overview
//
// A Dataset holds a run of points, each with fixed properties (transform,
// density, bounds, color, steepness, seed), plus any number of named
// attribute columns. Every value is a tagged Value of one ValueKind: bool,
// integers, floats, vectors, quaternions, rotators, transforms and four
// text kinds.
//
// Reads and writes go through a BufferProxy. A ProxyDescriptor captures a
// Selector on a dataset side and resolves to a proxy:
//
//	d := attrblend.NewProxyDescriptor(ds, attrblend.RoleRead)
//	if err := d.Capture(attrblend.MustParseSelector("$Position.Z"), attrblend.SideIn); err != nil {
//	    return err
//	}
//	proxy, err := d.Resolve()
//
// # Blending
//
// A ProxyDataBlender applies one BlendMode per call, C = mode(A, B, w), or
// accumulates many contributions into one output index:
//
//	st := b.BeginMultiBlend(i)
//	for _, c := range contributors {
//	    b.MultiBlend(c.Index, i, c.Weight, &st)
//	}
//	b.EndMultiBlend(i, &st)
//
// Three facades build blenders over whole datasets:
//   - MetadataBlender: one blender per attribute and property, source into target
//   - UnionBlender: many sources merged into one target
//   - BlendOpsManager: an ordered pipeline of operations with back-references (#Previous, #k)
//
// # Processing
//
// ProcessUnion, ProcessMetadata and ProcessPipeline split the target into
// scopes and run them on a Pool. A Batch runs several jobs at once and
// calls completion callbacks after the last one returns.
//
// # Observability
//
// Logging goes through SetLogger and is silent by default. RegisterMetrics
// exports Prometheus counters and a scope duration histogram.
//
// # Job files
//
// Package config reads YAML job files describing datasets and jobs, and
// cmd/attrblend runs them from the command line.
package attrblend
