package config

import (
	"context"
	"fmt"
	"slices"

	"github.com/gogpu/attrblend"
)

// Plan is a job file bound to engine objects. Build creates it, Run or
// Check drives it. A plan runs once.
type Plan struct {
	// ChunkSize is the scope length used when processing. Zero uses
	// attrblend.DefaultChunkSize.
	ChunkSize int

	order    []string
	datasets map[string]*attrblend.Dataset
	jobs     []*job
}

// Report summarizes the jobs of a run or check.
type Report struct {
	Jobs []JobReport
}

// JobReport describes one initialized job.
type JobReport struct {
	Name string
	Type JobType
	// Entries is the number of attributes, properties or operations
	// blended by the job.
	Entries int
	// Mismatches lists attributes that a union found with differing kinds.
	Mismatches []string
}

// Mismatches returns every mismatched attribute of the report, prefixed
// by its job name.
func (r *Report) Mismatches() []string {
	var out []string
	for _, j := range r.Jobs {
		for _, name := range j.Mismatches {
			out = append(out, j.Name+"/"+name)
		}
	}
	return out
}

type job struct {
	spec JobSpec
	// datasets lists the names the job reads or writes.
	datasets []string
	init     func() (JobReport, error)
	schedule func(b *attrblend.Batch)
}

// Build creates the datasets of f and prepares its jobs. Selectors are
// resolved later, when a job is initialized.
func Build(f *File) (*Plan, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	p := &Plan{datasets: make(map[string]*attrblend.Dataset, len(f.Datasets))}
	for _, spec := range f.Datasets {
		ds, err := NewDataset(spec)
		if err != nil {
			return nil, err
		}
		p.order = append(p.order, spec.Name)
		p.datasets[spec.Name] = ds
	}

	for _, spec := range f.Jobs {
		var (
			j   *job
			err error
		)
		switch spec.Type {
		case JobUnion:
			j, err = p.unionJob(spec)
		case JobMetadata:
			j, err = p.metadataJob(spec)
		case JobPipeline:
			j, err = p.pipelineJob(spec)
		default:
			err = invalid("job %q: unknown type %q", spec.Name, spec.Type)
		}
		if err != nil {
			return nil, err
		}
		j.spec, j.datasets = spec, spec.datasets()
		p.jobs = append(p.jobs, j)
	}
	return p, nil
}

// Dataset returns a dataset by name.
func (p *Plan) Dataset(name string) (*attrblend.Dataset, bool) {
	ds, ok := p.datasets[name]
	return ds, ok
}

// Datasets returns every dataset in file order.
func (p *Plan) Datasets() []*attrblend.Dataset {
	out := make([]*attrblend.Dataset, len(p.order))
	for i, name := range p.order {
		out[i] = p.datasets[name]
	}
	return out
}

// Check initializes every job without blending and reports what would
// run. Jobs are initialized in file order.
func (p *Plan) Check() (*Report, error) {
	report := &Report{}
	for _, j := range p.jobs {
		jr, err := j.init()
		if err != nil {
			return report, fmt.Errorf("config: job %q: %w", j.spec.Name, err)
		}
		report.Jobs = append(report.Jobs, jr)
	}
	return report, nil
}

// Run executes the jobs on pool. Consecutive jobs that share no dataset
// form a stage and run concurrently; stages run in file order. After a
// stage the outputs of its targets are committed, and each stage is
// initialized right before it runs, so later jobs read earlier results.
func (p *Plan) Run(ctx context.Context, pool *attrblend.Pool) (*Report, error) {
	report := &Report{}
	for _, stage := range p.stages() {
		for _, j := range stage {
			jr, err := j.init()
			if err != nil {
				return report, fmt.Errorf("config: job %q: %w", j.spec.Name, err)
			}
			report.Jobs = append(report.Jobs, jr)
		}

		batch := attrblend.NewBatch(ctx, pool, p.ChunkSize, 0)
		for _, j := range stage {
			j.schedule(batch)
		}
		if err := batch.Wait(); err != nil {
			return report, fmt.Errorf("config: run: %w", err)
		}
		for _, j := range stage {
			p.datasets[j.spec.Target].Commit()
		}
		attrblend.Logger().Info("attrblend: stage done", "jobs", len(stage))
	}
	return report, nil
}

func (p *Plan) stages() [][]*job {
	var (
		stages  [][]*job
		current []*job
		touched = make(map[string]bool)
	)
	for _, j := range p.jobs {
		if slices.ContainsFunc(j.datasets, func(n string) bool { return touched[n] }) {
			stages = append(stages, current)
			current, touched = nil, make(map[string]bool)
		}
		current = append(current, j)
		for _, n := range j.datasets {
			touched[n] = true
		}
	}
	if len(current) > 0 {
		stages = append(stages, current)
	}
	return stages
}

func (p *Plan) unionJob(spec JobSpec) (*job, error) {
	target := p.datasets[spec.Target]
	index := make(map[string]int, len(spec.Sources))
	sources := make([]*attrblend.Dataset, len(spec.Sources))
	for i, name := range spec.Sources {
		index[name] = i
		sources[i] = p.datasets[name]
	}

	if len(spec.Contributors) > target.Len() {
		return nil, invalid("job %q: %d contributor lists for %d target points", spec.Name, len(spec.Contributors), target.Len())
	}
	contributors := make([][]attrblend.WeightedPoint, len(spec.Contributors))
	for i, list := range spec.Contributors {
		for _, c := range list {
			si := index[c.Source]
			if c.Point < 0 || c.Point >= sources[si].Len() {
				return nil, invalid("job %q: target %d: %s has no point %d", spec.Name, i, c.Source, c.Point)
			}
			contributors[i] = append(contributors[i], attrblend.WeightedPoint{
				Source: si, Point: c.Point, Weight: weightOr(c.Weight, 1),
			})
		}
	}

	opts, err := spec.options(target)
	if err != nil {
		return nil, err
	}
	u := attrblend.NewUnionBlender(spec.Details.details(), opts...)
	u.AddSources(sources...)

	return &job{
		init: func() (JobReport, error) {
			if err := u.Init(target); err != nil {
				return JobReport{}, err
			}
			u.Validate(true)
			return JobReport{Name: spec.Name, Type: JobUnion, Entries: u.Len(), Mismatches: u.Mismatches().Names}, nil
		},
		schedule: func(b *attrblend.Batch) {
			b.Union(u, func(i int) []attrblend.WeightedPoint {
				if i < len(contributors) {
					return contributors[i]
				}
				return nil
			})
		},
	}, nil
}

func (p *Plan) metadataJob(spec JobSpec) (*job, error) {
	source, target := p.datasets[spec.Source], p.datasets[spec.Target]
	var secondary *attrblend.Dataset
	if spec.Secondary != "" {
		secondary = p.datasets[spec.Secondary]
		if secondary.Len() < target.Len() {
			return nil, invalid("job %q: secondary %q is shorter than the target", spec.Name, spec.Secondary)
		}
	}

	pairs := make(map[int]attrblend.WeightedPoint, len(spec.Pairs))
	for _, pr := range spec.Pairs {
		if pr.Target < 0 || pr.Target >= target.Len() || pr.Source < 0 || pr.Source >= source.Len() {
			return nil, invalid("job %q: pair %d <- %d out of range", spec.Name, pr.Target, pr.Source)
		}
		pairs[pr.Target] = attrblend.WeightedPoint{Point: pr.Source, Weight: weightOr(pr.Weight, 1)}
	}
	pair := func(i int) (int, float64, bool) {
		if len(pairs) == 0 {
			return i, 1, i < source.Len()
		}
		wp, ok := pairs[i]
		return wp.Point, wp.Weight, ok
	}

	opts, err := spec.options(source)
	if err != nil {
		return nil, err
	}
	m := attrblend.NewMetadataBlender(spec.Details.details(), opts...)

	return &job{
		init: func() (JobReport, error) {
			if err := m.Init(source, secondary, target); err != nil {
				return JobReport{}, err
			}
			return JobReport{Name: spec.Name, Type: JobMetadata, Entries: m.Len()}, nil
		},
		schedule: func(b *attrblend.Batch) { b.Metadata(m, pair) },
	}, nil
}

func (p *Plan) pipelineJob(spec JobSpec) (*job, error) {
	target := p.datasets[spec.Target]
	a, b := target, target
	if spec.Source != "" {
		a, b = p.datasets[spec.Source], p.datasets[spec.Source]
	}
	if spec.Secondary != "" {
		b = p.datasets[spec.Secondary]
	}
	if a.Len() < target.Len() || b.Len() < target.Len() {
		return nil, invalid("job %q: pipeline sources are shorter than the target", spec.Name)
	}

	configs := make([]attrblend.BlendOpConfig, len(spec.Operations))
	for i, op := range spec.Operations {
		cfg, err := op.config(spec.Weight)
		if err != nil {
			return nil, fmt.Errorf("config: job %q: operation %d: %w", spec.Name, i, err)
		}
		configs[i] = cfg
	}

	var opts []attrblend.Option
	if spec.Options.Direct {
		opts = append(opts, attrblend.WithDirectAccess(true))
	}
	m := attrblend.NewBlendOpsManager(target, opts...)
	m.SetSources(a, attrblend.SideIn, b, attrblend.SideIn)

	return &job{
		init: func() (JobReport, error) {
			if err := m.Init(configs); err != nil {
				return JobReport{}, err
			}
			return JobReport{Name: spec.Name, Type: JobPipeline, Entries: m.Len()}, nil
		},
		schedule: func(batch *attrblend.Batch) { batch.Pipeline(m) },
	}, nil
}

func weightOr(w *float64, def float64) float64 {
	if w == nil {
		return def
	}
	return *w
}

// details converts the YAML details, defaulting to Average over everything.
func (d *DetailsSpec) details() *attrblend.BlendingDetails {
	if d == nil {
		return attrblend.NewBlendingDetails(attrblend.ModeAverage)
	}
	mode := attrblend.ModeAverage
	if d.DefaultMode != nil {
		mode = *d.DefaultMode
	}
	out := &attrblend.BlendingDetails{
		DefaultMode:        mode,
		Filter:             d.Filter,
		FilteredAttributes: d.Attributes,
		AttributeModes:     d.Modes,
		SkipProperties:     d.SkipProperties,
	}
	if len(d.PropertyModes) > 0 {
		out.PropertyModes = make(map[attrblend.PointProperty]attrblend.BlendMode, len(d.PropertyModes))
		for name, m := range d.PropertyModes {
			if prop, err := attrblend.ParsePointProperty(name); err == nil {
				out.PropertyModes[prop] = m
			}
		}
	}
	return out
}

// config converts the YAML weight. A nil weight is a constant 1.
func (w *WeightSpec) config() attrblend.WeightConfig {
	if w == nil {
		return attrblend.ConstantWeightConfig(1)
	}
	return attrblend.WeightConfig{
		Input:     w.Input,
		Constant:  weightOr(w.Constant, 1),
		Attribute: w.Attribute,
		Curve:     w.Curve,
	}
}

// options converts the job options. The weight source is bound to ds.
func (j *JobSpec) options(ds *attrblend.Dataset) ([]attrblend.Option, error) {
	opts := []attrblend.Option{attrblend.WithDirectAccess(j.Options.Direct)}
	if j.Options.Reset != nil {
		opts = append(opts, attrblend.WithResetBeforeMultiBlend(*j.Options.Reset))
	}
	if len(j.Options.Ignored) > 0 {
		opts = append(opts, attrblend.WithIgnoredAttributes(j.Options.Ignored...))
	}
	if j.Weight != nil {
		ws, err := j.Weight.config().Build(ds)
		if err != nil {
			return nil, fmt.Errorf("config: job %q: weight: %w", j.Name, err)
		}
		opts = append(opts, attrblend.WithWeightSource(ws))
	}
	return opts, nil
}

// config converts one pipeline operation. fallback is the job weight.
func (o *OperationSpec) config(fallback *WeightSpec) (attrblend.BlendOpConfig, error) {
	cfg := attrblend.BlendOpConfig{
		Mode:                   o.Mode,
		OutputMode:             o.Output,
		OutputType:             o.Type,
		CustomType:             o.CustomType,
		KeepOutputOnMultiBlend: o.KeepOutput,
	}
	if o.A != nil {
		cfg.OperandA = *o.A
	}
	if o.B != nil {
		cfg.UseOperandB, cfg.OperandB = true, *o.B
	}
	if o.To != nil {
		cfg.OutputTo = *o.To
	} else if o.Output == attrblend.OutputNew || o.Output == attrblend.OutputTransient {
		return cfg, invalid("output %s needs a destination", o.Output)
	}

	var err error
	if cfg.ConstantA, err = o.ConstantA.value(); err != nil {
		return cfg, err
	}
	if o.ConstantB != nil {
		cfg.UseOperandB = true
		if cfg.ConstantB, err = o.ConstantB.value(); err != nil {
			return cfg, err
		}
	}

	w := o.Weight
	if w == nil {
		w = fallback
	}
	cfg.Weight = w.config()
	return cfg, nil
}

func (c *ConstantSpec) value() (*attrblend.Value, error) {
	if c == nil {
		return nil, nil
	}
	kind := c.Kind
	if !kind.Valid() {
		kind = attrblend.KindDouble
	}
	v, err := DecodeValue(kind, c.Value)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
