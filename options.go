package attrblend

// Option configures blenders and collection facades during creation.
//
// Example:
//
//	// Seed accumulation with the existing output value
//	b, err := attrblend.CreateProxyBlender(attrblend.ModeSum, a, nil, c,
//	    attrblend.WithResetBeforeMultiBlend(false))
type Option func(*options)

type options struct {
	reset   bool
	direct  bool
	ignored map[string]struct{}
	weight  *WeightSource
}

func defaultOptions() options {
	return options{reset: true}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithResetBeforeMultiBlend controls whether BeginMultiBlend writes the
// mode's neutral element into the output. When disabled, the existing output
// value seeds the accumulation and counts as one contribution of weight 1.
// Enabled by default.
func WithResetBeforeMultiBlend(reset bool) Option {
	return func(o *options) {
		o.reset = reset
	}
}

// WithDirectAccess lets resolved attribute proxies skip kind conversion when
// the storage kind already matches the working kind.
func WithDirectAccess(direct bool) Option {
	return func(o *options) {
		o.direct = direct
	}
}

// WithIgnoredAttributes excludes attributes by name from collection blending.
func WithIgnoredAttributes(names ...string) Option {
	return func(o *options) {
		if o.ignored == nil {
			o.ignored = make(map[string]struct{}, len(names))
		}
		for _, n := range names {
			o.ignored[n] = struct{}{}
		}
	}
}

// WithWeightSource binds the weight source used by BlendAutoWeight.
func WithWeightSource(w *WeightSource) Option {
	return func(o *options) {
		o.weight = w
	}
}

func (o *options) isIgnored(name string) bool {
	_, ok := o.ignored[name]
	return ok
}
