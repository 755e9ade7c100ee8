package reporters

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/samvad-hq/samvad-api-client/pkg/apiclient"
)

// Builder creates a Reporter from a config entry.
type Builder func(ctx context.Context, cfg ReporterConfig, log Logger) (Reporter, error)

// Registry maps reporter types to builders.
type Registry interface {
	Register(typ string, builder Builder)
	ReporterFor(ctx context.Context, cfg ReporterConfig, log Logger) (Reporter, error)
}

type registry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns a registry with optional pre-registered builders.
func NewRegistry(builders map[string]Builder) Registry {
	r := &registry{
		builders: make(map[string]Builder),
	}
	for typ, b := range builders {
		r.Register(typ, b)
	}
	return r
}

// Register associates a builder with a reporter type.
func (r *registry) Register(typ string, builder Builder) {
	if typ = strings.TrimSpace(strings.ToLower(typ)); typ == "" || builder == nil {
		return
	}

	r.mu.Lock()
	r.builders[typ] = builder
	r.mu.Unlock()
}

// ReporterFor returns the reporter built for the provided config, restricted
// to the config's kinds when any are listed.
func (r *registry) ReporterFor(ctx context.Context, cfg ReporterConfig, log Logger) (Reporter, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("reporter %q has no type configured", cfg.ID)
	}

	r.mu.RLock()
	builder := r.builders[strings.ToLower(cfg.Type)]
	r.mu.RUnlock()

	if builder == nil {
		return nil, fmt.Errorf("no reporter registered for type %q", cfg.Type)
	}
	rep, err := builder(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return withKindFilter(rep, cfg.Kinds)
}

// DefaultRegistry wires up known reporters.
func DefaultRegistry() Registry {
	builders := map[string]Builder{
		TypeHTTP:   newHTTPReporter,
		TypeSQS:    newSQSReporter,
		TypeSNS:    newSNSReporter,
		TypePubSub: newPubSubReporter,
	}
	return NewRegistry(builders)
}

// BuildAll instantiates reporters for configs using the registry.
func BuildAll(ctx context.Context, reg Registry, cfgs []ReporterConfig, log Logger) ([]Reporter, error) {
	if reg == nil || len(cfgs) == 0 {
		return nil, nil
	}

	var reps []Reporter
	for _, cfg := range cfgs {
		rep, err := reg.ReporterFor(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		reps = append(reps, rep)
	}
	return reps, nil
}

// kindFilter forwards only reports whose kind is in kinds.
type kindFilter struct {
	Reporter
	kinds map[apiclient.ErrorKind]struct{}
}

func withKindFilter(rep Reporter, kinds []string) (Reporter, error) {
	if len(kinds) == 0 {
		return rep, nil
	}
	set := make(map[apiclient.ErrorKind]struct{}, len(kinds))
	for _, k := range kinds {
		kind, err := apiclient.ParseErrorKind(k)
		if err != nil {
			return nil, fmt.Errorf("reporter %q: %w", rep.ID(), err)
		}
		set[kind] = struct{}{}
	}
	return &kindFilter{Reporter: rep, kinds: set}, nil
}

func (f *kindFilter) Report(ctx context.Context, rep Report) error {
	if _, ok := f.kinds[rep.Kind]; !ok {
		return nil
	}
	return f.Reporter.Report(ctx, rep)
}

func (f *kindFilter) Close() error {
	if c, ok := f.Reporter.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
