package metrisca

import "fmt"

// PluginType partitions the plugin registry the way Plugin::GetType does in
// the original: a plugin is constructed by (kind, name) pair.
type PluginType int

const (
	PluginLoader PluginType = iota
	PluginPowerModel
	PluginProfiler
	PluginDistinguisher
	PluginMetric
	PluginScore
)

func (t PluginType) String() string {
	switch t {
	case PluginLoader:
		return "loader"
	case PluginPowerModel:
		return "model"
	case PluginProfiler:
		return "profiler"
	case PluginDistinguisher:
		return "distinguisher"
	case PluginMetric:
		return "metric"
	case PluginScore:
		return "score"
	default:
		return "unknown"
	}
}

// Plugin is the minimal contract every plugin kind satisfies: construct,
// then Init with an argument bag. The kind's single operation (Model,
// Compute, ...) lives on the concrete type, not here — Go interfaces are
// structural, so callers type-assert to the kind-specific interface they
// need after construction.
type Plugin interface {
	Init(args *ArgumentList) error
	Type() PluginType
}

// Constructor builds a fresh, uninitialized plugin instance.
type Constructor func() Plugin

// registry is the process-wide plugin factory. It is mutated only at
// startup (register-all then read-only), matching the concurrency model in
// spec.md §5.
type registry struct {
	byType map[PluginType]map[string]Constructor
}

var globalRegistry = &registry{byType: make(map[PluginType]map[string]Constructor)}

// Register adds a named constructor for a plugin kind. Call during package
// init(), never after plugins start being constructed concurrently.
func Register(kind PluginType, name string, ctor Constructor) {
	m, ok := globalRegistry.byType[kind]
	if !ok {
		m = make(map[string]Constructor)
		globalRegistry.byType[kind] = m
	}
	m[name] = ctor
}

// Construct builds a plugin of the given kind and name and calls its Init.
func Construct(kind PluginType, name string, args *ArgumentList) (Plugin, error) {
	m, ok := globalRegistry.byType[kind]
	if !ok {
		return nil, Errorf(UnknownPlugin, "no %s plugins registered", kind)
	}
	ctor, ok := m[name]
	if !ok {
		return nil, Errorf(UnknownPlugin, "%s plugin %q not registered", kind, name)
	}
	p := ctor()
	if err := p.Init(args); err != nil {
		return nil, fmt.Errorf("initializing %s plugin %q: %w", kind, name, err)
	}
	return p, nil
}

// Names lists every plugin name registered under a kind, for CLI help text.
func Names(kind PluginType) []string {
	m, ok := globalRegistry.byType[kind]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	return names
}
