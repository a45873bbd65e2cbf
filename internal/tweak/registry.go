package tweak

// Constructor builds a fresh Tweak instance. Tweaks carry per-call
// state (extraOptions populated by Prepare), so the registry stores
// constructors, not shared instances.
type Constructor func() Tweak

// Option configures a Registry.
type Option func(*Registry)

// WithTweak registers a constructor. The defaults are installed only
// when no constructor has been registered, so passing any WithTweak
// option replaces the default set entirely — tests build a Registry
// scoped to exactly the tweaks under test via WithOnly.
func WithTweak(ctor Constructor) Option {
	return func(r *Registry) { r.ctors = append(r.ctors, ctor) }
}

// WithOnly replaces the registry's constructor list wholesale.
func WithOnly(ctors ...Constructor) Option {
	return func(r *Registry) { r.ctors = append([]Constructor(nil), ctors...) }
}

// Registry holds the set of refactorings a façade can offer, built via
// functional options the way internal/project.NewProject and
// internal/scheduler.New are — a list of constructors rather than a
// package-level init() map, so a test can scope a Registry to a single
// tweak.
type Registry struct {
	ctors []Constructor
}

// NewRegistry builds a Registry. With no options it registers the three
// built-in tweaks.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{}
	for _, o := range opts {
		o(r)
	}
	if len(r.ctors) == 0 {
		r.ctors = DefaultConstructors()
	}
	return r
}

// DefaultConstructors returns the constructors for the three built-in
// tweaks, in the order they were registered in the original: extract
// function, extract variable, introduce constant.
func DefaultConstructors() []Constructor {
	return []Constructor{
		func() Tweak { return NewExtractFunction() },
		func() Tweak { return NewExtractVariable() },
		func() Tweak { return NewIntroduceConstant() },
	}
}

// PrepareTweaks returns every registered tweak (subject to filter, if
// non-nil) whose Prepare succeeds against sel — the set a code-action
// request offers the client.
func (r *Registry) PrepareTweaks(sel *Selection, filter func(Tweak) bool) []Tweak {
	var available []Tweak
	for _, ctor := range r.ctors {
		t := ctor()
		if filter != nil && !filter(t) {
			continue
		}
		if t.Prepare(sel) {
			available = append(available, t)
		}
	}
	return available
}

// PrepareTweak prepares the single tweak registered under id. It
// reports ok=false if no tweak has that id or if Prepare rejects the
// selection.
func (r *Registry) PrepareTweak(id string, sel *Selection) (Tweak, bool) {
	for _, ctor := range r.ctors {
		t := ctor()
		if t.ID() != id {
			continue
		}
		if !t.Prepare(sel) {
			return nil, false
		}
		return t, true
	}
	return nil, false
}
