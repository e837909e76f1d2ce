package core

// Initializer is the per-type hook invoked by New after allocation.
// It reads its keys from cfg and returns a failure for any required key
// that is missing instead of assigning it.
type Initializer interface {
	Init(cfg Config) error
}

// InitializerPtr constrains PT to be a pointer to T that implements Initializer.
type InitializerPtr[T any] interface {
	*T
	Initializer
}

type componentBinder interface {
	bindComponent(name string)
}

// New allocates a T, folds args into a Config (see Args) and calls the
// instance's Init. Failures from Init are returned unchanged and no instance
// is returned with them.
func New[T any, PT InitializerPtr[T]](args ...interface{}) (*T, error) {
	obj := PT(new(T))
	component := ComponentName(obj)
	cfg, err := Args(args...)
	if err != nil {
		if fl, ok := AsFailure(err); ok {
			tagged := *fl
			tagged.Component = component
			return nil, &tagged
		}
		return nil, err
	}
	if b, ok := any(obj).(componentBinder); ok {
		b.bindComponent(component)
	}
	if err := obj.Init(cfg); err != nil {
		return nil, err
	}
	return (*T)(obj), nil
}

// Base can be embedded to give a type the error-reporting facility.
// New binds the component name before calling Init.
type Base struct {
	component string
}

func (b *Base) bindComponent(name string) {
	b.component = name
}

// ComponentName returns the bound component tag, or "" before binding.
func (b *Base) ComponentName() string {
	return b.component
}

// Fail returns a failure tagged with the instance's component name, with the
// fragments concatenated into its message.
func (b *Base) Fail(fragments ...interface{}) error {
	return Fail(b.component, fragments...)
}

// FailField is like Fail but records the offending field and failure kind.
func (b *Base) FailField(field string, kind error, fragments ...interface{}) error {
	return FailField(b.component, field, nil, kind, fragments...)
}
