package locator

// DefaultRegistry is the registry used by the package-level functions.
var DefaultRegistry = NewRegistry()

// Register adds a factory to DefaultRegistry. It panics on invalid or
// duplicate names, matching registration from init functions.
func Register(name string, factory Factory) {
	if err := DefaultRegistry.Register(name, factory); err != nil {
		panic(err)
	}
}

// RegisterFunc adds a function unit to DefaultRegistry, panicking on error.
func RegisterFunc(name string, fn any) {
	if err := DefaultRegistry.RegisterFunc(name, fn); err != nil {
		panic(err)
	}
}

// MustRegisterType adds T to DefaultRegistry, panicking on error.
func MustRegisterType[T any](name string) {
	if err := RegisterType[T](DefaultRegistry, name); err != nil {
		panic(err)
	}
}

// Locate finds name in DefaultRegistry.
func Locate(name string) (*Unit, error) {
	return DefaultRegistry.Locate(name)
}

// Names lists the units in DefaultRegistry.
func Names() []string {
	return DefaultRegistry.Names()
}
