package lively

// Owner is an entity with a lifecycle. The Registry it exposes drives the
// activation of every observer bound to it.
//
// Implementations are host bindings: a window, a screen, a request scope,
// a service. The registry holds its owner as a plain non-owning reference;
// the owner's teardown path is responsible for driving the lifecycle to
// StateDestroyed, not for detaching the registry.
type Owner interface {
	// Lifecycle returns the registry tracking this owner's state.
	Lifecycle() *Registry
}

// SimpleOwner is a minimal Owner for hosts without a natural lifecycle
// object of their own. The host forwards its platform callbacks to the
// registry:
//
//	owner := lively.NewSimpleOwner()
//	owner.Lifecycle().HandleEvent(lively.EventCreate)
//	owner.Lifecycle().HandleEvent(lively.EventStart)
type SimpleOwner struct {
	registry *Registry
}

// NewSimpleOwner returns an owner whose registry starts at StateInitialized.
func NewSimpleOwner() *SimpleOwner {
	o := &SimpleOwner{}
	o.registry = NewRegistry(o)
	return o
}

// Lifecycle returns the owner's registry.
func (o *SimpleOwner) Lifecycle() *Registry {
	return o.registry
}
