package decoder

import (
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/sumpdec/errs"
	"github.com/arloliu/sumpdec/format"
)

// Constructor builds a decoder from its options.
//
// unmarshal decodes the protocol's options into the value it is given, the
// same contract yaml.Unmarshaler uses. A constructor starts from its defaults
// and lets unmarshal override them.
type Constructor func(unmarshal func(any) error) (Decoder, error)

// Registry maps protocol identifiers to decoder constructors.
type Registry struct {
	mu    sync.RWMutex
	ctors map[format.Protocol]Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[format.Protocol]Constructor)}
}

// Register adds a constructor. Registering a protocol twice fails with
// errs.ErrDuplicateProtocol.
func (r *Registry) Register(protocol format.Protocol, ctor Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ctors[protocol]; ok {
		return fmt.Errorf("%w: %s", errs.ErrDuplicateProtocol, protocol)
	}
	r.ctors[protocol] = ctor

	return nil
}

// MustRegister is like Register but panics on error. It is meant for
// package initialization.
func (r *Registry) MustRegister(protocol format.Protocol, ctor Constructor) {
	if err := r.Register(protocol, ctor); err != nil {
		panic(err)
	}
}

// Has reports whether protocol is registered.
func (r *Registry) Has(protocol format.Protocol) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.ctors[protocol]

	return ok
}

// New builds a decoder for protocol. A nil unmarshal keeps every default.
//
// Unknown protocols fail with errs.ErrUnknownProtocol.
func (r *Registry) New(protocol format.Protocol, unmarshal func(any) error) (Decoder, error) {
	r.mu.RLock()
	ctor, ok := r.ctors[protocol]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrUnknownProtocol, protocol)
	}

	if unmarshal == nil {
		unmarshal = func(any) error { return nil }
	}

	return ctor(unmarshal)
}

// Protocols returns the registered protocols in ascending order.
func (r *Registry) Protocols() []format.Protocol {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]format.Protocol, 0, len(r.ctors))
	for p := range r.ctors {
		out = append(out, p)
	}
	slices.Sort(out)

	return out
}

// FromMap returns an unmarshal function that decodes a generic option map,
// keyed like the YAML form, into the constructor's option value.
func FromMap(m map[string]any) func(any) error {
	return func(out any) error {
		if len(m) == 0 {
			return nil
		}

		data, err := yaml.Marshal(m)
		if err != nil {
			return err
		}

		return yaml.Unmarshal(data, out)
	}
}

// FromNode returns an unmarshal function backed by a YAML node. A nil or
// empty node keeps every default.
func FromNode(node *yaml.Node) func(any) error {
	return func(out any) error {
		if node == nil || node.Kind == 0 {
			return nil
		}

		return node.Decode(out)
	}
}
