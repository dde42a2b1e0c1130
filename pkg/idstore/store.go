// Package idstore loads the set of known-paid transaction identifiers that log
// traffic is cross-referenced against.
package idstore

// PaymentMethod is the payment-method label attached to a paid identifier.
// The zero value means the method is unknown or was not provided.
type PaymentMethod string

const (
	MethodUnknown     PaymentMethod = ""
	MethodPayPal      PaymentMethod = "paypal"
	MethodPayPalVault PaymentMethod = "paypal_vault"
	MethodCreditCard  PaymentMethod = "credit_card"
	MethodSofort      PaymentMethod = "sofort"
)

// Kind tells whether a store carries payment-method data.
type Kind string

const (
	// KindIdentifiersOnly stores bare identifiers; every method is MethodUnknown.
	KindIdentifiersOnly Kind = "identifiers_only"

	// KindWithMethods stores identifiers annotated with a payment method.
	KindWithMethods Kind = "with_methods"
)

// Store is a consume-once set of paid identifiers.
// It is not safe for concurrent use.
type Store struct {
	kind   Kind
	ids    map[string]PaymentMethod
	loaded int
}

// New creates an empty store of the given kind.
func New(kind Kind) *Store {
	return &Store{
		kind: kind,
		ids:  make(map[string]PaymentMethod),
	}
}

// Add inserts an identifier. For identifier-only stores the method is dropped.
// Adding an identifier twice keeps the last method and counts it once.
func (s *Store) Add(id string, method PaymentMethod) {
	if s.kind == KindIdentifiersOnly {
		method = MethodUnknown
	}
	if _, exists := s.ids[id]; !exists {
		s.loaded++
	}
	s.ids[id] = method
}

// Consume removes id from the store and returns its payment method.
// The second return value is false if id is not (or no longer) present.
func (s *Store) Consume(id string) (PaymentMethod, bool) {
	method, ok := s.ids[id]
	if !ok {
		return MethodUnknown, false
	}
	delete(s.ids, id)
	return method, true
}

// Size returns the number of distinct identifiers loaded.
// It does not change when identifiers are consumed.
func (s *Store) Size() int {
	return s.loaded
}

// Remaining returns the number of identifiers not yet consumed.
func (s *Store) Remaining() int {
	return len(s.ids)
}

// Kind returns whether the store carries payment-method data.
func (s *Store) Kind() Kind {
	return s.kind
}

// HasMethods reports whether payment methods were loaded.
func (s *Store) HasMethods() bool {
	return s.kind == KindWithMethods
}
