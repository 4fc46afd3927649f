package rop

// Keyed is implemented by batch descriptors that carry their own identity.
// The key ends up in ItemError so a failure can be traced back to the record
// even after the caller has reshuffled its slices.
type Keyed interface {
	BatchKey() string
}
