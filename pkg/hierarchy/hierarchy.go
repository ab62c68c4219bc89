// Package hierarchy declares the shallow class-hierarchy contract the core
// consumes but never implements (spec.md §1: "a shallow class hierarchy"
// is supplied externally). It exists as its own package, rather than
// living inside pkg/cfg or pkg/interp, because both need it: each matches
// a thrown exception's type against a handler's catch type with
// IsSubtype. Resolve is part of the contract, but no package in this
// module calls it.
package hierarchy

// ResolvedMethod is the shallow summary method resolution yields — just
// enough for the interpreter to decide how to model a call without this
// core ever loading the callee's body (spec.md §1: "Non-goals: whole
// program call-graph construction; the core operates method-at-a-time").
type ResolvedMethod struct {
	DeclaringClass string
	IsAbstract     bool
	IsNative       bool
	IsStatic       bool
	Descriptor     string
}

// Hierarchy is the external collaborator contract for class-hierarchy
// queries: subtype testing (used to match a thrown exception's runtime
// type against a handler's declared catch type) and method resolution by
// (declaringType, isInterface, name, descriptor).
type Hierarchy interface {
	// IsSubtype reports whether sub is super or a (possibly indirect)
	// subtype of super. Both names are internal class names
	// ("java/lang/NullPointerException").
	IsSubtype(sub, super string) bool

	// Resolve looks up the method virtual dispatch (or a direct
	// invokestatic/invokespecial reference) would invoke, starting the
	// search at declaringType.
	Resolve(declaringType string, isInterface bool, name, descriptor string) (ResolvedMethod, bool)
}
