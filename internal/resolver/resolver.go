package resolver

// Resolver decides which node.js runtime a deployment runs under.
//
// Implementations must be total and side-effect free: every Input yields a
// Resolution, and identical inputs yield identical results.
type Resolver interface {
	Resolve(in Input) (Resolution, Trace)
}
