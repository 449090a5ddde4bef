// Package linkage models the link-time side of the inheritance strategy.
//
// Methods rewritten with the inheritance strategy start with an invokedynamic call site
// whose bootstrap arguments carry the checked method name, the real check handle and
// the capability supertypes. Whether a class must be checked is decided once per call
// site, when it first runs:
//
//	Unresolved --Link--> Resolved(real check)   owner assignable to a capability
//	Unresolved --Link--> Resolved(no-op)        otherwise
//
// Later calls return the cached target without consulting the hierarchy again.
//
// # Usage
//
//	h := linkage.NewStaticHierarchy()
//	h.Add("com/example/LocalFS", "java/nio/file/spi/FileSystemProvider")
//
//	sites, err := linkage.Discover(classBytes, rewrite.DefaultRuntime().Bootstrap())
//	l := linkage.NewLinker(linkage.Options{
//	    Hierarchy: h,
//	    Checker:   &linkage.PolicyChecker{Allowed: allowed},
//	})
//	err = l.Invoke(sites[0], "com/example/Caller")
package linkage
