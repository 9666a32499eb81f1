// Package catalog loads the static declaration of components grouped by type.
//
// A catalog document maps each component type to the components of that type,
// keyed by a code that is unique across the whole catalog:
//
//	api:
//	  svc1:
//	    name: service-one
//	    repo: git@example.com:org/service-one.git
package catalog
