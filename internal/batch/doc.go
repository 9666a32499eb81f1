// Package batch fans one version-control operation out across many components.
//
// Tasks run on a bounded errgroup pool. A failing or panicking task settles as a failure
// result and never cancels its siblings; callers always receive one result per target in
// the order the targets were given.
package batch
