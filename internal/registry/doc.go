// Package registry persists which components have been cloned and where they live.
//
// Each namespace is a bbolt database under the metadata root. Keys are component
// codes and values are JSON objects of the form {"name": ..., "path": ...}.
package registry
