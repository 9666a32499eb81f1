// Package fleet runs repository operations across every registered component and renders
// their progress. Input is validated before any component is touched.
package fleet
