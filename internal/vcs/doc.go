// Package vcs drives git against one component working copy.
//
// Adapter wraps the primitive operations a batch needs. Failures carry the
// execshell error of the git invocation that failed, including its standard error.
package vcs
