// Package ui turns command lifecycle events into human-readable console log lines.
package ui
