// Package driving provides interfaces for caller-facing entry points (primary/inbound ports).
package driving
