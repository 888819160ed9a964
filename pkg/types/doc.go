// Package types defines the entity kinds, slot states, configuration, and
// standard errors shared by the brep topology store, navigator, and checker.
package types
