// Package state records the outcome of the last mount run.
//
// The runtime state is a single JSON file written after every mount run and
// read back by status reporting. It is informational: nothing in the mount
// pipeline consults it.
package state
