// Package app wires the configuration, the logger, the graph runtime and its
// collaborators together and implements the use-cases of the command line,
// decoupled from flag parsing and exit codes.
package app
