// Package config defines the configuration model of the proxygraph command
// and loads it from an optional HCL file. Every block of the file is
// optional; Default supplies the values a missing block or attribute leaves
// unset.
package config
