// Package cli builds the proxygraph command tree, validates user input and
// maps failures to process exit codes. It translates flags into app.Options
// and leaves the work to the app package.
package cli
