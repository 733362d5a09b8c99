// Package preflight provides readiness checks for the external binaries and
// filesystem paths glitchreel depends on.
//
// The CLI "glitchreel status" command prints every check. "glitchreel run"
// calls RunAll before generating and refuses to start when a required check
// fails; optional tools such as ImageMagick only produce warnings.
package preflight
