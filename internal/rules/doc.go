// Package rules defines the tunable constants of an extraction run: the
// relocation subdirectory name, the shared toolchain makefile location,
// include entries scheduled for removal, the compiler-flag insertion, and
// the toolchain path fixup. The compiled defaults reproduce the stock
// behavior; a YAML rules file validated against an embedded JSON schema
// can override any of them.
package rules
