// Package extract orchestrates a full standalone-project extraction run:
// resolve and classify every path reference in the project descriptor,
// copy SDK content under the relocation subdirectory, copy local files and
// the config directory, rewrite the descriptor and build Makefile, and fix
// up the relocated toolchain sub-makefile. Per-item failures are logged
// and the run continues; only an unreadable input descriptor or a failed
// final descriptor write aborts the run.
package extract
