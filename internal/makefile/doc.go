// Package makefile rewrites the copied build Makefile so it resolves every
// path inside the standalone output tree. The rewrite is a fixed, ordered
// pipeline of pure text transforms: redefine the SDK root in terms of a
// project-root variable, retarget config include paths, and clean up
// leftover legacy definitions. A transform whose pattern never matches is
// a warning, never a failure; the file is written with whatever subset of
// transforms succeeded.
package makefile
