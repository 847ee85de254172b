// Package descriptor reads the path-bearing attributes out of an embedded
// IDE project descriptor and rewrites scheduled attribute values in the
// original document text. Analysis uses a read-only XML token scan; the
// rewrite is purely textual so formatting, comments, and the document type
// declaration survive byte-for-byte outside the rewritten spans.
package descriptor
