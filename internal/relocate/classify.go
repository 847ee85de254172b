package relocate

import (
	"path/filepath"
	"strings"
)

// Class describes how a path reference found in a descriptor or Makefile
// is handled during extraction.
type Class int

const (
	// ClassLocal is a path that stays relative to the project file and is
	// copied without any reference rewrite.
	ClassLocal Class = iota
	// ClassSDK is a path reaching into the external SDK tree, identified
	// by a multi-level upward-traversal prefix. It is copied under the
	// relocation subdirectory and its reference rewritten.
	ClassSDK
	// ClassConfig is the single-level-up local configuration directory
	// reference. The directory is copied to the output root and the
	// reference loses its leading upward segment.
	ClassConfig
)

// ConfigRef is the known local configuration directory reference.
const ConfigRef = "../config"

// sdkPrefix marks a reference that climbs more than one level above its
// anchor directory.
const sdkPrefix = "../../"

func (c Class) String() string {
	switch c {
	case ClassSDK:
		return "sdk"
	case ClassConfig:
		return "config"
	default:
		return "local"
	}
}

// Classify determines how a reference is handled. Rules are applied in
// precedence order: a multi-level upward-traversal prefix wins, then the
// exact config directory reference, then local. The decision depends only
// on the reference text, never on filesystem contents.
func Classify(ref string) Class {
	if strings.HasPrefix(ref, sdkPrefix) {
		return ClassSDK
	}
	if ref == ConfigRef {
		return ClassConfig
	}
	return ClassLocal
}

// Resolve turns a reference relative to anchor into an absolute,
// traversal-normalized filesystem path.
func Resolve(anchor, ref string) string {
	joined := filepath.Join(anchor, filepath.FromSlash(ref))
	abs, err := filepath.Abs(joined)
	if err != nil {
		return joined
	}
	return abs
}

// StripConfigPrefix rewrites a reference to a file inside the copied config
// directory by removing its single leading upward segment, e.g.
// "../config/sdk_config.h" -> "config/sdk_config.h". The second return is
// false when the reference has no leading "../" to strip.
func StripConfigPrefix(ref string) (string, bool) {
	if !strings.HasPrefix(ref, "../") {
		return ref, false
	}
	return ref[len("../"):], true
}
