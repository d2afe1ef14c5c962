// Package asset rewrites the ASSET: path specifiers mod authors write in
// JSON text fields into paths relative to the running server, matching
// original_source/src/lu_mod.rs's convert_path_specifier exactly, oddities
// included.
package asset

import "strings"

// Rewrite rewrites contents if it is an ASSET: specifier, relative to the
// given mod directory (modDir is the mod package's directory, relative to
// the resource folder). Text that does not start with "ASSET:" passes
// through unchanged.
func Rewrite(modDir, contents string) string {
	assetPath, ok := strings.CutPrefix(contents, "ASSET:")
	if !ok {
		return contents
	}

	relativeToMods := "../mods"
	relativeFromMods := assetPath

	switch {
	case strings.HasPrefix(assetPath, "PHYSICS:"):
		relativeToMods = "../../mods"
		relativeFromMods = strings.TrimPrefix(assetPath, "PHYSICS:")
	case strings.HasPrefix(assetPath, "ICON:"):
		// Required for mission icons in the passport UI to resolve; plain
		// ../../../mods does not work. Left exactly as the client expects it.
		relativeToMods = "../../textures/../../mods"
		relativeFromMods = strings.TrimPrefix(assetPath, "ICON:")
	}

	// Joined by plain segment concatenation, not path.Join: path.Join calls
	// Clean, which would collapse the ICON base path's deliberately
	// unsimplified "../../textures/../../mods" segment. PathBuf::join on the
	// Rust side never normalizes ".." either, so segments are just glued
	// together with "/" and left as-is.
	segments := make([]string, 0, 3)
	for _, s := range []string{relativeToMods, modDir, relativeFromMods} {
		s = strings.Trim(s, "/")
		if s != "" {
			segments = append(segments, s)
		}
	}
	joined := strings.Join(segments, "/")
	return strings.ReplaceAll(joined, "/", "\\")
}

// AsIconPath converts an ASSET: path into its ASSET:ICON: form, used when a
// mod's icon field needs to be split out into its own Icons-table entry.
func AsIconPath(p string) string {
	if strings.HasPrefix(p, "ASSET:ICON") {
		return p
	}
	if assetPath, ok := strings.CutPrefix(p, "ASSET:"); ok {
		return "ASSET:ICON:" + assetPath
	}
	return p
}
