// Package formats provides parsers for the game's asset file formats:
// track geometry (FRD), texture atlases (FSH/QFS), vehicle models (FCE),
// audio banks (BNK) and sound tables (CTB), camera paths (CAM), keyframe
// animations (CAN), performance tables (carp.txt), archives (VIV),
// terrain heightmaps (SIM) and the track INI.
package formats

import "bytes"

// fixedToFloat converts a 16.16 fixed-point value to float64.
func fixedToFloat(v int32) float64 {
	return float64(v) / 65536.0
}

// readString extracts a null-terminated string from a fixed-length field.
func readString(buf []byte) string {
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		return string(buf[:i])
	}
	return string(buf)
}
