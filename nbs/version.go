package nbs

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a revision of the Note Block Song file format. Versions are
// totally ordered by their integer value, and that order decides which fields
// are present in a file.
type Version int

const (
	Classic Version = 0 // Headerless layout, where the first two bytes are the song length.
	V1      Version = 1
	V2      Version = 2
	V3      Version = 3
	V4      Version = 4
	V5      Version = 5
)

// Latest is the newest format revision this package knows about.
const Latest = V5

// Versions lists every supported revision in ascending order.
var Versions = []Version{Classic, V1, V2, V3, V4, V5}

// Int returns the integer written to the file header for this version.
func (v Version) Int() int {
	return int(v)
}

// VersionFromInt returns the version matching n, or false if n does not name
// a supported revision.
func VersionFromInt(n int) (Version, bool) {
	switch n {
	case 0:
		return Classic, true
	case 1:
		return V1, true
	case 2:
		return V2, true
	case 3:
		return V3, true
	case 4:
		return V4, true
	case 5:
		return V5, true
	default:
		return 0, false
	}
}

// ParseVersion parses names like "classic", "v3" or "3".
func ParseVersion(s string) (Version, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	if t == "classic" {
		return Classic, nil
	}
	if n, err := strconv.Atoi(strings.TrimPrefix(t, "v")); err == nil {
		if v, ok := VersionFromInt(n); ok {
			return v, nil
		}
	}
	return 0, fmt.Errorf("unknown NBS version %q", s)
}

func (v Version) String() string {
	if v == Classic {
		return "classic"
	}
	if _, ok := VersionFromInt(int(v)); !ok {
		return fmt.Sprintf("Version(%d)", int(v))
	}
	return fmt.Sprintf("V%d", int(v))
}

// The first revision carrying each version-gated field.
const (
	VersionVanillaInstrumentCount = V1
	VersionLayerPanning           = V2
	VersionExplicitLength         = V3
	VersionLooping                = V4
	VersionLayerLock              = V4
	VersionNoteDetails            = V4
)
