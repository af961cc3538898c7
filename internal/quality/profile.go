// Package quality extracts format hints from peer filenames and scores
// candidates against a quality profile.
package quality

import (
	"slices"
	"strings"
)

// Profile names one of the fixed quality policies.
type Profile int

const (
	Lossless Profile = iota
	High
	Standard
	Any
)

// Policy is the immutable scoring policy attached to a Profile.
type Policy struct {
	Name             string
	Formats          []string
	MinBitrate       int
	PreferredBitrate int
	Weight           float64
}

var policies = map[Profile]Policy{
	Lossless: {
		Name:             "LOSSLESS",
		Formats:          []string{"flac", "ape", "alac", "wav"},
		MinBitrate:       900,
		PreferredBitrate: 1411,
		Weight:           1.0,
	},
	High: {
		Name:             "HIGH",
		Formats:          []string{"mp3", "flac", "ogg", "m4a"},
		MinBitrate:       256,
		PreferredBitrate: 320,
		Weight:           0.8,
	},
	Standard: {
		Name:             "STANDARD",
		Formats:          []string{"mp3", "ogg", "m4a", "wma"},
		MinBitrate:       192,
		PreferredBitrate: 256,
		Weight:           0.6,
	},
	Any: {
		Name:             "ANY",
		Formats:          []string{"mp3", "flac", "ogg", "m4a", "ape", "alac", "wav", "wma"},
		MinBitrate:       128,
		PreferredBitrate: 320,
		Weight:           0.4,
	},
}

// Profiles lists every profile in declaration order.
func Profiles() []Profile {
	return []Profile{Lossless, High, Standard, Any}
}

// Policy returns the policy for p. Unknown values resolve to Lossless.
func (p Profile) Policy() Policy {
	if pol, ok := policies[p]; ok {
		return pol
	}
	return policies[Lossless]
}

func (p Profile) String() string {
	return p.Policy().Name
}

// ParseProfile resolves a profile name case-insensitively. It returns
// Lossless and false when the name is not recognised.
func ParseProfile(name string) (Profile, bool) {
	want := strings.ToUpper(strings.TrimSpace(name))
	for _, p := range Profiles() {
		if policies[p].Name == want {
			return p, true
		}
	}
	return Lossless, false
}

// Allows reports whether format is acceptable under the policy.
func (pol Policy) Allows(format string) bool {
	return slices.Contains(pol.Formats, format)
}

// Preferred reports whether format is one of the two leading formats.
func (pol Policy) Preferred(format string) bool {
	n := min(2, len(pol.Formats))
	return slices.Contains(pol.Formats[:n], format)
}
