package quality

import (
	"regexp"
	"strconv"
	"strings"
)

// LosslessFallbackBitrate is assumed for lossless files that do not put a
// bitrate in their name.
const LosslessFallbackBitrate = 1411

var (
	formatPattern   = regexp.MustCompile(`\.(flac|mp3|ape|alac|wav|ogg|m4a|wma)$`)
	bitratePattern  = regexp.MustCompile(`(\d{3,4})\s*k?bps?`)
	bitrateFallback = regexp.MustCompile(`(\d{3,4})k`)
	losslessHints   = []string{"flac", "lossless", "ape", "alac", "wav"}
)

// Metadata is what a filename reveals about the audio it names.
// Zero values mean unknown.
type Metadata struct {
	Format   string
	Bitrate  int
	Lossless bool
}

// Extract reads format, bitrate and lossless hints out of a filename.
func Extract(filename string) Metadata {
	lower := strings.ToLower(filename)

	var md Metadata
	if m := formatPattern.FindStringSubmatch(lower); m != nil {
		md.Format = m[1]
	}

	m := bitratePattern.FindStringSubmatch(lower)
	if m == nil {
		m = bitrateFallback.FindStringSubmatch(lower)
	}
	if m != nil {
		md.Bitrate, _ = strconv.Atoi(m[1])
	}

	for _, hint := range losslessHints {
		if strings.Contains(lower, hint) {
			md.Lossless = true
			break
		}
	}

	if md.Lossless && md.Bitrate == 0 {
		md.Bitrate = LosslessFallbackBitrate
	}
	return md
}
