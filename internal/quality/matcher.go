package quality

import (
	"errors"
	"math"
	"strings"

	"github.com/cesargomez89/slskdsync/internal/domain"
	"github.com/cesargomez89/slskdsync/internal/textnorm"
)

// AcceptThreshold is the minimum weighted score a candidate needs to be selected.
const AcceptThreshold = 40.0

// DefaultAssumedBitrate is used for the size estimate when the name has none.
const DefaultAssumedBitrate = 320

var ErrNoMatch = errors.New("no candidate reached the acceptance threshold")

// Score points.
const (
	pointsFormat          = 30
	pointsPreferredFormat = 10
	pointsBitrate         = 25
	pointsProximityMax    = 15
	proximityStep         = 50
	pointsTitle           = 15
	pointsArtist          = 10
	pointsAlbum           = 5
	pointsSize            = 5
)

// Match is the winning candidate for a track.
type Match struct {
	Peer  string
	File  domain.FileCandidate
	Score float64
}

// Score rates a candidate file for track under pol. Zero means rejected.
func Score(file domain.FileCandidate, track domain.Track, pol Policy) float64 {
	md := Extract(file.Filename)
	if !pol.Allows(md.Format) {
		return 0
	}

	score := float64(pointsFormat)
	if pol.Preferred(md.Format) {
		score += pointsPreferredFormat
	}

	if md.Bitrate > 0 {
		if md.Bitrate < pol.MinBitrate {
			return 0
		}
		score += pointsBitrate + proximity(md.Bitrate, pol.PreferredBitrate)
	}

	name := strings.ToLower(file.Filename)
	if containsText(name, track.Name) {
		score += pointsTitle
	}
	if containsText(name, textnorm.PrimaryArtist(track.Artist)) {
		score += pointsArtist
	}
	if containsText(name, track.Album) {
		score += pointsAlbum
	}

	if plausibleSize(file.Size, track.DurationMs, md.Bitrate) {
		score += pointsSize
	}

	return score * pol.Weight
}

// SelectBest returns the highest scoring candidate across all responses.
// The first candidate wins ties. ok is false when nothing reaches
// AcceptThreshold.
func SelectBest(responses []domain.SearchResponse, track domain.Track, pol Policy) (Match, bool) {
	var best Match
	found := false
	for _, resp := range responses {
		for _, file := range resp.Files {
			s := Score(file, track, pol)
			if s > best.Score {
				best = Match{Peer: resp.Peer, File: file, Score: s}
				found = true
			}
		}
	}
	if !found || best.Score < AcceptThreshold {
		return Match{}, false
	}
	if best.File.Peer == "" {
		best.File.Peer = best.Peer
	}
	return best, true
}

func proximity(bitrate, preferred int) float64 {
	diff := math.Abs(float64(bitrate - preferred))
	return math.Max(0, pointsProximityMax-diff/proximityStep)
}

func containsText(haystack, needle string) bool {
	needle = strings.TrimSpace(textnorm.StripPunctuation(needle))
	return needle != "" && strings.Contains(haystack, needle)
}

func plausibleSize(size int64, durationMs, bitrate int) bool {
	if size <= 0 || durationMs <= 0 {
		return false
	}
	if bitrate == 0 {
		bitrate = DefaultAssumedBitrate
	}
	expected := float64(durationMs) / 1000 * float64(bitrate) * 1000 / 8
	actual := float64(size)
	return actual > expected*0.5 && actual < expected*2
}
