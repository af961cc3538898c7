// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort          = "8090"
	DefaultDBPath        = "slskdsync.db"
	DefaultQuality       = "LOSSLESS"
	DefaultSlskdHost     = "http://localhost:5030"
	DefaultSlskdURLBase  = "/"
	DefaultTrackLimit    = 10
	DefaultPacing        = 2 * time.Second
	DefaultCacheTTL      = 1 * time.Hour
	DefaultRedirectURL   = "http://127.0.0.1:8888/callback"
	DefaultPathTemplate  = "{{.Artist}}/{{.Album}}/{{.Title}}"
	DefaultUnknownAlbum  = "Unknown Album"
	DefaultUnknownArtist = "Unknown Artist"
	DefaultHTTPTimeout   = 30 * time.Second
	DefaultRetryCount    = 3
	DefaultRetryBase     = 1 * time.Second
)

// slskd API
const (
	SlskdAPIPrefix      = "api/v0"
	SlskdAPIKeyHeader   = "X-API-Key"
	SlskdRequestsPerSec = 5
)

// Polling budgets for one acquisition
const (
	SearchPollInterval   = 1 * time.Second
	SearchPollTimeout    = 15 * time.Second
	TransferPollInterval = 5 * time.Second
	TransferPollTimeout  = 300 * time.Second
)

// Spotify
const (
	SpotifyPageSize   = 50
	SpotifyAuthState  = "slskdsync"
	WantedCachePrefix = "wanted:"
)

// MusicBrainz
const (
	DefaultMusicBrainzURL     = "https://musicbrainz.org/ws/2"
	MusicBrainzUserAgent      = "slskdsync/1.0 (https://github.com/cesargomez89/slskdsync)"
	MusicBrainzRequestsPerSec = 0.95
	MusicBrainzCacheTTL       = 30 * 24 * time.Hour
)

// Library scanning
const (
	ProgressLogEvery   = 100
	SimilarityCutoff   = 0.8
	CollisionTimestamp = "20060102_150405"
)

// Audio extensions recognised in the local library
var AudioExtensions = map[string]bool{
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".ogg":  true,
	".opus": true,
	".ape":  true,
	".wma":  true,
	".alac": true,
	".wav":  true,
}

// File Extensions
const (
	ExtFLAC = ".flac"
	ExtMP3  = ".mp3"
	ExtM4A  = ".m4a"
	ExtMP4  = ".mp4"
)

// MIME Types
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
)

// File Permissions
const (
	DirPermissions  = 0755
	FilePermissions = 0644
)

// Characters to sanitize from filesystem paths
const InvalidPathChars = "<>:\"/\\|?*"
