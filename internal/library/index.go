// Package library indexes a local music collection by normalized
// artist/title keys and answers existence and near-duplicate queries.
package library

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/cesargomez89/slskdsync/internal/constants"
	"github.com/cesargomez89/slskdsync/internal/domain"
	"github.com/cesargomez89/slskdsync/internal/logger"
	"github.com/cesargomez89/slskdsync/internal/textnorm"
)

// MatchPolicy tunes which generated keys count as an existing track.
type MatchPolicy struct {
	// BareTitle lets a title-only key match. It is the most permissive
	// variant and can skip covers sharing a title.
	BareTitle bool
}

// DefaultMatchPolicy enables every key variant.
var DefaultMatchPolicy = MatchPolicy{BareTitle: true}

// Options configures Build.
type Options struct {
	Logger   *logger.Logger
	Reader   MetadataReader
	Sources  Source
	Progress io.Writer // progress bar output, nil disables the bar
	Policy   MatchPolicy
}

// Stats counts what Build saw.
type Stats struct {
	Files    int `json:"files"`
	Tagged   int `json:"tagged"`
	Parsed   int `json:"parsed"`
	Unparsed int `json:"unparsed"`
}

// Index is the set of keys built from a local collection. It is read-only
// once Build returns.
type Index struct {
	keys    map[string]struct{}
	entries map[string]struct{}
	policy  MatchPolicy
	stats   Stats
}

// New returns an empty index using policy.
func New(policy MatchPolicy) *Index {
	return &Index{
		keys:    make(map[string]struct{}),
		entries: make(map[string]struct{}),
		policy:  policy,
	}
}

// Build walks every root and indexes the audio files found. Missing roots
// are logged and skipped.
func Build(ctx context.Context, roots []string, opts Options) (*Index, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	log = log.WithComponent("library")
	if opts.Reader == nil {
		opts.Reader = ReadTags
	}
	if opts.Sources == nil {
		opts.Sources = DefaultChain
	}

	idx := New(opts.Policy)

	var files []string
	for _, root := range roots {
		found, err := audioFiles(ctx, root)
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn("Music root does not exist", "root", root)
			continue
		}
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}

	log.Info("Indexing local library", "roots", len(roots), "files", len(files))

	var bar *progressbar.ProgressBar
	if opts.Progress != nil {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(opts.Progress),
			progressbar.OptionSetDescription("indexing"),
			progressbar.OptionShowCount(),
		)
	}

	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		idx.addFile(path, opts.Reader, opts.Sources)
		if bar != nil {
			_ = bar.Add(1)
		}
		if (i+1)%constants.ProgressLogEvery == 0 {
			log.Info("Indexing progress", "processed", i+1, "total", len(files))
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	log.Info("Library indexed",
		"files", idx.stats.Files,
		"tagged", idx.stats.Tagged,
		"parsed", idx.stats.Parsed,
		"keys", len(idx.keys),
	)
	return idx, nil
}

func audioFiles(ctx context.Context, root string) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, err
	}
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable subtrees are skipped
			if d != nil && d.IsDir() && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !d.IsDir() && constants.AudioExtensions[strings.ToLower(filepath.Ext(path))] {
			out = append(out, path)
		}
		return nil
	})
	return out, err
}

func (idx *Index) addFile(path string, read MetadataReader, src Source) {
	idx.stats.Files++

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	artist, title, ok := "", "", false
	if m, err := read(path); err == nil && m != nil {
		artist, title, ok = src.ArtistTitle(m)
	}
	if ok {
		idx.stats.Tagged++
	} else if artist, title, ok = parseFilename(stem); ok {
		idx.stats.Parsed++
	} else {
		idx.stats.Unparsed++
	}

	if ok {
		idx.AddPair(artist, title)
	}
	idx.AddName(stem)
}

// AddPair inserts the key for a known artist and title.
func (idx *Index) AddPair(artist, title string) {
	a, t := textnorm.Normalize(artist), textnorm.Normalize(title)
	if a == "" || t == "" {
		return
	}
	idx.addEntry(textnorm.Key(a, t))
	idx.keys[textnorm.Key(textnorm.StripLeadingArticle(a), t)] = struct{}{}
}

// AddName inserts the key for a bare file name.
func (idx *Index) AddName(name string) {
	n := textnorm.Normalize(name)
	if n == "" {
		return
	}
	idx.addEntry(n)
	idx.keys[textnorm.StripLeadingArticle(n)] = struct{}{}
}

func (idx *Index) addEntry(key string) {
	idx.entries[key] = struct{}{}
	idx.keys[key] = struct{}{}
}

// Has reports whether key is in the index verbatim.
func (idx *Index) Has(key string) bool {
	_, ok := idx.keys[key]
	return ok
}

// Len is the number of lookup keys.
func (idx *Index) Len() int {
	return len(idx.keys)
}

// Entries returns the keys derived directly from files, sorted.
func (idx *Index) Entries() []string {
	out := make([]string, 0, len(idx.entries))
	for k := range idx.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Stats reports the counters collected while building.
func (idx *Index) Stats() Stats {
	return idx.stats
}

// Exists reports whether any key generated for track is indexed.
func (idx *Index) Exists(track domain.Track) bool {
	for _, k := range idx.Candidates(track) {
		if idx.Has(k) {
			return true
		}
	}
	return false
}

// Candidates lists the keys Exists checks for track, in order.
func (idx *Index) Candidates(track domain.Track) []string {
	titles := uniq(
		textnorm.Normalize(track.Name),
		textnorm.Normalize(textnorm.StripFeaturing(track.Name)),
	)
	full := textnorm.Normalize(track.Artist)
	primary := textnorm.Normalize(textnorm.PrimaryArtist(track.Artist))
	artists := uniq(
		full,
		primary,
		textnorm.StripLeadingArticle(full),
		textnorm.StripLeadingArticle(primary),
	)

	var out []string
	for _, t := range titles {
		for _, a := range artists {
			out = append(out, textnorm.Key(a, t), a+" "+t, t+" "+a)
		}
	}
	if idx.policy.BareTitle {
		out = append(out, titles...)
	}
	return out
}

// uniq drops empty and repeated values, keeping order.
func uniq(values ...string) []string {
	out := values[:0:0]
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
