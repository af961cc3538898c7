package library

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bogem/id3v2/v2"
	"github.com/dhowden/tag"

	"github.com/cesargomez89/slskdsync/internal/domain"
	"github.com/cesargomez89/slskdsync/internal/logger"
)

type fakeMetadata struct {
	tag.Metadata
	artist      string
	albumArtist string
	title       string
	raw         map[string]interface{}
}

func (f *fakeMetadata) Artist() string              { return f.artist }
func (f *fakeMetadata) AlbumArtist() string         { return f.albumArtist }
func (f *fakeMetadata) Title() string               { return f.title }
func (f *fakeMetadata) Raw() map[string]interface{} { return f.raw }

var errNoTags = errors.New("no tags")

func readerFor(tags map[string]*fakeMetadata) MetadataReader {
	return func(path string) (tag.Metadata, error) {
		if m, ok := tags[filepath.Base(path)]; ok {
			return m, nil
		}
		return nil, errNoTags
	}
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, nil, 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func build(t *testing.T, roots []string, opts Options) *Index {
	t.Helper()
	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	idx, err := Build(context.Background(), roots, opts)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return idx
}

func TestBuild_FilenameFallback(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "The Beatles - Let It Be.mp3", "cover.jpg", "notes.txt")

	idx := build(t, []string{dir}, Options{Reader: readerFor(nil), Policy: MatchPolicy{}})

	if !idx.Exists(domain.Track{Name: "Let It Be", Artist: "The Beatles"}) {
		t.Error("expected exact artist to match")
	}
	if !idx.Exists(domain.Track{Name: "Let It Be", Artist: "Beatles"}) {
		t.Error("expected article-stripped artist to match")
	}
	if idx.Exists(domain.Track{Name: "Yesterday", Artist: "The Beatles"}) {
		t.Error("unexpected match for a different title")
	}

	st := idx.Stats()
	if st.Files != 1 || st.Parsed != 1 || st.Tagged != 0 {
		t.Errorf("unexpected stats: %+v", st)
	}
}

func TestBuild_TagsWinOverFilename(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "Album/track01.flac")

	tags := map[string]*fakeMetadata{
		"track01.flac": {artist: "The Beatles", title: "Let It Be"},
	}
	idx := build(t, []string{dir}, Options{Reader: readerFor(tags), Policy: MatchPolicy{}})

	if !idx.Has("the beatles|let it be") {
		t.Errorf("expected tag key, entries: %v", idx.Entries())
	}
	if !idx.Has("track01") {
		t.Error("expected bare filename key")
	}
	if !idx.Exists(domain.Track{Name: "Let It Be", Artist: "Beatles"}) {
		t.Error("expected article-stripped artist to match tagged file")
	}
	if idx.Stats().Tagged != 1 {
		t.Errorf("expected 1 tagged file, got %+v", idx.Stats())
	}
}

func TestBuild_ChainFallbacks(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "a.flac", "b.mp3", "c.m4a", "d.ogg")

	tags := map[string]*fakeMetadata{
		"a.flac": {albumArtist: "Portishead", title: "Roads"},
		"b.mp3":  {raw: map[string]interface{}{"TPE1": "Massive Attack", "TIT2": "Teardrop"}},
		"c.m4a":  {raw: map[string]interface{}{"\xa9ART": "Tricky", "\xa9nam": "Overcome"}},
		"d.ogg":  {raw: map[string]interface{}{"performer": "Björk", "title": "Jóga"}},
	}
	idx := build(t, []string{dir}, Options{Reader: readerFor(tags)})

	for _, key := range []string{"portishead|roads", "massive attack|teardrop", "tricky|overcome", "björk|jóga"} {
		if !idx.Has(key) {
			t.Errorf("expected key %q, entries: %v", key, idx.Entries())
		}
	}
}

func TestBuild_ReadsRealID3Tags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "01.mp3")

	tg := id3v2.NewEmptyTag()
	tg.SetArtist("Sigur Rós")
	tg.SetTitle("Hoppípolla")

	var buf bytes.Buffer
	if _, err := tg.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	buf.Write(make([]byte, 128))
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	idx := build(t, []string{dir}, Options{})
	if !idx.Exists(domain.Track{Name: "Hoppípolla", Artist: "Sigur Rós"}) {
		t.Errorf("expected tagged file to be indexed, entries: %v", idx.Entries())
	}
}

func TestBuild_MissingRootIsSkipped(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "Artist - Song.flac")

	idx := build(t, []string{filepath.Join(dir, "missing"), dir}, Options{Reader: readerFor(nil)})
	if idx.Stats().Files != 1 {
		t.Errorf("expected 1 file, got %+v", idx.Stats())
	}
}

func TestBuild_ProgressAndCancel(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "A - One.mp3", "B - Two.mp3")

	var progress bytes.Buffer
	build(t, []string{dir}, Options{Reader: readerFor(nil), Progress: &progress})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Build(ctx, []string{dir}, Options{Logger: logger.Discard(), Reader: readerFor(nil)}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestExists_Battery(t *testing.T) {
	idx := New(DefaultMatchPolicy)
	idx.AddPair("Daft Punk", "Get Lucky")
	idx.AddName("Around The World Daft Punk")
	idx.AddName("Simon Mrs Robinson")
	idx.AddName("Intro")

	tests := []struct {
		name  string
		track domain.Track
		want  bool
	}{
		{"multi-artist and featuring", domain.Track{Name: "Get Lucky (feat. Pharrell Williams)", Artist: "Daft Punk, Pharrell Williams"}, true},
		{"title artist order", domain.Track{Name: "Around the World", Artist: "Daft Punk"}, true},
		{"primary artist ampersand", domain.Track{Name: "Mrs. Robinson", Artist: "Simon & Garfunkel"}, true},
		{"bare title", domain.Track{Name: "Intro", Artist: "Anyone"}, true},
		{"absent", domain.Track{Name: "One More Time", Artist: "Daft Punk"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := idx.Exists(tt.track); got != tt.want {
				t.Errorf("Exists = %v, want %v (candidates %v)", got, tt.want, idx.Candidates(tt.track))
			}
		})
	}
}

func TestExists_BareTitlePolicy(t *testing.T) {
	idx := New(MatchPolicy{BareTitle: false})
	idx.AddName("Intro")

	if idx.Exists(domain.Track{Name: "Intro", Artist: "Anyone"}) {
		t.Error("bare title should not match when disabled")
	}
}

func TestCandidates_NoEmptyKeys(t *testing.T) {
	idx := New(DefaultMatchPolicy)
	for _, k := range idx.Candidates(domain.Track{Name: "!!!", Artist: "???"}) {
		t.Errorf("unexpected candidate %q for punctuation-only track", k)
	}
}

func TestParseFilename(t *testing.T) {
	tests := []struct {
		stem   string
		artist string
		title  string
		ok     bool
	}{
		{"The Beatles - Let It Be", "The Beatles", "Let It Be", true},
		{"ABBA-Dancing Queen", "ABBA", "Dancing Queen", true},
		{"Dancing Queen-ABBA", "ABBA", "Dancing Queen", true},
		{"Hello (Adele)", "Adele", "Hello", true},
		{"track01", "", "", false},
		{" - ", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.stem, func(t *testing.T) {
			artist, title, ok := parseFilename(tt.stem)
			if artist != tt.artist || title != tt.title || ok != tt.ok {
				t.Errorf("parseFilename(%q) = %q, %q, %v; want %q, %q, %v",
					tt.stem, artist, title, ok, tt.artist, tt.title, tt.ok)
			}
		})
	}
}
