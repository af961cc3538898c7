// Package tagging writes metadata into fetched audio files and files them
// into the music library.
package tagging

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
	"github.com/zhaarey/go-mp4tag"

	"github.com/cesargomez89/slskdsync/internal/constants"
	"github.com/cesargomez89/slskdsync/internal/domain"
)

// ErrUnsupportedFormat is returned for containers TagFile cannot write.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// TagFile writes metadata tags to the audio file at filePath.
func TagFile(filePath string, track domain.Track, albumArtData []byte) error {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case constants.ExtFLAC:
		return tagFLAC(filePath, track, albumArtData)
	case constants.ExtMP3:
		return tagMP3(filePath, track, albumArtData)
	case constants.ExtM4A, constants.ExtMP4:
		return tagMP4(filePath, track)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// tagFLAC replaces the Vorbis comment block and, when cover data is given,
// the picture blocks. Audio frames are written back untouched.
func tagFLAC(filePath string, track domain.Track, albumArtData []byte) error {
	f, err := flac.ParseFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to parse FLAC file: %w", err)
	}

	var vendor string
	kept := make([]*flac.MetaDataBlock, 0, len(f.Meta))
	for _, block := range f.Meta {
		switch block.Type {
		case flac.VorbisComment:
			if old, err := flacvorbis.ParseFromMetaDataBlock(*block); err == nil {
				vendor = old.Vendor
			}
			continue
		case flac.Picture:
			if len(albumArtData) > 0 {
				continue
			}
		}
		kept = append(kept, block)
	}
	f.Meta = kept

	vc := newVorbisComment(track)
	if vendor != "" {
		vc.Vendor = vendor
	}
	vcBlock := vc.Marshal()
	f.Meta = append(f.Meta, &vcBlock)

	if len(albumArtData) > 0 {
		pic, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "Front Cover", albumArtData, detectMIME(albumArtData))
		if err != nil {
			return fmt.Errorf("failed to build picture block: %w", err)
		}
		picBlock := pic.Marshal()
		f.Meta = append(f.Meta, &picBlock)
	}

	if err := f.Save(filePath); err != nil {
		return fmt.Errorf("failed to save FLAC file: %w", err)
	}
	return nil
}

func newVorbisComment(track domain.Track) *flacvorbis.MetaDataBlockVorbisComment {
	vc := flacvorbis.New()

	addTag := func(name, value string) {
		if value != "" {
			_ = vc.Add(name, value)
		}
	}

	addTag(flacvorbis.FIELD_TITLE, track.Name)
	addTag(flacvorbis.FIELD_ARTIST, track.Artist)
	addTag(flacvorbis.FIELD_ALBUM, track.Album)
	addTag("ALBUMARTIST", track.AlbumArtist)
	addTag(flacvorbis.FIELD_GENRE, track.Genre)
	if track.TrackNumber > 0 {
		addTag(flacvorbis.FIELD_TRACKNUMBER, strconv.Itoa(track.TrackNumber))
	}
	if track.Year > 0 {
		addTag(flacvorbis.FIELD_DATE, strconv.Itoa(track.Year))
	}
	addTag("SPOTIFY_TRACKID", track.ID)

	return vc
}

// tagMP3 writes ID3v2 tags to an MP3 file.
func tagMP3(filePath string, track domain.Track, albumArtData []byte) error {
	tag, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open MP3 file: %w", err)
	}
	defer tag.Close()

	tag.SetVersion(4)

	if track.Name != "" {
		tag.SetTitle(track.Name)
	}
	if track.Artist != "" {
		tag.SetArtist(track.Artist)
	}
	if track.Album != "" {
		tag.SetAlbum(track.Album)
	}
	if track.Year > 0 {
		tag.SetYear(strconv.Itoa(track.Year))
	}
	if track.Genre != "" {
		tag.SetGenre(track.Genre)
	}
	if track.AlbumArtist != "" {
		tag.AddTextFrame(tag.CommonID("Band/Orchestra/Accompaniment"), tag.DefaultEncoding(), track.AlbumArtist)
	}
	if track.TrackNumber > 0 {
		tag.AddTextFrame(tag.CommonID("Track number/Position in set"), tag.DefaultEncoding(), strconv.Itoa(track.TrackNumber))
	}
	if track.ID != "" {
		tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: "SPOTIFY_TRACKID",
			Value:       track.ID,
		})
	}

	if len(albumArtData) > 0 {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    detectMIME(albumArtData),
			PictureType: id3v2.PTFrontCover,
			Description: "Front Cover",
			Picture:     albumArtData,
		})
	}

	return tag.Save()
}

// tagMP4 writes iTunes-style atoms. Cover art is left as found.
func tagMP4(filePath string, track domain.Track) error {
	mp4, err := mp4tag.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open MP4 file: %w", err)
	}
	defer mp4.Close()

	if err := mp4.Write(newMP4Tags(track), []string{}); err != nil {
		return fmt.Errorf("failed to write MP4 tags: %w", err)
	}
	return nil
}

func newMP4Tags(track domain.Track) *mp4tag.MP4Tags {
	t := &mp4tag.MP4Tags{
		Title:       track.Name,
		Artist:      track.Artist,
		Album:       track.Album,
		AlbumArtist: track.AlbumArtist,
		CustomGenre: track.Genre,
		Custom:      map[string]string{},
	}
	if track.TrackNumber > 0 {
		t.TrackNumber = int16(track.TrackNumber)
	}
	if track.Year > 0 {
		t.Date = strconv.Itoa(track.Year)
	}
	if track.ID != "" {
		t.Custom["SPOTIFY_TRACKID"] = track.ID
	}
	if track.ISRC != "" {
		t.Custom["ISRC"] = track.ISRC
	}
	return t
}

// detectMIME sniffs image bytes so PNG covers aren't labelled as JPEG.
func detectMIME(data []byte) string {
	mime := http.DetectContentType(data)
	if idx := strings.Index(mime, ";"); idx != -1 {
		mime = strings.TrimSpace(mime[:idx])
	}
	if mime != constants.MimeTypePNG {
		return constants.MimeTypeJPEG
	}
	return mime
}
