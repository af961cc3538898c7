package storage

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
)

// PathTemplateData holds the data for path template execution
type PathTemplateData struct {
	Artist      string
	AlbumArtist string
	Album       string
	Title       string
	Track       string
	Year        int
}

// BuildPath executes the template and returns the relative path (without extension)
func BuildPath(templateStr string, data *PathTemplateData) (string, error) {
	tmpl, err := template.New("path").Option("missingkey=error").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}

// NewPathTemplateData sanitizes every element and fills defaults for
// missing artist and album names.
func NewPathTemplateData(artist, albumArtist, album, title string, trackNum, year int, unknownArtist, unknownAlbum string) *PathTemplateData {
	data := &PathTemplateData{
		Artist:      Sanitize(artist),
		AlbumArtist: Sanitize(albumArtist),
		Album:       Sanitize(album),
		Title:       Sanitize(title),
		Track:       fmt.Sprintf("%02d", trackNum),
		Year:        year,
	}
	if data.Artist == "" {
		data.Artist = unknownArtist
	}
	if data.AlbumArtist == "" {
		data.AlbumArtist = data.Artist
	}
	if data.Album == "" {
		data.Album = unknownAlbum
	}
	return data
}

// BuildFullPath joins root, the rendered template and ext. The rendered
// path may not escape root.
func BuildFullPath(root, templateStr string, data *PathTemplateData, ext string) (string, error) {
	relPath, err := BuildPath(templateStr, data)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(relPath) == "" {
		return "", fmt.Errorf("template %q rendered an empty path", templateStr)
	}

	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	fullPath := filepath.Clean(filepath.Join(root, relPath+ext))
	rel, err := filepath.Rel(filepath.Clean(root), fullPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes %q", fullPath, root)
	}
	return fullPath, nil
}
