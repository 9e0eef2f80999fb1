// Package uploader attaches product photos to the rows of the vendor part list
// that have none yet.
package uploader

import (
	"fmt"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/glazing-tools/catalogpilot/internal/matcher"
)

// Layout locates the part list and its upload dialog. Row is a CSS selector;
// Name, Thumbnail and UploadButton are relative to one row.
type Layout struct {
	ListPath     string `yaml:"list_path"`
	Row          string `yaml:"row"`
	Name         string `yaml:"name"`
	Thumbnail    string `yaml:"thumbnail"`
	UploadButton string `yaml:"upload_button"`
	FileInput    string `yaml:"file_input"`
	UploadDialog string `yaml:"upload_dialog"`

	// PlaceholderMarker appears in the source of the stock "no image" picture.
	PlaceholderMarker string `yaml:"placeholder_marker"`
	// ThumbnailMarker appears in the source of uploaded thumbnails.
	ThumbnailMarker string `yaml:"thumbnail_marker"`
}

// DefaultLayout returns the selectors of the stock part list for listPath.
func DefaultLayout(listPath string) Layout {
	return Layout{
		ListPath:          listPath,
		Row:               "table.parts tbody tr",
		Name:              "td.part-name",
		Thumbnail:         "td.part-image img",
		UploadButton:      "td.part-image a.upload",
		FileInput:         "div.modal.upload input[type=file]",
		UploadDialog:      "div.modal.upload",
		PlaceholderMarker: "no-image",
		ThumbnailMarker:   "/thumbs/",
	}
}

// PartRow is one row of the live part list.
type PartRow struct {
	Index     int
	Name      string
	Thumbnail string
}

// ParseRows reads the part list rows from the page HTML in page order.
func ParseRows(html string, l Layout) ([]PartRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse part list: %w", err)
	}

	var rows []PartRow
	doc.Find(l.Row).Each(func(i int, s *goquery.Selection) {
		rows = append(rows, PartRow{
			Index:     i,
			Name:      matcher.CleanDisplayName(s.Find(l.Name).First().Text()),
			Thumbnail: strings.TrimSpace(s.Find(l.Thumbnail).First().AttrOr("src", "")),
		})
	})
	return rows, nil
}

// HasRealImage reports whether a thumbnail source points at an uploaded photo
// rather than the placeholder.
func HasRealImage(src string, l Layout) bool {
	if src == "" {
		return false
	}
	if l.PlaceholderMarker != "" && strings.Contains(src, l.PlaceholderMarker) {
		return false
	}
	if l.ThumbnailMarker != "" && strings.Contains(src, l.ThumbnailMarker) {
		return true
	}
	// Query strings would hide the extension.
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	return matcher.IsImageFile(path.Base(src))
}
