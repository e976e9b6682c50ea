package extract

import (
	"archive/zip"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Metadata holds best-effort descriptive fields for a document file.
// Missing or unreadable fields are left zero-valued.
type Metadata struct {
	Filename       string  `json:"filename"`
	Extension      string  `json:"extension"`
	SizeBytes      int64   `json:"size_bytes"`
	SizeMB         float64 `json:"size_mb"`
	PageCount      int     `json:"page_count,omitempty"`
	ParagraphCount int     `json:"paragraph_count,omitempty"`
	Author         string  `json:"author,omitempty"`
	Title          string  `json:"title,omitempty"`
}

// ExtractMetadata collects document metadata without ever failing: format
// quirks degrade to partial or empty fields.
func ExtractMetadata(path string) Metadata {
	meta := Metadata{
		Filename:  filepath.Base(path),
		Extension: strings.ToLower(filepath.Ext(path)),
	}
	if info, err := os.Stat(path); err == nil {
		meta.SizeBytes = info.Size()
		meta.SizeMB = roundMB(info.Size())
	}

	switch FormatFromPath(path) {
	case FormatPDF:
		fillPDFMetadata(path, &meta)
	case FormatDOCX:
		fillDOCXMetadata(path, &meta)
	}
	return meta
}

func roundMB(size int64) float64 {
	mb := float64(size) / (1024 * 1024)
	return float64(int64(mb*100+0.5)) / 100
}

func fillPDFMetadata(path string, meta *Metadata) {
	// The info dictionary in malformed PDFs can panic the parser; metadata
	// is best-effort so contain it here.
	defer func() { _ = recover() }()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	meta.PageCount = reader.NumPage()

	info := reader.Trailer().Key("Info")
	if info.IsNull() {
		return
	}
	if author := info.Key("Author"); author.Kind() == pdf.String {
		meta.Author = author.RawString()
	}
	if title := info.Key("Title"); title.Kind() == pdf.String {
		meta.Title = title.RawString()
	}
}

type docxCoreProps struct {
	Creator string `xml:"creator"`
	Title   string `xml:"title"`
}

func fillDOCXMetadata(path string, meta *Metadata) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return
	}
	defer zr.Close()

	if docFile := findZipEntry(&zr.Reader, "word/document.xml"); docFile != nil {
		if rc, err := docFile.Open(); err == nil {
			if paragraphs, err := docxParagraphs(rc); err == nil {
				meta.ParagraphCount = len(paragraphs)
			}
			rc.Close()
		}
	}

	if propsFile := findZipEntry(&zr.Reader, "docProps/core.xml"); propsFile != nil {
		if rc, err := propsFile.Open(); err == nil {
			var props docxCoreProps
			if err := xml.NewDecoder(rc).Decode(&props); err == nil {
				meta.Author = strings.TrimSpace(props.Creator)
				meta.Title = strings.TrimSpace(props.Title)
			}
			rc.Close()
		}
	}
}
