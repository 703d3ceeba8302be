package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"

	"finrag/internal/models"
)

// Load extracts text units from a document on disk. PDFs yield one unit
// per page so page numbers survive into citations; the other formats
// have no page concept and yield one unit per natural division. Every
// failure is an ingest error: the caller must not index anything.
func Load(path, sourceID string) ([]models.Unit, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, models.IngestError(err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	var units []models.Unit
	var err error
	switch ext {
	case ".pdf":
		units, err = loadPDF(path, sourceID)
	case ".docx":
		units, err = loadDOCX(path, sourceID)
	case ".xlsx":
		units, err = loadXLSX(path, sourceID)
	case ".ods":
		units, err = loadODS(path, sourceID)
	case ".txt", ".md", ".markdown":
		units, err = loadText(path, sourceID)
	default:
		err = fmt.Errorf("unsupported file format: %s", ext)
	}
	if err != nil {
		return nil, models.IngestError(err)
	}
	return units, nil
}

// MarkdownAware reports whether header-aware chunking applies to a file.
func MarkdownAware(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

func loadPDF(path, sourceID string) ([]models.Unit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("unparsable PDF: %w", err)
	}

	var units []models.Unit
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		units = append(units, models.Unit{Text: pageText, PageNumber: i, SourceID: sourceID})
	}
	return units, nil
}

func loadDOCX(path, sourceID string) ([]models.Unit, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	if strings.TrimSpace(content) == "" {
		return nil, nil
	}
	return []models.Unit{{Text: content, PageNumber: 1, SourceID: sourceID}}, nil
}

func loadXLSX(path, sourceID string) ([]models.Unit, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, err
	}

	var units []models.Unit
	for sheetNum, sheet := range f.Sheets {
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		units = append(units, models.Unit{
			Text:       text.String(),
			PageNumber: sheetNum + 1,
			SourceID:   sourceID,
		})
	}
	return units, nil
}

func loadODS(path, sourceID string) ([]models.Unit, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var units []models.Unit
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
		units = append(units, models.Unit{
			Text:       text.String(),
			PageNumber: sheetNum + 1,
			SourceID:   sourceID,
		})
	}
	return units, nil
}

func loadText(path, sourceID string) ([]models.Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, nil
	}
	return []models.Unit{{Text: string(data), PageNumber: 1, SourceID: sourceID}}, nil
}
