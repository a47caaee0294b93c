package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/odaliasengell/neurolog-app-sub000/internal/models"
)

var logsHeader = []string{"Date", "Category", "Title", "Description", "Recorded by", "Recorded at"}

// BuildLogsWorkbook renders the daily logs of one child into a single-sheet
// workbook: the child's name on the sheet tab, bold filtered header,
// heuristic column widths.
func BuildLogsWorkbook(childName string, entries []models.LogEntry) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := logsSheetName(childName)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for col, h := range logsHeader {
		cell := fmt.Sprintf("%s1", colName(col+1))
		if err := f.SetCellStr(sheet, cell, h); err != nil {
			return nil, fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	for r, e := range entries {
		row := []string{
			e.LogDate.Format("2006-01-02"),
			e.Category,
			e.Title,
			e.Description,
			e.LoggedBy.String(),
			e.CreatedAt.Format("2006-01-02 15:04"),
		}
		for c, val := range row {
			cell := fmt.Sprintf("%s%d", colName(c+1), r+2)
			if err := f.SetCellStr(sheet, cell, val); err != nil {
				return nil, fmt.Errorf("set cell %s: %w", cell, err)
			}
		}
	}
	if err := ApplyDefaultFormatting(f, sheet); err != nil {
		return nil, err
	}
	return f, nil
}

// Excel caps sheet names at 31 characters and forbids : \ / ? * [ ].
var invalidSheetRe = regexp.MustCompile(`[:\\/?*\[\]]+`)

func logsSheetName(childName string) string {
	name := invalidSheetRe.ReplaceAllString(strings.TrimSpace(childName), "_")
	if name == "" {
		return "Daily logs"
	}
	s := []rune("Logs — " + name)
	if len(s) > 31 {
		s = s[:31]
	}
	return string(s)
}

// LogsFilename builds the download filename for a child's log export.
func LogsFilename(childName string) string {
	base := fmt.Sprintf("Daily logs — %s — %s.xlsx",
		cleanName(childName), time.Now().Format("2006-01-02"))
	return sanitizeFileName(base)
}
