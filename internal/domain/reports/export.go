package reports

import (
	"bytes"
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportWeekXLSX renders a week's reviews (and the stored summary, if any)
// as a spreadsheet for admins who want the raw material behind a report.
func ExportWeekXLSX(ctx context.Context, source ReviewSource, repo *Repo, weekStart string) ([]byte, error) {
	revs, err := source.ListByWeek(ctx, weekStart)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())

	header := []interface{}{"subject_id", "week_start", "mood", "wins", "blockers", "submitted_at"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	row := 2
	for _, rev := range revs {
		excelRow := []interface{}{
			rev.SubjectID,
			rev.WeekStart.Format("2006-01-02"),
			rev.Mood,
			rev.Wins,
			rev.Blockers,
			rev.CreatedAt.Format("2006-01-02 15:04"),
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &excelRow); err != nil {
			return nil, err
		}
		row++
	}

	if repo != nil {
		rep, err := repo.GetByWeek(ctx, weekStart)
		if err != nil {
			return nil, err
		}
		if rep != nil {
			cell, err := excelize.CoordinatesToCellName(1, row+1)
			if err != nil {
				return nil, err
			}
			summary := []interface{}{fmt.Sprintf("AI summary (%s, %d tokens)", rep.Model, rep.TokensUsed), rep.Summary}
			if err := f.SetSheetRow(sheet, cell, &summary); err != nil {
				return nil, err
			}
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
