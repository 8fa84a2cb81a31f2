package db

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"schoolmanager-server-go/models"
)

const (
	pupilsSheet  = "Pupils"
	classesSheet = "Classes"
)

// ReadPupilsFromExcel reads pupils from the first sheet of an Excel stream.
// Column A holds the pupil ID and column B the name; the first row is a
// header. Rows without a numeric ID or a name are skipped.
func ReadPupilsFromExcel(file io.Reader) ([]models.Pupil, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Error().Err(err).Msg("error closing excel file")
		}
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("excel file does not contain any sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}

	pupils := []models.Pupil{}
	for i, row := range rows {
		if i == 0 {
			continue // header
		}

		var rawID, name string
		if len(row) > 0 {
			rawID = strings.TrimSpace(row[0])
		}
		if len(row) > 1 {
			name = strings.TrimSpace(row[1])
		}

		id, err := strconv.Atoi(rawID)
		if err != nil || id <= 0 || name == "" {
			log.Warn().Int("row", i+1).Str("id", rawID).Str("name", name).Msg("skipping row with missing or invalid ID or name")
			continue
		}

		pupils = append(pupils, models.Pupil{ID: id, Name: name})
	}

	return pupils, nil
}

// WriteStateWorkbook renders state as a workbook with a Pupils and a Classes sheet.
func WriteStateWorkbook(state models.State) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), pupilsSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(classesSheet); err != nil {
		return nil, fmt.Errorf("failed to add sheet %s: %w", classesSheet, err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	pupilRows := [][]interface{}{{"Id", "Name", "ClassName", "FollowUpNumber"}}
	for _, p := range state.Pupils {
		pupilRows = append(pupilRows, []interface{}{p.ID, p.Name, p.ClassName, p.FollowUpNumber})
	}
	classRows := [][]interface{}{{"Id", "ClassName", "TeacherName", "MaxAmountOfPupils", "AmountOfPupils"}}
	for _, c := range state.Classes {
		classRows = append(classRows, []interface{}{c.ID, c.ClassName, c.TeacherName, c.MaxAmountOfPupils, c.AmountOfPupils})
	}

	for sheet, rows := range map[string][][]interface{}{pupilsSheet: pupilRows, classesSheet: classRows} {
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				return nil, err
			}
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return nil, fmt.Errorf("failed to write row %d of sheet %s: %w", i+1, sheet, err)
			}
		}

		last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
			return nil, fmt.Errorf("failed to style header of sheet %s: %w", sheet, err)
		}
	}

	return f, nil
}
