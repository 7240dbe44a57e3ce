package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"flightbook/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	SheetFlights      = "Flights"
	SheetPassengers   = "Passengers"
	SheetTransactions = "Transactions"
)

// FileName returns the default export file name for the moment t.
func FileName(t time.Time) string {
	return fmt.Sprintf("flightbook_export_%s.xlsx", t.Format("2006-01-02_15-04-05"))
}

// ResolvePath turns the user's export argument into a file path. An empty
// argument or a directory yields dir/FileName(now).
func ResolvePath(arg, defaultDir string, now time.Time) string {
	if arg == "" {
		return filepath.Join(defaultDir, FileName(now))
	}
	if strings.EqualFold(filepath.Ext(arg), ".xlsx") {
		return arg
	}
	return filepath.Join(arg, FileName(now))
}

// WriteWorkbook saves flights, passengers and the bookings log as one
// workbook with a sheet per table. Missing directories are created.
func WriteWorkbook(path string, flights []models.Flight, passengers []models.Passenger, records []models.BookingRecord) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("error creating export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("error creating header style: %w", err)
	}

	flightRows := make([][]interface{}, 0, len(flights))
	for _, fl := range flights {
		flightRows = append(flightRows, []interface{}{fl.ID, fl.Departure, fl.Arrival, fl.Date, fl.Time, fl.SeatsAvailable})
	}
	passengerRows := make([][]interface{}, 0, len(passengers))
	for _, p := range passengers {
		passengerRows = append(passengerRows, []interface{}{p.ID, p.Name, p.ContactDetails, strings.Join(p.BookedFlights, ",")})
	}
	recordRows := make([][]interface{}, 0, len(records))
	for _, r := range records {
		recordRows = append(recordRows, []interface{}{string(r.Type), r.FlightID, r.PassengerID, r.Date})
	}

	sheets := []struct {
		name    string
		headers []string
		widths  []float64
		rows    [][]interface{}
	}{
		{SheetFlights, models.FlightColumns, []float64{12, 20, 20, 12, 10, 16}, flightRows},
		{SheetPassengers, models.PassengerColumns, []float64{14, 25, 30, 30}, passengerRows},
		{SheetTransactions, models.BookingColumns, []float64{18, 12, 14, 12}, recordRows},
	}

	for i, sheet := range sheets {
		index, err := f.NewSheet(sheet.name)
		if err != nil {
			return fmt.Errorf("error creating sheet %s: %w", sheet.name, err)
		}
		if i == 0 {
			f.SetActiveSheet(index)
		}
		if err := writeSheet(f, sheet.name, sheet.headers, sheet.widths, sheet.rows, headerStyle); err != nil {
			return err
		}
	}

	// Удаляем стандартный лист
	_ = f.DeleteSheet("Sheet1")

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("error saving file: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, widths []float64, rows [][]interface{}, headerStyle int) error {
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("error writing %s header: %w", sheet, err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	_ = f.SetCellStyle(sheet, "A1", last, headerStyle)

	for r, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("error writing %s row %d: %w", sheet, r+2, err)
		}
	}

	// Настраиваем ширину колонок
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, col, col, w)
	}
	return nil
}
