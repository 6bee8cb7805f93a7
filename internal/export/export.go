// Package export projects the ranked user list into a flat row structure and
// renders it as CSV, JSON or a spreadsheet. The core's responsibility ends at
// the Delivery triple; the HTTP layer only carries the bytes.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/gauge-analytics/influence/internal/domain"
)

// Delivery is a fully formed export artifact: filename, MIME type, content.
type Delivery struct {
	Filename string
	MIMEType string
	Content  []byte
}

// Headers is the fixed column schema, in export order.
var Headers = []string{
	"#", "Gender", "Title", "First Name", "Last Name", "Email", "Age",
	"Phone Number", "Cell Number", "Nat", "State", "City", "Street",
	"Postcode", "Interactions",
}

// Row is one exported user, flattened to the column schema.
type Row struct {
	ID           int64  `json:"id"`
	Gender       string `json:"gender"`
	Title        string `json:"title"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Age          int    `json:"age"`
	Phone        string `json:"phone"`
	Cell         string `json:"cell"`
	Nat          string `json:"nat"`
	State        string `json:"state"`
	City         string `json:"city"`
	Street       string `json:"street"`
	Postcode     string `json:"postcode"`
	Interactions int    `json:"interactions"`
}

// Rows projects users in their current order, sort and filters applied
// upstream.
func Rows(users []domain.User) []Row {
	rows := make([]Row, 0, len(users))
	for _, u := range users {
		rows = append(rows, Row{
			ID:           u.ID,
			Gender:       u.Gender,
			Title:        u.Name.Title,
			FirstName:    u.Name.First,
			LastName:     u.Name.Last,
			Email:        u.Email,
			Age:          u.Age,
			Phone:        u.Phone,
			Cell:         u.Cell,
			Nat:          u.Nat,
			State:        u.Location.State,
			City:         u.Location.City,
			Street:       u.Location.Street,
			Postcode:     u.Location.Postcode,
			Interactions: u.TotalInteractions,
		})
	}
	return rows
}

func (r Row) record() []string {
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.Gender,
		r.Title,
		r.FirstName,
		r.LastName,
		r.Email,
		strconv.Itoa(r.Age),
		r.Phone,
		r.Cell,
		r.Nat,
		r.State,
		r.City,
		r.Street,
		r.Postcode,
		strconv.Itoa(r.Interactions),
	}
}

// CSV renders the semicolon-delimited export with a header row.
func CSV(users []domain.User) (Delivery, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'

	if err := w.Write(Headers); err != nil {
		return Delivery{}, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range Rows(users) {
		if err := w.Write(row.record()); err != nil {
			return Delivery{}, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return Delivery{}, fmt.Errorf("flush csv: %w", err)
	}

	return Delivery{
		Filename: "influential-users.csv",
		MIMEType: "text/csv; charset=utf-8",
		Content:  buf.Bytes(),
	}, nil
}

// JSON renders the pretty-printed structured export.
func JSON(users []domain.User) (Delivery, error) {
	content, err := json.MarshalIndent(Rows(users), "", "  ")
	if err != nil {
		return Delivery{}, fmt.Errorf("marshal json export: %w", err)
	}
	return Delivery{
		Filename: "influential-users.json",
		MIMEType: "application/json; charset=utf-8",
		Content:  content,
	}, nil
}

const xlsxSheet = "Influential Users"

// XLSX renders the spreadsheet export, one sheet, same columns.
func XLSX(users []domain.User) (Delivery, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return Delivery{}, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]interface{}, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		return Delivery{}, fmt.Errorf("write sheet header: %w", err)
	}

	for i, row := range Rows(users) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return Delivery{}, fmt.Errorf("cell name: %w", err)
		}
		values := []interface{}{
			row.ID, row.Gender, row.Title, row.FirstName, row.LastName,
			row.Email, row.Age, row.Phone, row.Cell, row.Nat,
			row.State, row.City, row.Street, row.Postcode, row.Interactions,
		}
		if err := f.SetSheetRow(xlsxSheet, cell, &values); err != nil {
			return Delivery{}, fmt.Errorf("write sheet row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return Delivery{}, fmt.Errorf("write workbook: %w", err)
	}
	return Delivery{
		Filename: "influential-users.xlsx",
		MIMEType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:  buf.Bytes(),
	}, nil
}
