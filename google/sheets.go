package google

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/uhppoted/sheets-csv/sheet"
)

// Sheets reads worksheet values directly through the Sheets API.
type Sheets struct {
	service *sheets.Service
}

func NewSheets(ctx context.Context, opts ...option.ClientOption) (*Sheets, error) {
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create new Sheets client (%v)", err)
	}

	return &Sheets{
		service: service,
	}, nil
}

// Sheets retrieves the formatted values of every worksheet in the spreadsheet, in worksheet order.
func (s *Sheets) Sheets(ctx context.Context, spreadsheet string) ([]sheet.Sheet, error) {
	response, err := s.service.Spreadsheets.Get(spreadsheet).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch spreadsheet (%v)", ErrTransfer, err)
	}

	titles := []string{}
	ranges := []string{}
	for _, ws := range response.Sheets {
		if ws.Properties != nil {
			titles = append(titles, ws.Properties.Title)
			ranges = append(ranges, a1(ws.Properties.Title))
		}
	}

	if len(ranges) == 0 {
		return []sheet.Sheet{}, nil
	}

	values, err := s.service.Spreadsheets.Values.BatchGet(spreadsheet).Ranges(ranges...).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("%w: unable to retrieve data from sheets (%v)", ErrTransfer, err)
	}

	if len(values.ValueRanges) != len(titles) {
		return nil, fmt.Errorf("%w: expected %v value ranges, got %v", ErrParse, len(titles), len(values.ValueRanges))
	}

	list := []sheet.Sheet{}
	for i, vr := range values.ValueRanges {
		rows := make([][]string, 0, len(vr.Values))
		for _, row := range vr.Values {
			record := make([]string, len(row))
			for j, v := range row {
				record[j] = fmt.Sprintf("%v", v)
			}

			rows = append(rows, record)
		}

		list = append(list, sheet.Sheet{
			Name: titles[i],
			Rows: rows,
		})
	}

	return list, nil
}

// a1 returns the A1 notation range for an entire worksheet.
func a1(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
