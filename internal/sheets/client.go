// Package sheets wraps the Google Sheets and Drive APIs as a named-range
// key-value store: read rows, write rows (optionally clearing first), list
// and create sub-sheets, copy sub-sheets between spreadsheets, and create
// whole spreadsheets with sharing grants. Sub-sheet mutations against one
// spreadsheet are grouped into a single batchUpdate where the API allows it.
package sheets

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// USER_ENTERED makes the backend parse written cells the way a typist would
// (numbers as numbers, dates as dates).
const valueInputOption = "USER_ENTERED"

// Client is the remote store adapter.
type Client struct {
	svc   *sheets.Service
	drive *drive.Service
	retry RetryPolicy
	log   *zap.Logger
}

// NewClient builds the adapter on an authenticated HTTP client.
func NewClient(ctx context.Context, httpClient *http.Client, retry RetryPolicy, log *zap.Logger) (*Client, error) {
	svc, err := sheets.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to build sheets service: %w", err)
	}
	drv, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to build drive service: %w", err)
	}
	return &Client{svc: svc, drive: drv, retry: retry, log: log}, nil
}

// Retry runs fn under the client's retry policy.
func (c *Client) Retry(ctx context.Context, op string, fn func() error) error {
	return c.retry.Do(ctx, c.log, op, fn)
}

// ListSubSheets returns the sub-sheet titles of a spreadsheet in order.
func (c *Client) ListSubSheets(ctx context.Context, spreadsheetID string) ([]string, error) {
	ids, titles, err := c.subSheetIDs(ctx, spreadsheetID)
	if err != nil {
		return nil, err
	}
	_ = ids
	return titles, nil
}

func (c *Client) subSheetIDs(ctx context.Context, spreadsheetID string) (map[string]int64, []string, error) {
	resp, err := c.svc.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get spreadsheet %s: %w", spreadsheetID, err)
	}
	ids := make(map[string]int64, len(resp.Sheets))
	titles := make([]string, 0, len(resp.Sheets))
	for _, sh := range resp.Sheets {
		ids[sh.Properties.Title] = sh.Properties.SheetId
		titles = append(titles, sh.Properties.Title)
	}
	return ids, titles, nil
}

// GetRange reads a named range as string cells. Trailing empty cells are
// elided by the backend, so rows may be shorter than the sheet is wide.
func (c *Client) GetRange(ctx context.Context, spreadsheetID, readRange string) ([][]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from %s: %w", readRange, spreadsheetID, err)
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, 0, len(row))
		for _, v := range row {
			cells = append(cells, fmt.Sprint(v))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// SetRange writes rows at a named range, clearing the range first when asked.
func (c *Client) SetRange(ctx context.Context, spreadsheetID, writeRange string, rows [][]string, clear bool) error {
	if clear {
		_, err := c.svc.Spreadsheets.Values.Clear(spreadsheetID, writeRange, &sheets.ClearValuesRequest{}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to clear %s in %s: %w", writeRange, spreadsheetID, err)
		}
	}

	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		values[i] = cells
	}

	_, err := c.svc.Spreadsheets.Values.Update(spreadsheetID, writeRange, &sheets.ValueRange{Values: values}).
		ValueInputOption(valueInputOption).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write %s in %s: %w", writeRange, spreadsheetID, err)
	}
	return nil
}

// CreateSubSheet adds a sub-sheet, optionally writing a header row into it.
func (c *Client) CreateSubSheet(ctx context.Context, spreadsheetID, name string, header []string) error {
	err := c.batchUpdate(ctx, spreadsheetID, []*sheets.Request{{
		AddSheet: &sheets.AddSheetRequest{
			Properties: &sheets.SheetProperties{Title: name},
		},
	}})
	if err != nil {
		return err
	}
	if len(header) > 0 {
		return c.SetRange(ctx, spreadsheetID, name, [][]string{header}, false)
	}
	return nil
}

// CreateStore creates a new spreadsheet with the given sub-sheets, moves it
// into the destination Drive folder and grants writer access to shareWith.
// Returns the new spreadsheet id.
func (c *Client) CreateStore(ctx context.Context, name string, subSheets []string, folderID string, shareWith []string) (string, error) {
	body := &sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: name},
	}
	for _, title := range subSheets {
		body.Sheets = append(body.Sheets, &sheets.Sheet{
			Properties: &sheets.SheetProperties{Title: title},
		})
	}

	created, err := c.svc.Spreadsheets.Create(body).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create spreadsheet %q: %w", name, err)
	}
	id := created.SpreadsheetId

	file, err := c.drive.Files.Get(id).Fields("parents").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to look up parents of %s: %w", id, err)
	}
	_, err = c.drive.Files.Update(id, nil).
		AddParents(folderID).
		RemoveParents(strings.Join(file.Parents, ",")).
		Fields("id, parents").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to move %s into folder: %w", id, err)
	}

	for _, email := range shareWith {
		_, err := c.drive.Permissions.Create(id, &drive.Permission{
			Role:         "writer",
			Type:         "user",
			EmailAddress: email,
		}).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("failed to share %s with %s: %w", id, email, err)
		}
	}

	return id, nil
}

// CopySubSheets copies named sub-sheets from one spreadsheet into another.
// Any destination sub-sheet with the target name is deleted first; the copy
// is then retitled and repositioned to its slot in layout. Stale "Copy of X"
// leftovers from interrupted earlier runs are purged in the same batch.
func (c *Client) CopySubSheets(ctx context.Context, srcID string, srcNames []string, dstID string, dstNames []string, layout []string) error {
	srcSheets, _, err := c.subSheetIDs(ctx, srcID)
	if err != nil {
		return err
	}
	dstSheets, _, err := c.subSheetIDs(ctx, dstID)
	if err != nil {
		return err
	}

	var requests []*sheets.Request

	for i, srcName := range srcNames {
		dstName := dstNames[i]

		if oldID, ok := dstSheets[dstName]; ok {
			requests = append(requests, &sheets.Request{
				DeleteSheet: &sheets.DeleteSheetRequest{SheetId: oldID},
			})
		}

		srcSheetID, ok := srcSheets[srcName]
		if !ok {
			return fmt.Errorf("source sub-sheet %q not found in %s", srcName, srcID)
		}
		copied, err := c.svc.Spreadsheets.Sheets.CopyTo(srcID, srcSheetID, &sheets.CopySheetToAnotherSpreadsheetRequest{
			DestinationSpreadsheetId: dstID,
		}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("failed to copy %q into %s: %w", srcName, dstID, err)
		}

		index := int64(indexOf(layout, dstName))
		requests = append(requests, &sheets.Request{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId: copied.SheetId,
					Title:   dstName,
					Index:   index,
				},
				Fields: "title,index",
			},
		})
	}

	for _, name := range layout {
		if staleID, ok := dstSheets["Copy of "+name]; ok {
			requests = append(requests, &sheets.Request{
				DeleteSheet: &sheets.DeleteSheetRequest{SheetId: staleID},
			})
		}
	}

	return c.batchUpdate(ctx, dstID, requests)
}

func (c *Client) batchUpdate(ctx context.Context, spreadsheetID string, requests []*sheets.Request) error {
	if len(requests) == 0 {
		return nil
	}
	_, err := c.svc.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("batch update of %s failed: %w", spreadsheetID, err)
	}
	return nil
}

func indexOf(list []string, name string) int {
	for i, v := range list {
		if v == name {
			return i
		}
	}
	return 0
}
