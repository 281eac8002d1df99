package gradecard

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/j1mk1m/gradecard-cmu-15251-s23/internal/record"
)

// ErrNoRostersFound indicates no roster CSV exists in the working directory
// or the roster subdirectory.
var ErrNoRostersFound = errors.New("no CSV rosters found")

// FindRosters lists candidate roster CSVs: the working directory first, then
// the configured roster subdirectory.
func FindRosters(rosterDir string) ([]string, error) {
	local, err := filepath.Glob("*.csv")
	if err != nil {
		return nil, err
	}
	nested, err := filepath.Glob(filepath.Join(rosterDir, "*.csv"))
	if err != nil {
		return nil, err
	}
	paths := append(local, nested...)
	if len(paths) == 0 {
		return nil, ErrNoRostersFound
	}
	return paths, nil
}

// ReadRoster parses a roster CSV, skipping the header row.
func ReadRoster(path string) ([]record.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse roster %s: %w", path, err)
	}
	if len(rows) > 0 {
		rows = rows[1:]
	}
	return toRecords(rows), nil
}

// AddStudents reconciles a parsed roster against the roster sheet: students
// whose Andrew ID is already present are left untouched, unseen ones are
// appended verbatim in input order. Idempotent.
func (s *Service) AddStudents(ctx context.Context, roster []record.Record) error {
	if _, err := s.ensureSubSheet(ctx, RosterSheetName, RosterHeader); err != nil {
		return err
	}

	values, err := s.getRecords(ctx, rosterRangeWrite)
	if err != nil {
		return err
	}

	existing, err := RosterHeader.Column(values, "Andrew ID")
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(existing))
	for _, id := range existing {
		seen[id] = true
	}

	var added int
	for _, student := range roster {
		id, err := RosterHeader.Get(student, "Andrew ID")
		if err != nil {
			return err
		}
		if seen[id] {
			continue
		}
		values = append(values, student)
		added++
	}

	if added == 0 {
		return nil
	}

	s.log.Info("adding new students to spreadsheet", zap.Int("count", added))
	return s.store.SetRange(ctx, s.cfg.Gradecard.SpreadsheetID, rosterRangeWrite, fromRecords(values), false)
}
