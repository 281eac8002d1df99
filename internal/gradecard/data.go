package gradecard

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/j1mk1m/gradecard-cmu-15251-s23/internal/record"
)

// SyncData overwrites each selected card's Data sub-sheet with the current
// export row, as (variable, value) pairs. The student card receives only the
// public variables: names before the STOP sentinel that do not start with an
// underscore. The TA card receives the full row, unfiltered. Row selection
// follows the same resume-gate and permit-list rules as UpdateViews.
func (s *Service) SyncData(ctx context.Context, agents []Agent, permit []string, onwards string) error {
	headerRows, err := s.store.GetRange(ctx, s.cfg.Gradecard.SpreadsheetID, exportRangeHeader)
	if err != nil {
		return err
	}
	var variables record.Header
	if len(headerRows) > 0 {
		variables = record.Header(headerRows[0])
	}

	values, err := s.getRecords(ctx, exportRangeRead)
	if err != nil {
		return err
	}

	publicVars := publicVariables(variables)

	gate := newResumeGate(onwards)
	allowed := permitSet(permit)
	wantStudent := hasAgent(agents, AgentStudent)
	wantTA := hasAgent(agents, AgentTA)

	for i := range values {
		andrewID, err := ExportHeader.Get(values[i], "andrew_id")
		if err != nil {
			return err
		}
		open := gate.pass(andrewID)
		if allowed != nil && !allowed[andrewID] {
			continue
		}
		if !open {
			continue
		}

		if wantStudent {
			s.log.Info("syncing student data", zap.String("andrew_id", andrewID))

			entries := variables.GetAcross(values[i], publicVars)
			data := zipPairs(publicVars, entries)

			ssid, err := ExportHeader.Get(values[i], "ssid")
			if err != nil {
				return err
			}
			err = s.store.Retry(ctx, "write card data", func() error {
				return s.store.SetRange(ctx, ssid, DataSheetName, data, true)
			})
			if err != nil {
				return err
			}
		}

		if wantTA {
			s.log.Info("syncing TA data", zap.String("andrew_id", andrewID))

			data := zipPairs(variables, values[i])

			ssid, err := ExportHeader.Get(values[i], "_ssid")
			if err != nil {
				return err
			}
			err = s.store.Retry(ctx, "write card data", func() error {
				return s.store.SetRange(ctx, ssid, DataSheetName, data, true)
			})
			if err != nil {
				return err
			}
		}

		if err := ExportHeader.Set(&values[i], "last_updated", s.now()); err != nil {
			return err
		}
	}

	return s.store.SetRange(ctx, s.cfg.Gradecard.SpreadsheetID, exportRangeWrite,
		fromRecords(ExportHeader.Truncate(values)), false)
}

// publicVariables selects the student-visible variable names: left to right
// until the STOP sentinel, skipping names prefixed with an underscore.
func publicVariables(variables record.Header) []string {
	var public []string
	for _, v := range variables {
		if v == stopSentinel {
			break
		}
		if strings.HasPrefix(v, "_") {
			continue
		}
		public = append(public, v)
	}
	return public
}

// zipPairs pairs names with values, stopping at the shorter of the two.
func zipPairs(names, cells []string) [][]string {
	n := len(names)
	if len(cells) < n {
		n = len(cells)
	}
	pairs := make([][]string, n)
	for i := 0; i < n; i++ {
		pairs[i] = []string{names[i], cells[i]}
	}
	return pairs
}
