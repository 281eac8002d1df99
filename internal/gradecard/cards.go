package gradecard

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/j1mk1m/gradecard-cmu-15251-s23/internal/record"
)

// CreateCards provisions a card store for every roster student missing from
// the export sheet. The student card is shared with the student's email; the
// TA card is not shared. New export rows are flushed every five students and
// once more at the end, so a crash loses at most the unflushed tail (already
// created card stores are then orphaned until the next run re-links them).
func (s *Service) CreateCards(ctx context.Context, agents []Agent) error {
	if _, err := s.ensureSubSheet(ctx, ExportSheetName, ExportHeader); err != nil {
		return err
	}

	values, err := s.getRecords(ctx, exportRangeRead)
	if err != nil {
		return err
	}

	existing, err := ExportHeader.Column(values, "andrew_id")
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(existing))
	for _, id := range existing {
		seen[id] = true
	}

	roster, err := s.getRecords(ctx, rosterRangeWrite)
	if err != nil {
		return err
	}

	wantStudent := hasAgent(agents, AgentStudent)
	wantTA := hasAgent(agents, AgentTA)

	var pending []record.Record
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		s.log.Info("adding new card ids to spreadsheet", zap.Int("count", len(pending)))
		values = append(values, pending...)
		pending = nil
		return s.store.SetRange(ctx, s.cfg.Gradecard.SpreadsheetID, exportRangeWrite,
			fromRecords(ExportHeader.Truncate(values)), false)
	}

	for _, student := range roster {
		andrewID, err := RosterHeader.Get(student, "Andrew ID")
		if err != nil {
			return err
		}
		email, err := RosterHeader.Get(student, "Email")
		if err != nil {
			return err
		}

		if !seen[andrewID] {
			entries := map[string]string{
				"andrew_id":    andrewID,
				"email":        email,
				"last_updated": s.now(),
			}

			if wantStudent {
				s.log.Info("creating student card", zap.String("andrew_id", andrewID))
				title := fmt.Sprintf("[%s] Student Card (%s)", s.cfg.Course, andrewID)
				ssid, err := s.store.CreateStore(ctx, title, CardSheets,
					s.cfg.Gradecard.StudentCardsFolder, []string{email})
				if err != nil {
					return fmt.Errorf("failed to create student card for %s: %w", andrewID, err)
				}
				entries["ssid"] = ssid
			}

			if wantTA {
				s.log.Info("creating TA card", zap.String("andrew_id", andrewID))
				ssid, err := s.store.CreateStore(ctx, andrewID, CardSheets,
					s.cfg.Gradecard.TACardsFolder, nil)
				if err != nil {
					return fmt.Errorf("failed to create TA card for %s: %w", andrewID, err)
				}
				entries["_ssid"] = ssid
			}

			rec := ExportHeader.New()
			if err := ExportHeader.SetAcross(&rec, entries); err != nil {
				return err
			}
			pending = append(pending, rec)
		}

		if len(pending) >= flushEvery {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	return flush()
}

func hasAgent(agents []Agent, want Agent) bool {
	for _, a := range agents {
		if a == want {
			return true
		}
	}
	return false
}
