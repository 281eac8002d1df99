package gradecard

import (
	"context"

	"go.uber.org/zap"
)

// UpdateViews copies the named template views into every selected student's
// card stores, in export order. The resume gate is evaluated for every row
// before the permit-list; rows before the marker are skipped outright. The
// whole export range is rewritten at the end regardless of which rows were
// touched.
func (s *Service) UpdateViews(ctx context.Context, views []string, agents []Agent, permit []string, onwards string) error {
	values, err := s.getRecords(ctx, exportRangeRead)
	if err != nil {
		return err
	}

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
			s.log.Info("updating student view", zap.String("andrew_id", andrewID))
			ssid, err := ExportHeader.Get(values[i], "ssid")
			if err != nil {
				return err
			}
			err = s.store.Retry(ctx, "copy views", func() error {
				return s.store.CopySubSheets(ctx, s.cfg.Gradecard.TemplateID, views, ssid, views, CardSheets)
			})
			if err != nil {
				return err
			}
		}

		if wantTA {
			s.log.Info("updating TA view", zap.String("andrew_id", andrewID))
			ssid, err := ExportHeader.Get(values[i], "_ssid")
			if err != nil {
				return err
			}
			err = s.store.Retry(ctx, "copy views", func() error {
				return s.store.CopySubSheets(ctx, s.cfg.Gradecard.TemplateID, views, ssid, views, CardSheets)
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
