package gradecard

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/j1mk1m/gradecard-cmu-15251-s23/internal/gradescope"
	"github.com/j1mk1m/gradecard-cmu-15251-s23/internal/hwconfig"
)

// ErrNoMatchingQuestion indicates a configured question name matched none of
// the free-text question labels on the grading service. Fatal for that
// configuration only.
var ErrNoMatchingQuestion = errors.New("no matching question found")

// Source is the grading service, satisfied by *gradescope.Client.
type Source interface {
	AssignmentByName(ctx context.Context, name string) (gradescope.Assignment, error)
	Evaluations(ctx context.Context, assignmentID string) ([]gradescope.Evaluation, error)
}

// Confirmer asks the operator whether to pull an unpublished assignment.
// Headless runs answer yes without asking.
type Confirmer func(assignmentName string) (bool, error)

// Importer pulls Gradescope evaluations for one assignment configuration,
// merges them with the linked CYU scores and uploads the combined table into
// the gradecard spreadsheet.
type Importer struct {
	source  Source
	service *Service
	confirm Confirmer
	log     *zap.Logger
}

// NewImporter builds the importer on an evaluation source and the gradecard
// service used for the upload.
func NewImporter(source Source, service *Service, confirm Confirmer, log *zap.Logger) *Importer {
	return &Importer{source: source, service: service, confirm: confirm, log: log}
}

// questionResult aggregates one configured question across its matched
// labels for a single submission.
type questionResult struct {
	Score    float64
	TA       string
	Comments string
	Name     string
	Star     bool
}

// evaluationResult is one submitter's merged assignment data.
type evaluationResult struct {
	SubmissionTime string
	Questions      []*questionResult // nil at config gaps
}

// LoadFromConfig runs the full pipeline for one descriptor path. Failures
// local to this configuration (malformed descriptor, missing assignment,
// unmatched question, fetch errors) are logged and degrade to empty data;
// they never abort the batch.
func (im *Importer) LoadFromConfig(ctx context.Context, path string) error {
	cfg, err := hwconfig.Load(path)
	if err != nil {
		im.log.Error("config is malformed", zap.String("config", path), zap.Error(err))
		return nil
	}

	im.log.Info("fetching data", zap.String("config", cfg.Name))
	assignmentData, err := im.assignmentEvaluations(ctx, cfg)
	if err != nil {
		assignmentData = nil
		im.log.Error("fetching data failed", zap.String("config", cfg.Name), zap.Error(err))
	}

	cyuData := map[string]float64{}
	if cfg.CYU != "" {
		im.log.Info("fetching CYU data", zap.String("config", cfg.Name))
		cyuData, err = im.cyuEvaluations(ctx, cfg)
		if err != nil {
			cyuData = map[string]float64{}
			im.log.Error("fetching CYU data failed", zap.String("config", cfg.Name), zap.Error(err))
		}
	}

	im.log.Info("generating merged table", zap.String("config", cfg.Name))
	rows := combine(assignmentData, cfg.NumQuestions, cyuData)
	data, err := encodeRows(rows, cfg.NumQuestions)
	if err != nil {
		return err
	}

	return im.service.UploadAssignmentData(ctx, data, cfg.GSheetName)
}

// assignmentEvaluations fetches and merges the assignment's graded
// submissions, keyed by submitter email.
func (im *Importer) assignmentEvaluations(ctx context.Context, cfg *hwconfig.Config) (map[string]evaluationResult, error) {
	assignment, err := im.source.AssignmentByName(ctx, cfg.Name)
	if err != nil {
		return nil, err
	}

	ok, err := im.confirmPublished(assignment)
	if err != nil {
		return nil, err
	}
	if !ok {
		return map[string]evaluationResult{}, nil
	}

	evals, err := im.source.Evaluations(ctx, assignment.ID)
	if err != nil {
		return nil, err
	}
	if len(evals) == 0 {
		return map[string]evaluationResult{}, nil
	}

	// Resolve configured question names against the free-text labels of the
	// first evaluation; all submissions of one assignment share the label set.
	labels := sortedKeys(evals[0].Questions)
	labelsFor := make(map[string][]string)
	for _, q := range cfg.Questions {
		if q == nil {
			continue
		}
		names := []string{q.Name}
		if q.StarName != "" {
			names = append(names, q.StarName)
		}
		for _, name := range names {
			matched, err := matchLabels(name, labels)
			if err != nil {
				return nil, err
			}
			labelsFor[name] = matched
		}
	}

	out := make(map[string]evaluationResult)
	for _, eval := range evals {
		if eval.Status != gradescope.StatusGraded {
			continue
		}

		result := evaluationResult{SubmissionTime: eval.SubmissionTime}
		for _, qcfg := range cfg.Questions {
			if qcfg == nil {
				result.Questions = append(result.Questions, nil)
				continue
			}

			data := questionData(labelsFor[qcfg.Name], eval.Questions)

			star := false
			if data.Score < starThreshold && qcfg.StarName != "" {
				starData := questionData(labelsFor[qcfg.StarName], eval.Questions)
				if starData.Score >= starThreshold {
					star = true
					data = starData
				}
			}

			data.Star = star
			data.Name = qcfg.Name
			if star {
				data.Name = qcfg.StarName
			}
			result.Questions = append(result.Questions, &data)
		}

		out[eval.Email] = result
	}

	return out, nil
}

// cyuEvaluations fetches the linked check-your-understanding assignment as a
// single rounded score per submitter email.
func (im *Importer) cyuEvaluations(ctx context.Context, cfg *hwconfig.Config) (map[string]float64, error) {
	assignment, err := im.source.AssignmentByName(ctx, cfg.CYU)
	if err != nil {
		return nil, err
	}

	ok, err := im.confirmPublished(assignment)
	if err != nil {
		return nil, err
	}
	if !ok {
		return map[string]float64{}, nil
	}

	evals, err := im.source.Evaluations(ctx, assignment.ID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64)
	for _, eval := range evals {
		if eval.Status != gradescope.StatusGraded {
			continue
		}
		out[eval.Email] = roundHundredths(eval.TotalScore)
	}
	return out, nil
}

func (im *Importer) confirmPublished(assignment gradescope.Assignment) (bool, error) {
	if assignment.Published {
		return true, nil
	}
	ok, err := im.confirm(assignment.Name)
	if err != nil {
		return false, err
	}
	if !ok {
		im.log.Info("skipping unpublished assignment", zap.String("assignment", assignment.Name))
	}
	return ok, nil
}

// matchLabels finds every label whose text between the first ":" and the
// first "(" starts with the configured question name.
func matchLabels(question string, labels []string) ([]string, error) {
	var matched []string
	for _, label := range labels {
		colon := strings.Index(label, ":")
		paren := strings.Index(label, "(")
		if colon < 0 || paren < 0 {
			continue
		}
		var mid string
		if paren > colon {
			mid = label[colon+1 : paren]
		}
		if strings.HasPrefix(strings.TrimSpace(mid), question) {
			matched = append(matched, label)
		}
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoMatchingQuestion, question)
	}
	return matched, nil
}

// questionData sums the rounded scores of all matched labels and joins the
// grader initials and comments with ";". Labels absent from a submission
// contribute nothing.
func questionData(labels []string, questions map[string]gradescope.QuestionEvaluation) questionResult {
	var score float64
	var tas, comments []string
	for _, label := range labels {
		q := questions[label]
		score += roundHundredths(q.Score)
		if ta := graderInitials(q.RubricItems); ta != "" {
			tas = append(tas, ta)
		}
		comments = append(comments, q.Comment)
	}
	return questionResult{
		Score:    score,
		TA:       strings.Join(tas, ";"),
		Comments: strings.Join(comments, ";"),
	}
}

// graderInitials extracts the two characters after "(" from the first
// checked rubric item whose key starts with "Grader".
func graderInitials(rubric map[string]bool) string {
	for _, key := range sortedBoolKeys(rubric) {
		if !strings.HasPrefix(key, "Grader") || !rubric[key] {
			continue
		}
		paren := strings.Index(key, "(")
		if paren < 0 {
			continue
		}
		end := paren + 3
		if end > len(key) {
			end = len(key)
		}
		return key[paren+1 : end]
	}
	return ""
}

// combine unions the identities of the assignment and CYU data into sparse
// field maps, one per submitter. The Andrew ID is the email's local part.
// Identities present in only one source still produce a row; the other
// source's fields stay absent and serialize as empty cells.
func combine(assignment map[string]evaluationResult, numQuestions int, cyu map[string]float64) []map[string]string {
	emails := make(map[string]bool)
	for email := range assignment {
		emails[email] = true
	}
	for email := range cyu {
		emails[email] = true
	}

	ordered := make([]string, 0, len(emails))
	for email := range emails {
		ordered = append(ordered, email)
	}
	sort.Strings(ordered)

	var rows []map[string]string
	for _, email := range ordered {
		current := map[string]string{
			"Andrew ID": strings.SplitN(email, "@", 2)[0],
		}

		if eval, ok := assignment[email]; ok {
			current["Submission Time"] = eval.SubmissionTime
			for q := 0; q < numQuestions && q < len(eval.Questions); q++ {
				qr := eval.Questions[q]
				if qr == nil {
					continue
				}
				current[fmt.Sprintf("Problem %d Score", q+1)] = formatScore(qr.Score)
				current[fmt.Sprintf("Problem %d TA", q+1)] = qr.TA
				current[fmt.Sprintf("Problem %d Name", q+1)] = qr.Name
				current[fmt.Sprintf("Problem %d ⭐", q+1)] = strconv.FormatBool(qr.Star)
				current[fmt.Sprintf("Problem %d Comments", q+1)] = qr.Comments
			}
		}

		if score, ok := cyu[email]; ok {
			current["CYU Quiz Score"] = formatScore(score)
		}

		rows = append(rows, current)
	}

	return rows
}

// fieldnames is the fixed per-configuration column schema of the uploaded
// table: identity, submission time, CYU score, then five columns per
// configured question index.
func fieldnames(numQuestions int) []string {
	fields := []string{"Andrew ID", "Submission Time", "CYU Quiz Score"}
	for i := 1; i <= numQuestions; i++ {
		fields = append(fields,
			fmt.Sprintf("Problem %d Score", i),
			fmt.Sprintf("Problem %d TA", i),
			fmt.Sprintf("Problem %d Name", i),
			fmt.Sprintf("Problem %d ⭐", i),
			fmt.Sprintf("Problem %d Comments", i),
		)
	}
	return fields
}

// encodeRows serializes the sparse field maps through CSV and parses them
// back into flat rows, header included. The round trip normalizes missing
// fields into empty cells and is what fixes the positional column layout of
// the uploaded sheet.
func encodeRows(rows []map[string]string, numQuestions int) ([][]string, error) {
	fields := fieldnames(numQuestions)

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(fields); err != nil {
		return nil, err
	}
	line := make([]string, len(fields))
	for _, row := range rows {
		for i, f := range fields {
			line[i] = row[f]
		}
		if err := w.Write(line); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	r := csv.NewReader(bytes.NewReader(buf.Bytes()))
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// UploadAssignmentData replaces the named sub-sheet's content with the
// merged table, creating the sub-sheet if needed.
func (s *Service) UploadAssignmentData(ctx context.Context, rows [][]string, sheetName string) error {
	s.log.Info("uploading data to gradecard", zap.String("sheet", sheetName))

	created, err := s.ensureSubSheet(ctx, sheetName, nil)
	if err != nil {
		return err
	}
	if !created {
		err := s.store.SetRange(ctx, s.cfg.Gradecard.SpreadsheetID, sheetName+"!A1:NP", [][]string{{}}, true)
		if err != nil {
			return err
		}
	}

	return s.store.SetRange(ctx, s.cfg.Gradecard.SpreadsheetID, sheetName+"!A1", rows, true)
}

func roundHundredths(v float64) float64 {
	return math.Round(v*100) / 100
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func sortedKeys(m map[string]gradescope.QuestionEvaluation) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedBoolKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
