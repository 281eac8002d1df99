// Package gradescope is a read-only client for the grading service: list the
// assignments of a course and fetch every graded submission's evaluation for
// one assignment. There is no official SDK, so this speaks the JSON endpoints
// directly.
package gradescope

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrAssignmentNotFound indicates no assignment with the requested name
// exists in the course.
var ErrAssignmentNotFound = errors.New("no assignment found")

// Assignment is one course assignment.
type Assignment struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Published bool   `json:"published"`
}

// QuestionEvaluation is the grading of a single free-text question label.
type QuestionEvaluation struct {
	Score       float64         `json:"score"`
	Comment     string          `json:"comment"`
	RubricItems map[string]bool `json:"rubric_items"`
}

// Evaluation is one submitter's graded submission.
type Evaluation struct {
	Email          string                        `json:"email"`
	Status         string                        `json:"status"`
	SubmissionTime string                        `json:"submission_time"`
	TotalScore     float64                       `json:"total_score"`
	Questions      map[string]QuestionEvaluation `json:"questions"`
}

// StatusGraded marks evaluations that have completed grading; everything
// else is skipped by the sync.
const StatusGraded = "Graded"

// Client fetches assignments and evaluations for one course.
type Client struct {
	baseURL    string
	courseID   string
	token      string
	httpClient *http.Client
	log        *zap.Logger

	mu          sync.Mutex
	assignments []Assignment // cached after first fetch
}

// NewClient creates a Gradescope client for one course.
func NewClient(baseURL, courseID, token string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL:  baseURL,
		courseID: courseID,
		token:    token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Assignments returns the course's assignments, cached after the first call.
func (c *Client) Assignments(ctx context.Context) ([]Assignment, error) {
	c.mu.Lock()
	cached := c.assignments
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	var out []Assignment
	url := fmt.Sprintf("%s/api/v1/courses/%s/assignments", c.baseURL, c.courseID)
	if err := c.getJSON(ctx, url, &out); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.assignments = out
	c.mu.Unlock()
	return out, nil
}

// AssignmentByName finds the assignment with an exact name match.
func (c *Client) AssignmentByName(ctx context.Context, name string) (Assignment, error) {
	assignments, err := c.Assignments(ctx)
	if err != nil {
		return Assignment{}, err
	}
	for _, a := range assignments {
		if a.Name == name {
			return a, nil
		}
	}
	return Assignment{}, fmt.Errorf("%w: %q", ErrAssignmentNotFound, name)
}

// Evaluations fetches every submission evaluation for an assignment.
func (c *Client) Evaluations(ctx context.Context, assignmentID string) ([]Evaluation, error) {
	var out []Evaluation
	url := fmt.Sprintf("%s/api/v1/courses/%s/assignments/%s/evaluations", c.baseURL, c.courseID, assignmentID)
	if err := c.getJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	// Apply the client timeout when the caller's context has no deadline.
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	c.log.Debug("gradescope request", zap.String("url", url))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gradescope request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read gradescope response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gradescope returned %d: %s", resp.StatusCode, truncateBody(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode gradescope response: %w", err)
	}
	return nil
}

func truncateBody(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}
