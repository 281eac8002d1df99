package gradescope

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	assignmentCalls := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/courses/c1/assignments", func(w http.ResponseWriter, r *http.Request) {
		assignmentCalls++
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		fmt.Fprint(w, `[
			{"id": "a1", "name": "Homework 1", "published": true},
			{"id": "a2", "name": "CYU 1", "published": false}
		]`)
	})
	mux.HandleFunc("/api/v1/courses/c1/assignments/a1/evaluations", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{
				"email": "ab@andrew.cmu.edu",
				"status": "Graded",
				"submission_time": "2023-02-01 10:00:00",
				"total_score": 7.5,
				"questions": {
					"1: Induction (10 points)": {
						"score": 7.5,
						"comment": "nice",
						"rubric_items": {"Grader (AB)": true}
					}
				}
			}
		]`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &assignmentCalls
}

func TestClient_Assignments_Cached(t *testing.T) {
	srv, calls := newTestServer(t)
	c := NewClient(srv.URL, "c1", "tok", time.Second, zap.NewNop())

	first, err := c.Assignments(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "Homework 1", first[0].Name)
	assert.True(t, first[0].Published)
	assert.False(t, first[1].Published)

	_, err = c.Assignments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, *calls, "second call should use the cache")
}

func TestClient_AssignmentByName(t *testing.T) {
	srv, _ := newTestServer(t)
	c := NewClient(srv.URL, "c1", "tok", time.Second, zap.NewNop())

	a, err := c.AssignmentByName(context.Background(), "CYU 1")
	require.NoError(t, err)
	assert.Equal(t, "a2", a.ID)

	_, err = c.AssignmentByName(context.Background(), "Homework 99")
	assert.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestClient_Evaluations(t *testing.T) {
	srv, _ := newTestServer(t)
	c := NewClient(srv.URL, "c1", "tok", time.Second, zap.NewNop())

	evals, err := c.Evaluations(context.Background(), "a1")
	require.NoError(t, err)
	require.Len(t, evals, 1)

	e := evals[0]
	assert.Equal(t, "ab@andrew.cmu.edu", e.Email)
	assert.Equal(t, StatusGraded, e.Status)
	assert.Equal(t, 7.5, e.TotalScore)

	q, ok := e.Questions["1: Induction (10 points)"]
	require.True(t, ok)
	assert.Equal(t, 7.5, q.Score)
	assert.True(t, q.RubricItems["Grader (AB)"])
}

func TestClient_HTTPErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no session", http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, "c1", "tok", time.Second, zap.NewNop())
	_, err := c.Assignments(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
