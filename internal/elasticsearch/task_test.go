package elasticsearch_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanLimbu/tasksync/internal"
	"github.com/sanLimbu/tasksync/internal/elasticsearch"
)

type fakeTransport struct {
	status int
	reqs   []*http.Request
	bodies []string
}

func (f *fakeTransport) Perform(req *http.Request) (*http.Response, error) {
	var body string

	if req.Body != nil {
		b, _ := io.ReadAll(req.Body)
		body = string(b)
	}

	f.reqs = append(f.reqs, req)
	f.bodies = append(f.bodies, body)

	return &http.Response{
		StatusCode: f.status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(`{}`)),
	}, nil
}

func TestTask_Index(t *testing.T) {
	t.Parallel()

	transport := &fakeTransport{status: http.StatusCreated}
	due := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	err := elasticsearch.NewTask(transport).Index(context.Background(), internal.Task{
		ID:          12,
		Description: "index me",
		Priority:    internal.PriorityLow,
		DueDate:     &due,
	})
	require.NoError(t, err)
	require.Len(t, transport.reqs, 1)

	assert.Equal(t, http.MethodPut, transport.reqs[0].Method)
	assert.Equal(t, "/tasks/_doc/12", transport.reqs[0].URL.Path)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(transport.bodies[0]), &doc))
	assert.Equal(t, "low", doc["priority"])
	assert.Equal(t, "index me", doc["description"])
	assert.Equal(t, float64(12), doc["id"])
	assert.NotNil(t, doc["due_date"])
}

func TestTask_Index_Error(t *testing.T) {
	t.Parallel()

	err := elasticsearch.NewTask(&fakeTransport{status: http.StatusBadRequest}).
		Index(context.Background(), internal.Task{ID: 1, Description: "x"})
	assert.Error(t, err)
}

func TestTask_Delete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		fails  bool
	}{
		{"deleted", http.StatusOK, false},
		{"never indexed", http.StatusNotFound, false},
		{"server error", http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			transport := &fakeTransport{status: tt.status}

			err := elasticsearch.NewTask(transport).Delete(context.Background(), 3)
			if tt.fails {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			require.Len(t, transport.reqs, 1)
			assert.Equal(t, http.MethodDelete, transport.reqs[0].Method)
			assert.Equal(t, "/tasks/_doc/3", transport.reqs[0].URL.Path)
		})
	}
}
