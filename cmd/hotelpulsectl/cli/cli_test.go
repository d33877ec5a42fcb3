package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hotelpulse/hotelpulse/jobs"
)

type stubEnqueuer struct {
	warmUser    string
	warmWindows []int
	invalidated int
	closed      bool
}

func (s *stubEnqueuer) EnqueueWarmup(ctx context.Context, userID string, windows ...int) (*asynq.TaskInfo, error) {
	s.warmUser = userID
	s.warmWindows = windows
	return &asynq.TaskInfo{ID: "w1", Type: jobs.TaskDashboardWarmup, Queue: jobs.QueueDefault}, nil
}

func (s *stubEnqueuer) EnqueueInvalidate(ctx context.Context) (*asynq.TaskInfo, error) {
	s.invalidated++
	return &asynq.TaskInfo{ID: "i1", Type: jobs.TaskDashboardInvalidate, Queue: jobs.QueueDefault}, nil
}

func (s *stubEnqueuer) Close() error {
	s.closed = true
	return nil
}

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(queue string) (*asynq.QueueInfo, error) {
	return s.info, s.err
}

func (s stubInspector) ListScheduledTasks(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error) {
	return []*asynq.TaskInfo{{ID: "s1", Type: jobs.TaskDashboardWarmup}}, s.err
}

func (s stubInspector) Close() error { return nil }

func TestTriggerWarmup(t *testing.T) {
	client := &stubEnqueuer{}
	helper := NewJobsCLIWith(client, stubInspector{})

	info, err := helper.Trigger(context.Background(), jobs.TaskDashboardWarmup, WarmupRequest{UserID: "ana", Windows: []int{7, 30}})
	require.NoError(t, err)
	assert.Equal(t, "w1", info.ID)
	assert.Equal(t, "ana", client.warmUser)
	assert.Equal(t, []int{7, 30}, client.warmWindows)

	_, err = helper.Trigger(context.Background(), jobs.TaskDashboardWarmup, WarmupRequest{Windows: []int{0}})
	require.Error(t, err)

	require.NoError(t, helper.Close())
	assert.True(t, client.closed)
}

func TestTriggerInvalidateAndUnknown(t *testing.T) {
	client := &stubEnqueuer{}
	helper := NewJobsCLIWith(client, nil)

	_, err := helper.Trigger(context.Background(), jobs.TaskDashboardInvalidate, WarmupRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, client.invalidated)

	_, err = helper.Trigger(context.Background(), "dashboard:unknown", WarmupRequest{})
	require.Error(t, err)

	_, err = helper.InspectQueue()
	require.Error(t, err)
}

func TestInspectQueue(t *testing.T) {
	helper := NewJobsCLIWith(nil, stubInspector{info: &asynq.QueueInfo{Queue: jobs.QueueDefault, Pending: 3, Retry: 1}})
	stats, err := helper.InspectQueue()
	require.NoError(t, err)
	assert.Equal(t, QueueStats{Queue: jobs.QueueDefault, Pending: 3, Retry: 1}, stats)

	scheduled, err := helper.ListScheduled(0)
	require.NoError(t, err)
	require.Len(t, scheduled, 1)

	broken := NewJobsCLIWith(nil, stubInspector{err: errors.New("redis down")})
	_, err = broken.InspectQueue()
	require.Error(t, err)
}

func TestCheckTenants(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tenants.json")
	body := `{
  "hotels": [{"id": "h1", "name": "Mar"}, {"id": "h2", "name": "Sol"}, {"id": "h0", "name": "Luna"}],
  "users": [{"id": "ana", "tenantId": "t1", "hotelIds": ["h1"]}, {"id": "bob", "tenantId": "t1", "hotelIds": ["h1"]}]
}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	summary, err := CheckTenants(path)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Hotels)
	assert.Equal(t, 2, summary.Users)
	assert.Equal(t, []string{"h0", "h2"}, summary.Unassigned)

	require.NoError(t, os.WriteFile(path, []byte(`{"hotels":[],"users":[{"id":"u"}]}`), 0o600))
	_, err = CheckTenants(path)
	require.Error(t, err)
}
