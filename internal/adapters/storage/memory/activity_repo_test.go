package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawpal/internal/domain/activity"
)

func TestActivityRepo_ListFiltersAndOrders(t *testing.T) {
	repo := NewActivityRepo()
	ctx := context.Background()

	day := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	at := day.Add(8 * time.Hour)

	entries := []activity.Entry{
		{ID: "a1", HouseholdID: "hh-1", PetID: "buddy", Action: activity.ActionCompleted, Day: day, RecordedAt: at},
		{ID: "a2", HouseholdID: "hh-1", PetID: "mochi", Action: activity.ActionCompleted, Day: day, RecordedAt: at.Add(time.Minute)},
		{ID: "a3", HouseholdID: "hh-1", PetID: "buddy", Action: activity.ActionReopened, Day: day.AddDate(0, 0, 1), RecordedAt: at.Add(2 * time.Minute)},
		{ID: "a4", HouseholdID: "hh-2", PetID: "buddy", Action: activity.ActionCompleted, Day: day, RecordedAt: at},
	}
	for _, e := range entries {
		require.NoError(t, repo.Create(ctx, e))
	}
	require.Error(t, repo.Create(ctx, activity.Entry{ID: "x"}))

	all, err := repo.ListByHousehold(ctx, "hh-1", activity.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a3", "a2", "a1"}, []string{all[0].ID, all[1].ID, all[2].ID})

	buddy, _ := repo.ListByHousehold(ctx, "hh-1", activity.ListFilter{PetID: "buddy", Actions: []activity.Action{activity.ActionCompleted}})
	require.Len(t, buddy, 1)
	assert.Equal(t, "a1", buddy[0].ID)

	to := day
	firstDay, _ := repo.ListByHousehold(ctx, "hh-1", activity.ListFilter{To: &to, Limit: 1})
	require.Len(t, firstDay, 1)
	assert.Equal(t, "a2", firstDay[0].ID)
}
