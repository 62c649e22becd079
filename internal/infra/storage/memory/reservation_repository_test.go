package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/reservation"
	"staybook/internal/infra/storage/memory"
)

func pendingFixture(id string, createdAt time.Time) *reservation.Reservation {
	return &reservation.Reservation{
		ID:         reservation.ID(id),
		PropertyID: "p1",
		GuestID:    "guest-1",
		HostID:     "host-1",
		State:      reservation.StatePending,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewReservationRepository()
	res := pendingFixture("r1", time.Now().UTC())

	require.NoError(t, repo.Save(ctx, res))
	assert.Equal(t, int64(1), res.Version)

	loaded, err := repo.ByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, res.ID, loaded.ID)
	assert.Equal(t, int64(1), loaded.Version)
	assert.Empty(t, loaded.PendingEvents())

	_, err = repo.ByID(ctx, "missing")
	assert.ErrorIs(t, err, reservation.ErrNotFound)
}

func TestSaveDetectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewReservationRepository()
	res := pendingFixture("r1", time.Now().UTC())
	require.NoError(t, repo.Save(ctx, res))

	first, err := repo.ByID(ctx, "r1")
	require.NoError(t, err)
	second, err := repo.ByID(ctx, "r1")
	require.NoError(t, err)

	first.State = reservation.StateConfirmed
	require.NoError(t, repo.Save(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	second.State = reservation.StateRejected
	assert.ErrorIs(t, repo.Save(ctx, second), reservation.ErrConcurrentUpdate)

	loaded, err := repo.ByID(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, reservation.StateConfirmed, loaded.State)
}

func TestSaveUnknownWithVersion(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewReservationRepository()
	res := pendingFixture("r1", time.Now().UTC())
	res.Version = 3

	assert.ErrorIs(t, repo.Save(ctx, res), reservation.ErrNotFound)
}

func TestLists(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewReservationRepository()
	now := time.Now().UTC()

	a := pendingFixture("r1", now.Add(-48*time.Hour))
	b := pendingFixture("r2", now.Add(-1*time.Hour))
	c := pendingFixture("r3", now.Add(-30*time.Hour))
	c.GuestID = "guest-2"
	c.State = reservation.StateConfirmed
	for _, res := range []*reservation.Reservation{a, b, c} {
		require.NoError(t, repo.Save(ctx, res))
	}

	byGuest, err := repo.ListByGuest(ctx, "guest-1")
	require.NoError(t, err)
	require.Len(t, byGuest, 2)
	assert.Equal(t, reservation.ID("r2"), byGuest[0].ID, "newest first")

	byHost, err := repo.ListByHost(ctx, "host-1")
	require.NoError(t, err)
	assert.Len(t, byHost, 3)

	overdue, err := repo.ListOverduePending(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, reservation.ID("r1"), overdue[0].ID, "confirmed and recent pendings excluded")
}
