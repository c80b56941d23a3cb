package booking_test

import (
    "context"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/cinelive/reservation-engine/internal/booking"
    "github.com/cinelive/reservation-engine/internal/model"
    "github.com/cinelive/reservation-engine/internal/repository"
)

type fakeSeatLister struct{ seats []model.Seat }

func (f *fakeSeatLister) ListByHall(_ context.Context, _ uint64) ([]model.Seat, error) {
    return f.seats, nil
}

type fakeBookedSource struct{ ids []uint64 }

func (f *fakeBookedSource) BookedSeatIDs(_ context.Context, _ uint64) ([]uint64, error) {
    return f.ids, nil
}

func TestSnapshotJoinsBookedAndHeld(t *testing.T) {
    holds := newFakeHolds()
    holds.grant(1, 11, 42)
    holds.grant(1, 12, 7)

    svc := booking.NewStatusService(
        &fakeShowtimes{st: &model.Showtime{ID: 1, HallID: 5}},
        &fakeSeatLister{seats: []model.Seat{
            {ID: 10, RowLabel: "A", SeatNumber: 1, SeatType: "STANDARD"},
            {ID: 11, RowLabel: "A", SeatNumber: 2, SeatType: "STANDARD"},
            {ID: 12, RowLabel: "A", SeatNumber: 3, SeatType: "VIP"},
        }},
        &fakeBookedSource{ids: []uint64{10}},
        holds,
    )

    seats, err := svc.Snapshot(context.Background(), 1)
    require.NoError(t, err)
    require.Len(t, seats, 3)

    byID := make(map[uint64]model.SeatStatus, len(seats))
    for _, s := range seats {
        byID[s.SeatID] = s
    }

    assert.Equal(t, model.SeatBooked, byID[10].Status)
    assert.Nil(t, byID[10].HolderID)

    assert.Equal(t, model.SeatHeld, byID[11].Status)
    require.NotNil(t, byID[11].HolderID)
    assert.Equal(t, uint64(42), *byID[11].HolderID)

    assert.Equal(t, model.SeatHeld, byID[12].Status)
    require.NotNil(t, byID[12].HolderID)
    assert.Equal(t, uint64(7), *byID[12].HolderID)
}

func TestSnapshotBookedWinsOverHold(t *testing.T) {
    holds := newFakeHolds()
    holds.grant(1, 10, 42) // stale hold on a seat that is already booked

    svc := booking.NewStatusService(
        &fakeShowtimes{st: &model.Showtime{ID: 1, HallID: 5}},
        &fakeSeatLister{seats: []model.Seat{{ID: 10, RowLabel: "A", SeatNumber: 1}}},
        &fakeBookedSource{ids: []uint64{10}},
        holds,
    )

    seats, err := svc.Snapshot(context.Background(), 1)
    require.NoError(t, err)
    require.Len(t, seats, 1)
    assert.Equal(t, model.SeatBooked, seats[0].Status, "the durable ticket is the stronger claim")
    assert.Nil(t, seats[0].HolderID)
}

func TestSnapshotAllAvailable(t *testing.T) {
    svc := booking.NewStatusService(
        &fakeShowtimes{st: &model.Showtime{ID: 1, HallID: 5}},
        &fakeSeatLister{seats: []model.Seat{
            {ID: 10, RowLabel: "A", SeatNumber: 1},
            {ID: 11, RowLabel: "A", SeatNumber: 2},
        }},
        &fakeBookedSource{},
        newFakeHolds(),
    )

    seats, err := svc.Snapshot(context.Background(), 1)
    require.NoError(t, err)
    for _, s := range seats {
        assert.Equal(t, model.SeatAvailable, s.Status)
    }
}

func TestSnapshotUnknownShowtime(t *testing.T) {
    svc := booking.NewStatusService(
        &fakeShowtimes{},
        &fakeSeatLister{},
        &fakeBookedSource{},
        newFakeHolds(),
    )

    _, err := svc.Snapshot(context.Background(), 9)
    assert.ErrorIs(t, err, repository.ErrShowtimeNotFound)
}
