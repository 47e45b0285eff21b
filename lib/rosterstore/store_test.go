package rosterstore

import (
	"context"
	"sums-scraper/lib/telemetry"
	"sums-scraper/lib/util/sqliteutil"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	cleanup := telemetry.SetupForTesting("test:rosterstore")
	defer cleanup()

	sqlite, err := sqliteutil.OpenDB(Schema, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	store := NewStore(sqlite)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	joined := time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC)
	day1 := time.Date(2024, 2, 10, 9, 30, 0, 0, time.UTC)

	{
		res, err := store.Pull(ctx, 213)
		if err != nil {
			t.Fatal(err)
		}
		require.Len(t, res, 0)
	}
	{
		err := store.Push(ctx, Snapshot{
			GroupID: 213,
			Time:    day1,
			Members: []MemberRecord{
				{StudentID: "4310001", Name: "alice", Kind: "Student", Subscription: "Gold", DateJoined: joined},
				{StudentID: "4310002", Name: "bob", Kind: "Student", Subscription: "Standard", DateJoined: joined},
			},
		})
		if err != nil {
			t.Fatal(err)
		}

		// same day, should replace rather than accumulate
		err = store.Push(ctx, Snapshot{
			GroupID: 213,
			Time:    day1.Add(time.Hour * 2),
			Members: []MemberRecord{
				{StudentID: "4310001", Name: "alice", Kind: "Student", Subscription: "Gold", DateJoined: joined},
			},
		})
		if err != nil {
			t.Fatal(err)
		}

		err = store.Push(ctx, Snapshot{
			GroupID: 213,
			Time:    day1.AddDate(0, 0, 1),
			Members: []MemberRecord{
				{StudentID: "4310003", Name: "carol", Kind: "Student", Subscription: "Gold", DateJoined: joined},
			},
		})
		if err != nil {
			t.Fatal(err)
		}

		// other groups stay isolated
		err = store.Push(ctx, Snapshot{
			GroupID: 99,
			Time:    day1,
			Members: []MemberRecord{
				{StudentID: "9990001", Name: "dave", Kind: "Student", Subscription: "Standard", DateJoined: joined},
			},
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	{
		res, err := store.Pull(ctx, 213)
		if err != nil {
			t.Fatal(err)
		}
		require.Len(t, res, 2)

		require.Len(t, res[0].Members, 1)
		require.Equal(t, "alice", res[0].Members[0].Name)
		require.Equal(t, joined, res[0].Members[0].DateJoined)

		require.Len(t, res[1].Members, 1)
		require.Equal(t, "carol", res[1].Members[0].Name)
	}
}
