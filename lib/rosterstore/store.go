// Package rosterstore keeps historical snapshots of scraped group
// rosters in sqlite. Pushing a snapshot for a group replaces any
// snapshot taken earlier the same day, so a rerun of the scraper
// doesn't pile up near-identical rosters.
package rosterstore

import (
	"context"
	"database/sql"
	"time"

	_ "embed"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

const dateLayout = "2006-01-02"

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

type MemberRecord struct {
	StudentID    string
	Name         string
	Kind         string
	Subscription string
	DateJoined   time.Time
}

type Snapshot struct {
	GroupID uint16
	Time    time.Time
	Members []MemberRecord
}

func (s Store) Push(ctx context.Context, snap Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	startOfDay := time.Date(
		snap.Time.Year(), snap.Time.Month(), snap.Time.Day(),
		0, 0, 0, 0, snap.Time.Location(),
	)
	startOfTomorrow := startOfDay.AddDate(0, 0, 1)

	_, err = tx.ExecContext(ctx, `
		DELETE FROM roster_member WHERE snapshot_id IN (
			SELECT id FROM roster_snapshot
			WHERE group_id = ? AND time >= ? AND time < ?
		)`,
		snap.GroupID, startOfDay.Unix(), startOfTomorrow.Unix(),
	)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
		DELETE FROM roster_snapshot
		WHERE group_id = ? AND time >= ? AND time < ?`,
		snap.GroupID, startOfDay.Unix(), startOfTomorrow.Unix(),
	)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO roster_snapshot (group_id, time) VALUES (?, ?)`,
		snap.GroupID, snap.Time.Unix(),
	)
	if err != nil {
		return err
	}
	snapshotId, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for i, m := range snap.Members {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO roster_member
				(snapshot_id, position, student_id, name, kind, subscription, date_joined)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			snapshotId, i, m.StudentID, m.Name, m.Kind, m.Subscription,
			m.DateJoined.Format(dateLayout),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Pull returns every snapshot stored for the group, oldest first,
// members in the order the page rendered them.
func (s Store) Pull(ctx context.Context, groupId uint16) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, time FROM roster_snapshot
		WHERE group_id = ? ORDER BY time ASC`,
		groupId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type snapshotHead struct {
		id   int64
		time int64
	}
	var heads []snapshotHead
	for rows.Next() {
		var h snapshotHead
		err = rows.Scan(&h.id, &h.time)
		if err != nil {
			return nil, err
		}
		heads = append(heads, h)
	}
	err = rows.Err()
	if err != nil {
		return nil, err
	}

	var snapshots []Snapshot
	for _, h := range heads {
		members, err := s.pullMembers(ctx, h.id)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, Snapshot{
			GroupID: groupId,
			Time:    time.Unix(h.time, 0),
			Members: members,
		})
	}
	return snapshots, nil
}

func (s Store) pullMembers(ctx context.Context, snapshotId int64) ([]MemberRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT student_id, name, kind, subscription, date_joined
		FROM roster_member
		WHERE snapshot_id = ? ORDER BY position ASC`,
		snapshotId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []MemberRecord
	for rows.Next() {
		var m MemberRecord
		var dateJoined string
		err = rows.Scan(&m.StudentID, &m.Name, &m.Kind, &m.Subscription, &dateJoined)
		if err != nil {
			return nil, err
		}
		m.DateJoined, err = time.Parse(dateLayout, dateJoined)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}
