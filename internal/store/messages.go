package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
)

// execer is satisfied by both *sql.DB and *sql.Tx
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// NextMessageID allocates the next value of the message sequence
func (s *Store) NextMessageID(ctx context.Context) (int32, error) {
	res, err := s.db.ExecContext(ctx, `INSERT INTO message_ids DEFAULT VALUES`)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate message id: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read message id: %w", err)
	}
	if id > math.MaxInt32 {
		return 0, fmt.Errorf("message sequence exhausted at %d", id)
	}
	return int32(id), nil
}

// InsertMessage stores a message outside of any change update
func (s *Store) InsertMessage(ctx context.Context, msg *Message) error {
	return insertMessage(ctx, s.db, msg)
}

func insertMessage(ctx context.Context, db execer, msg *Message) error {
	var author any
	if msg.Author != nil {
		author = *msg.Author
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO change_messages (change_id, uuid, author_id, written_on, message) VALUES (?, ?, ?, ?, ?)`,
		int(msg.ChangeID), msg.UUID, author, toMillis(msg.WrittenOn), msg.Message)
	if err != nil {
		return fmt.Errorf("failed to insert message for change %d: %w", msg.ChangeID, err)
	}
	return nil
}

// Messages returns the messages of a change, oldest first
func (s *Store) Messages(ctx context.Context, id ChangeID) ([]*Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT uuid, author_id, written_on, message FROM change_messages
		 WHERE change_id = ? ORDER BY written_on, seq`, int(id))
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var out []*Message
	for rows.Next() {
		m := &Message{ChangeID: id}
		var author sql.NullInt64
		var written int64
		if err := rows.Scan(&m.UUID, &author, &written, &m.Message); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if author.Valid {
			a := author.Int64
			m.Author = &a
		}
		m.WrittenOn = fromMillis(written)
		out = append(out, m)
	}
	return out, rows.Err()
}
