package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

const (
	messageColumns = "id, external_id, sender_id, receiver_id, content, image, read, seen_at, created_at"

	// incrUnreadQuery is the one correctness-critical mutation in the ledger:
	// the count is moved at the storage layer, never read-modify-written in Go,
	// so concurrent sends to the same receiver cannot lose updates.
	incrUnreadQuery = "INSERT INTO unread_counts (account_id, sender_id, count) VALUES ($1, $2, 1) " +
		"ON CONFLICT (account_id, sender_id) DO UPDATE SET count = unread_counts.count + 1 " +
		"RETURNING count"

	decrUnreadQuery = "UPDATE unread_counts SET count = count - 1 " +
		"WHERE account_id = $1 AND sender_id = $2 RETURNING count"

	// a zero or negative counter is never persisted; absence of the row is the
	// canonical empty state
	deleteUnreadQuery = "DELETE FROM unread_counts WHERE account_id = $1 AND sender_id = $2"
)

func (db *PgDirectMessageRepository) CreateAccount(params CreateAccountParams) (User, error) {
	res := db.conn.QueryRow(
		"INSERT INTO accounts (username, email, password_hash, created_at, updated_at) "+
			"VALUES ($1, $2, $3, $4, $4) RETURNING id, username, email, created_at, updated_at",
		params.Username,
		params.EmailAddress,
		params.PasswordHash,
		time.Now().UTC(),
	)

	var u User
	err := res.Scan(
		&u.Id,
		&u.Username,
		&u.EmailAddress,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	return u, err
}

func (db *PgDirectMessageRepository) GetAccountById(accountId int) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, last_seen, created_at, updated_at FROM accounts "+
			"WHERE id = $1 LIMIT 1",
		accountId,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.Username,
		&user.EmailAddress,
		&user.LastSeen,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	return user, err
}

func (db *PgDirectMessageRepository) GetAccountByEmail(email string) (User, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, email, password_hash, last_seen, created_at, updated_at FROM accounts "+
			"WHERE email = $1 LIMIT 1",
		email,
	)

	var user User
	err := row.Scan(
		&user.Id,
		&user.Username,
		&user.EmailAddress,
		&user.PasswordHash,
		&user.LastSeen,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	return user, err
}

// ListAccounts returns every account without credentials, each with its own
// unread ledger attached.
func (db *PgDirectMessageRepository) ListAccounts() ([]User, error) {
	query := `
		SELECT
				a.id,
				a.username,
				a.email,
				a.last_seen,
				a.created_at,
				a.updated_at,
				u.sender_id,
				u.count
		FROM accounts a
		LEFT JOIN unread_counts u ON a.id = u.account_id
		ORDER BY a.id;
`

	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var users []User
	byId := make(map[int]int)
	for rows.Next() {
		var (
			user     User
			senderId sql.NullInt64
			count    sql.NullInt64
		)

		err := rows.Scan(
			&user.Id,
			&user.Username,
			&user.EmailAddress,
			&user.LastSeen,
			&user.CreatedAt,
			&user.UpdatedAt,
			&senderId,
			&count,
		)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		idx, ok := byId[user.Id]
		if !ok {
			user.UnreadFrom = make(map[int]int)
			users = append(users, user)
			idx = len(users) - 1
			byId[user.Id] = idx
		}

		if senderId.Valid && count.Valid {
			users[idx].UnreadFrom[int(senderId.Int64)] = int(count.Int64)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return users, nil
}

func (db *PgDirectMessageRepository) UpdateLastSeen(accountId int, lastSeen time.Time) error {
	_, err := db.conn.Exec(
		"UPDATE accounts SET last_seen = $2 WHERE id = $1",
		accountId,
		lastSeen,
	)

	return err
}

func (db *PgDirectMessageRepository) CreateMessage(params CreateMessageParams) (Message, error) {
	res := db.conn.QueryRow(
		"INSERT INTO messages (external_id, sender_id, receiver_id, content, image, created_at) "+
			"VALUES ($1, $2, $3, $4, $5, $6) RETURNING "+messageColumns,
		params.ExternalId,
		params.SenderId,
		params.ReceiverId,
		params.Text,
		params.Image,
		time.Now().UTC(),
	)

	return scanMessageRow(res)
}

func (db *PgDirectMessageRepository) GetConversation(accountId, otherId int) ([]Message, error) {
	rows, err := db.conn.Query(
		"SELECT "+messageColumns+" FROM messages "+
			"WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1) "+
			"ORDER BY created_at",
		accountId,
		otherId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

// ReadMessages flips the referenced messages to read in a single transaction
// and settles the unread ledger for every row it actually flipped. Messages
// already read, unknown ids and messages not addressed to receiverId are
// excluded by the WHERE clause, which is what makes a repeated batch a no-op
// rather than a double decrement. It returns the flipped messages and the
// resulting ledger value per (receiver, sender) pair.
func (db *PgDirectMessageRepository) ReadMessages(receiverId int, externalIds []string, seenAt time.Time) ([]Message, map[UnreadKey]int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	rows, err := tx.Query(
		"UPDATE messages SET read = TRUE, seen_at = $3 "+
			"WHERE external_id = ANY($2) AND receiver_id = $1 AND read = FALSE "+
			"RETURNING "+messageColumns,
		receiverId,
		pq.Array(externalIds),
		seenAt,
	)
	if err != nil {
		return nil, nil, err
	}

	messages, err := scanMessages(rows)
	rows.Close()
	if err != nil {
		return nil, nil, err
	}

	// one decrement per flipped message, not one per pair
	counts := make(map[UnreadKey]int)
	for _, msg := range messages {
		key := UnreadKey{ReceiverId: msg.ReceiverId, SenderId: msg.SenderId}

		var count int
		err = tx.QueryRow(decrUnreadQuery, key.ReceiverId, key.SenderId).Scan(&count)
		if err == sql.ErrNoRows {
			// ledger key already absent, canonical zero
			counts[key] = 0
			err = nil
			continue
		}
		if err != nil {
			return nil, nil, err
		}

		if count <= 0 {
			if _, err = tx.Exec(deleteUnreadQuery, key.ReceiverId, key.SenderId); err != nil {
				return nil, nil, err
			}
			count = 0
		}
		counts[key] = count
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, err
	}

	return messages, counts, nil
}

func (db *PgDirectMessageRepository) LatestSeenMessage(receiverId int, senderIds []int) (Message, error) {
	row := db.conn.QueryRow(
		"SELECT "+messageColumns+" FROM messages "+
			"WHERE receiver_id = $1 AND sender_id = ANY($2) AND read = TRUE AND seen_at IS NOT NULL "+
			"ORDER BY seen_at DESC LIMIT 1",
		receiverId,
		pq.Array(senderIds),
	)

	return scanMessageRow(row)
}

func (db *PgDirectMessageRepository) IncrementUnread(receiverId, senderId int) (int, error) {
	var count int
	err := db.conn.QueryRow(incrUnreadQuery, receiverId, senderId).Scan(&count)

	return count, err
}

func (db *PgDirectMessageRepository) ClearUnread(receiverId, senderId int) error {
	_, err := db.conn.Exec(deleteUnreadQuery, receiverId, senderId)

	return err
}

func (db *PgDirectMessageRepository) GetUnreadCount(receiverId, senderId int) (int, error) {
	var count int
	err := db.conn.QueryRow(
		"SELECT count FROM unread_counts WHERE account_id = $1 AND sender_id = $2 LIMIT 1",
		receiverId,
		senderId,
	).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}

	return count, err
}

func (db *PgDirectMessageRepository) GetUnreadCounts(receiverId int) (map[int]int, error) {
	rows, err := db.conn.Query(
		"SELECT sender_id, count FROM unread_counts WHERE account_id = $1",
		receiverId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var senderId, count int
		if err = rows.Scan(&senderId, &count); err != nil {
			return nil, err
		}

		counts[senderId] = count
	}

	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner, msg *Message) error {
	return row.Scan(
		&msg.Id,
		&msg.ExternalId,
		&msg.SenderId,
		&msg.ReceiverId,
		&msg.Text,
		&msg.Image,
		&msg.Read,
		&msg.SeenAt,
		&msg.CreatedAt,
	)
}

func scanMessageRow(row *sql.Row) (Message, error) {
	var msg Message
	err := scanMessage(row, &msg)

	return msg, err
}

func scanMessages(rows *sql.Rows) ([]Message, error) {
	var messages []Message
	for rows.Next() {
		var msg Message
		if err := scanMessage(rows, &msg); err != nil {
			return nil, err
		}

		messages = append(messages, msg)
	}

	return messages, rows.Err()
}
