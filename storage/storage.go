package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"threadhub/post"
)

// DB is the SQLite-backed store. The default path ":memory:" keeps data for
// the lifetime of the process only.
type DB struct {
	conn *sql.DB
	// SQLite has a single writer; mu keeps read-modify-write cycles whole.
	mu sync.Mutex
}

// NewDB creates a new database connection and initializes the schema.
func NewDB(path string) (*DB, error) {
	if path == "" {
		path = ":memory:"
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// Every connection to ":memory:" would see its own empty database.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		position INTEGER NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		content_type TEXT NOT NULL,
		media TEXT NOT NULL DEFAULT '[]',
		thumbnail_url TEXT NOT NULL DEFAULT '',
		excerpt TEXT NOT NULL DEFAULT '',
		community TEXT NOT NULL,
		author TEXT NOT NULL DEFAULT '',
		author_id TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		upvotes INTEGER NOT NULL DEFAULT 0,
		downvotes INTEGER NOT NULL DEFAULT 0,
		user_vote TEXT NOT NULL DEFAULT 'none',
		saved INTEGER NOT NULL DEFAULT 0,
		is_pinned INTEGER NOT NULL DEFAULT 0,
		comment_count INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_posts_position ON posts(position);
	CREATE INDEX IF NOT EXISTS idx_posts_community ON posts(community COLLATE NOCASE);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`

	_, err := db.conn.Exec(schema)
	return err
}

const postColumns = `id, title, content, url, content_type, media, thumbnail_url, excerpt,
	community, author, author_id, created_at, upvotes, downvotes, user_vote, saved, is_pinned, comment_count`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (post.Post, error) {
	var (
		p         post.Post
		mediaJSON string
		createdAt int64
		userVote  string
	)
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Content,
		&p.URL,
		&p.ContentType,
		&mediaJSON,
		&p.ThumbnailURL,
		&p.Excerpt,
		&p.Community,
		&p.Author,
		&p.AuthorID,
		&createdAt,
		&p.Upvotes,
		&p.Downvotes,
		&userVote,
		&p.Saved,
		&p.IsPinned,
		&p.CommentCount,
	)
	if err != nil {
		return post.Post{}, err
	}

	if err := json.Unmarshal([]byte(mediaJSON), &p.Media); err != nil {
		return post.Post{}, fmt.Errorf("unmarshal media: %w", err)
	}
	if len(p.Media) == 0 {
		p.Media = nil
	}
	p.CreatedAt = time.UnixMicro(createdAt).UTC()
	p.UserVote = post.NormalizeVote(userVote)
	return p, nil
}

func mediaJSON(p post.Post) (string, error) {
	media := p.Media
	if media == nil {
		media = []post.Media{}
	}
	b, err := json.Marshal(media)
	if err != nil {
		return "", fmt.Errorf("marshal media: %w", err)
	}
	return string(b), nil
}

// List returns all posts in encounter order.
func (db *DB) List(ctx context.Context) ([]post.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts ORDER BY position ASC`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]post.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// Get retrieves a post by id.
func (db *DB) Get(ctx context.Context, id int64) (post.Post, error) {
	return getPost(ctx, db.conn, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getPost(ctx context.Context, q queryer, id int64) (post.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = ?`

	p, err := scanPost(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return post.Post{}, notFound(id)
	}
	return p, err
}

// Create inserts p with the next identifier ahead of every existing post.
func (db *DB) Create(ctx context.Context, p post.Post) (post.Post, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return post.Post{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var nextID, position int64
	// sqlite_sequence remembers deleted ids so they are never handed out twice.
	err = tx.QueryRowContext(ctx, `
		SELECT
			MAX(
				COALESCE((SELECT MAX(id) FROM posts), 0),
				COALESCE((SELECT seq FROM sqlite_sequence WHERE name = 'posts'), 0)
			) + 1,
			COALESCE((SELECT MIN(position) FROM posts), 1) - 1
	`).Scan(&nextID, &position)
	if err != nil {
		return post.Post{}, fmt.Errorf("next id: %w", err)
	}

	p.ID = nextID
	if err := insertPost(ctx, tx, p, position); err != nil {
		return post.Post{}, err
	}
	if err := tx.Commit(); err != nil {
		return post.Post{}, fmt.Errorf("commit: %w", err)
	}
	return p.Clone(), nil
}

// Import appends posts after every existing post, keeping their ids.
func (db *DB) Import(ctx context.Context, posts []post.Post) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var position int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), 0) FROM posts`).Scan(&position); err != nil {
		return fmt.Errorf("max position: %w", err)
	}

	for _, p := range posts {
		if p.ID <= 0 {
			return fmt.Errorf("%w: import requires a positive id, got %d", post.ErrInvalidArgument, p.ID)
		}
		position++
		if err := insertPost(ctx, tx, p, position); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertPost(ctx context.Context, tx *sql.Tx, p post.Post, position int64) error {
	media, err := mediaJSON(p)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO posts (id, position, title, content, url, content_type, media, thumbnail_url, excerpt,
		community, author, author_id, created_at, upvotes, downvotes, user_vote, saved, is_pinned, comment_count)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		title = excluded.title,
		content = excluded.content,
		url = excluded.url,
		content_type = excluded.content_type,
		media = excluded.media,
		thumbnail_url = excluded.thumbnail_url,
		excerpt = excluded.excerpt,
		community = excluded.community,
		author = excluded.author,
		author_id = excluded.author_id,
		created_at = excluded.created_at,
		upvotes = excluded.upvotes,
		downvotes = excluded.downvotes,
		user_vote = excluded.user_vote,
		saved = excluded.saved,
		is_pinned = excluded.is_pinned,
		comment_count = excluded.comment_count
	`

	_, err = tx.ExecContext(ctx, query,
		p.ID,
		position,
		p.Title,
		p.Content,
		p.URL,
		string(p.ContentType),
		media,
		p.ThumbnailURL,
		p.Excerpt,
		p.Community,
		p.Author,
		p.AuthorID,
		p.CreatedAt.UnixMicro(),
		p.Upvotes,
		p.Downvotes,
		string(post.NormalizeVote(string(p.UserVote))),
		p.Saved,
		p.IsPinned,
		p.CommentCount,
	)
	if err != nil {
		return fmt.Errorf("insert post %d: %w", p.ID, err)
	}
	return nil
}

// Update reads, mutates and writes back one post inside a transaction.
func (db *DB) Update(ctx context.Context, id int64, fn func(*post.Post) error) (post.Post, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return post.Post{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	p, err := getPost(ctx, tx, id)
	if err != nil {
		return post.Post{}, err
	}
	if err := fn(&p); err != nil {
		return post.Post{}, err
	}
	p.ID = id

	media, err := mediaJSON(p)
	if err != nil {
		return post.Post{}, err
	}

	query := `
	UPDATE posts SET
		title = ?, content = ?, url = ?, content_type = ?, media = ?, thumbnail_url = ?, excerpt = ?,
		community = ?, author = ?, author_id = ?, upvotes = ?, downvotes = ?, user_vote = ?,
		saved = ?, is_pinned = ?, comment_count = ?
	WHERE id = ?
	`
	_, err = tx.ExecContext(ctx, query,
		p.Title,
		p.Content,
		p.URL,
		string(p.ContentType),
		media,
		p.ThumbnailURL,
		p.Excerpt,
		p.Community,
		p.Author,
		p.AuthorID,
		p.Upvotes,
		p.Downvotes,
		string(post.NormalizeVote(string(p.UserVote))),
		p.Saved,
		p.IsPinned,
		p.CommentCount,
		id,
	)
	if err != nil {
		return post.Post{}, fmt.Errorf("update post %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return post.Post{}, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

// Delete removes a post and returns its last state.
func (db *DB) Delete(ctx context.Context, id int64) (post.Post, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return post.Post{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	p, err := getPost(ctx, tx, id)
	if err != nil {
		return post.Post{}, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id); err != nil {
		return post.Post{}, fmt.Errorf("delete post %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return post.Post{}, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

// GetSetting retrieves a setting value by key.
func (db *DB) GetSetting(ctx context.Context, key string) (string, error) {
	query := `SELECT value FROM settings WHERE key = ?`
	var value string
	err := db.conn.QueryRowContext(ctx, query, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrSettingNotFound
	}
	return value, err
}

// SetSetting stores or updates a setting.
func (db *DB) SetSetting(ctx context.Context, key, value string) error {
	query := `
	INSERT INTO settings (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	_, err := db.conn.ExecContext(ctx, query, key, value)
	return err
}
