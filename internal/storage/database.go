package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/justyntemme/bookscout/internal/models"
)

// Database handles all database operations
type Database struct {
	db *sql.DB
}

// NewDatabase creates and initializes the SQLite database
func NewDatabase(dbPath string) (*Database, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	d := &Database{db: db}
	if err := d.migrate(); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Database) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS search_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id TEXT NOT NULL,
		genre TEXT NOT NULL,
		year TEXT NOT NULL,
		results INTEGER DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'ok',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS shelf (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		work_id TEXT NOT NULL,
		title TEXT NOT NULL,
		authors TEXT DEFAULT '',
		first_publish_year INTEGER DEFAULT 0,
		cover_url TEXT DEFAULT '',
		page_count INTEGER DEFAULT 0,
		description TEXT DEFAULT '',
		saved_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(owner_id, work_id)
	);

	CREATE INDEX IF NOT EXISTS idx_history_owner ON search_history(owner_id);
	CREATE INDEX IF NOT EXISTS idx_shelf_owner ON shelf(owner_id);
	`

	_, err := d.db.Exec(schema)
	return err
}

// CreateUser creates a new user
func (d *Database) CreateUser(user *models.User) error {
	_, err := d.db.Exec(`
		INSERT INTO users (id, username, password_hash, created_at)
		VALUES (?, ?, ?, ?)`,
		user.ID, user.Username, user.PasswordHash, user.CreatedAt,
	)
	return err
}

// GetUserByID retrieves a user by ID
func (d *Database) GetUserByID(id string) (*models.User, error) {
	user := &models.User{}
	err := d.db.QueryRow(`
		SELECT id, username, password_hash, created_at
		FROM users WHERE id = ?`, id,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username
func (d *Database) GetUserByUsername(username string) (*models.User, error) {
	user := &models.User{}
	err := d.db.QueryRow(`
		SELECT id, username, password_hash, created_at
		FROM users WHERE username = ?`, username,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// UserExists checks if a username is already taken
func (d *Database) UserExists(username string) (bool, error) {
	var count int
	err := d.db.QueryRow(`
		SELECT COUNT(*) FROM users WHERE username = ?`, username,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RecordSearch appends one completed search run to the owner's history.
func (d *Database) RecordSearch(rec *models.SearchRecord) error {
	result, err := d.db.Exec(`
		INSERT INTO search_history (owner_id, genre, year, results, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.OwnerID, rec.Genre, rec.Year, rec.Results, rec.Status, rec.CreatedAt,
	)
	if err != nil {
		return err
	}

	rec.ID, err = result.LastInsertId()
	return err
}

// ListSearchHistory returns the owner's most recent searches, newest first.
func (d *Database) ListSearchHistory(ownerID string, limit int) ([]models.SearchRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.db.Query(`
		SELECT id, owner_id, genre, year, results, status, created_at
		FROM search_history
		WHERE owner_id = ?
		ORDER BY id DESC
		LIMIT ?`, ownerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.SearchRecord
	for rows.Next() {
		var rec models.SearchRecord
		err := rows.Scan(&rec.ID, &rec.OwnerID, &rec.Genre, &rec.Year,
			&rec.Results, &rec.Status, &rec.CreatedAt)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// ClearSearchHistory removes all of the owner's history entries.
func (d *Database) ClearSearchHistory(ownerID string) error {
	_, err := d.db.Exec(`DELETE FROM search_history WHERE owner_id = ?`, ownerID)
	return err
}

// SaveBook puts a book on the owner's shelf; saving the same work twice
// refreshes the stored copy.
func (d *Database) SaveBook(book *models.SavedBook) error {
	_, err := d.db.Exec(`
		INSERT INTO shelf (id, owner_id, work_id, title, authors, first_publish_year, cover_url, page_count, description, saved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, work_id) DO UPDATE SET
			title = excluded.title,
			authors = excluded.authors,
			first_publish_year = excluded.first_publish_year,
			cover_url = excluded.cover_url,
			page_count = excluded.page_count,
			description = excluded.description,
			saved_at = excluded.saved_at`,
		book.ID, book.OwnerID, book.WorkID, book.Title, book.Authors,
		book.FirstPublishYear, book.CoverURL, book.PageCount, book.Description, time.Now(),
	)
	return err
}

// ListShelf returns the owner's saved books, most recently saved first.
func (d *Database) ListShelf(ownerID string) ([]models.SavedBook, error) {
	rows, err := d.db.Query(`
		SELECT id, owner_id, work_id, title, authors, first_publish_year, cover_url, page_count, description, saved_at
		FROM shelf
		WHERE owner_id = ?
		ORDER BY saved_at DESC, id DESC`, ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []models.SavedBook
	for rows.Next() {
		var book models.SavedBook
		err := rows.Scan(&book.ID, &book.OwnerID, &book.WorkID, &book.Title, &book.Authors,
			&book.FirstPublishYear, &book.CoverURL, &book.PageCount, &book.Description, &book.SavedAt)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, nil
}

// GetSavedBook retrieves one shelf entry scoped to its owner.
func (d *Database) GetSavedBook(id, ownerID string) (*models.SavedBook, error) {
	book := &models.SavedBook{}
	err := d.db.QueryRow(`
		SELECT id, owner_id, work_id, title, authors, first_publish_year, cover_url, page_count, description, saved_at
		FROM shelf WHERE id = ? AND owner_id = ?`, id, ownerID,
	).Scan(&book.ID, &book.OwnerID, &book.WorkID, &book.Title, &book.Authors,
		&book.FirstPublishYear, &book.CoverURL, &book.PageCount, &book.Description, &book.SavedAt)
	if err != nil {
		return nil, err
	}
	return book, nil
}

// DeleteSavedBook removes a shelf entry. Returns sql.ErrNoRows when the
// owner has no such entry.
func (d *Database) DeleteSavedBook(id, ownerID string) error {
	result, err := d.db.Exec(`DELETE FROM shelf WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetSavedBookByWork finds the owner's shelf entry for a work, if any.
func (d *Database) GetSavedBookByWork(ownerID, workID string) (*models.SavedBook, error) {
	book := &models.SavedBook{}
	err := d.db.QueryRow(`
		SELECT id, owner_id, work_id, title, authors, first_publish_year, cover_url, page_count, description, saved_at
		FROM shelf WHERE owner_id = ? AND work_id = ?`, ownerID, workID,
	).Scan(&book.ID, &book.OwnerID, &book.WorkID, &book.Title, &book.Authors,
		&book.FirstPublishYear, &book.CoverURL, &book.PageCount, &book.Description, &book.SavedAt)
	if err != nil {
		return nil, err
	}
	return book, nil
}

// CountShelf returns how many books the owner has saved.
func (d *Database) CountShelf(ownerID string) (int, error) {
	var count int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM shelf WHERE owner_id = ?`, ownerID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// GetSearchStats aggregates the owner's search history.
func (d *Database) GetSearchStats(ownerID string) (*models.SearchStats, error) {
	stats := &models.SearchStats{}

	err := d.db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COUNT(DISTINCT genre)
		FROM search_history WHERE owner_id = ?`,
		models.SearchStatusOK, models.SearchStatusError, ownerID,
	).Scan(&stats.TotalSearches, &stats.OKSearches, &stats.FailedSearches, &stats.DistinctGenres)
	if err != nil {
		return nil, err
	}

	var last time.Time
	err = d.db.QueryRow(`
		SELECT created_at FROM search_history
		WHERE owner_id = ?
		ORDER BY id DESC LIMIT 1`, ownerID,
	).Scan(&last)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if err == nil {
		stats.LastSearchAt = &last
	}
	return stats, nil
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}
