package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/neuromat/amparo/internal/model"
	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection.
type DB struct {
	conn *sql.DB
}

// Ensure DB implements Store interface.
var _ Store = (*DB)(nil)

// New opens or creates an SQLite database at the given path.
func New(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Enable WAL mode for better concurrency.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// DatabaseType returns the database backend name.
func (db *DB) DatabaseType() string {
	return "SQLite"
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'pending',
		nome TEXT NOT NULL,
		telefone TEXT DEFAULT '',
		user_type TEXT DEFAULT '',
		instituicao TEXT DEFAULT '',
		area_pesquisa TEXT DEFAULT '',
		lattes TEXT DEFAULT '',
		tipo_vinculo TEXT DEFAULT '',
		created_at DATETIME NOT NULL,
		approved_at DATETIME,
		approved_by INTEGER
	);
	CREATE TABLE IF NOT EXISTS palestras (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		slug TEXT DEFAULT '',
		speaker TEXT DEFAULT '',
		moderator TEXT DEFAULT '',
		image TEXT DEFAULT '',
		publish INTEGER DEFAULT 1,
		banner INTEGER DEFAULT 0,
		title TEXT NOT NULL,
		date_time DATETIME,
		resume_speaker TEXT DEFAULT '',
		affiliation TEXT DEFAULT '',
		body TEXT DEFAULT '',
		subcategory TEXT DEFAULT 'palestras'
	);
	CREATE TABLE IF NOT EXISTS palestra_videos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		palestra_id INTEGER NOT NULL REFERENCES palestras(id) ON DELETE CASCADE,
		video TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS exercicios (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mockup INTEGER DEFAULT 0,
		title TEXT NOT NULL,
		description TEXT DEFAULT '',
		instructor TEXT DEFAULT '',
		duration_minutes INTEGER,
		difficulty_level TEXT DEFAULT '',
		category TEXT DEFAULT '',
		subcategory TEXT DEFAULT '',
		video_url TEXT DEFAULT '',
		thumbnail TEXT DEFAULT '',
		published_date DATETIME,
		tags TEXT DEFAULT '[]',
		equipment_needed TEXT DEFAULT '[]',
		body TEXT DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS estudos (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mockup INTEGER DEFAULT 0,
		title TEXT NOT NULL,
		description TEXT DEFAULT '',
		author TEXT DEFAULT '',
		content_type TEXT DEFAULT 'html',
		published_date DATETIME,
		category TEXT DEFAULT '',
		tags TEXT DEFAULT '[]',
		body TEXT DEFAULT '',
		external_link TEXT DEFAULT '',
		pdf_file TEXT DEFAULT '',
		reading_time_minutes INTEGER
	);
	CREATE TABLE IF NOT EXISTS cartilhas (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		blog_post_id INTEGER DEFAULT 0,
		title TEXT NOT NULL,
		description TEXT DEFAULT '',
		pdf_file TEXT DEFAULT '',
		published_date DATETIME,
		speaker TEXT DEFAULT '',
		affiliation TEXT DEFAULT '',
		resume_speaker TEXT DEFAULT ''
	);
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		slug TEXT NOT NULL UNIQUE,
		home_page INTEGER DEFAULT 0,
		enabled INTEGER DEFAULT 1,
		title TEXT DEFAULT '',
		summary TEXT DEFAULT '',
		body TEXT DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_palestras_subcategory ON palestras(subcategory);
	CREATE INDEX IF NOT EXISTS idx_palestra_videos_palestra_id ON palestra_videos(palestra_id);
	CREATE INDEX IF NOT EXISTS idx_exercicios_subcategory ON exercicios(subcategory);
	CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// --- User Methods ---

const userColumns = `id, username, email, password, role, nome, telefone, user_type,
	instituicao, area_pesquisa, lattes, tipo_vinculo, created_at, approved_at, approved_by`

// CreateUser inserts a new account. Returns the ID.
func (db *DB) CreateUser(u *model.User) (int64, error) {
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	res, err := db.conn.Exec(`
		INSERT INTO users (username, email, password, role, nome, telefone, user_type,
			instituicao, area_pesquisa, lattes, tipo_vinculo, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, string(u.Role), u.Nome, u.Telefone, u.UserType,
		u.Instituicao, u.AreaPesquisa, u.Lattes, u.TipoVinculo, createdAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetUserByID retrieves an account by ID.
func (db *DB) GetUserByID(id int64) (*model.User, error) {
	return db.getUser("SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

// GetUserByUsername retrieves an account by username.
func (db *DB) GetUserByUsername(username string) (*model.User, error) {
	return db.getUser("SELECT "+userColumns+" FROM users WHERE username = ?", username)
}

// GetUserByEmail retrieves an account by email.
func (db *DB) GetUserByEmail(email string) (*model.User, error) {
	return db.getUser("SELECT "+userColumns+" FROM users WHERE email = ?", email)
}

func (db *DB) getUser(query string, arg interface{}) (*model.User, error) {
	row := db.conn.QueryRow(query, arg)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	var role string
	var approvedAt sql.NullTime
	var approvedBy sql.NullInt64
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.Nome,
		&u.Telefone, &u.UserType, &u.Instituicao, &u.AreaPesquisa, &u.Lattes,
		&u.TipoVinculo, &u.CreatedAt, &approvedAt, &approvedBy)
	if err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	if approvedAt.Valid {
		u.ApprovedAt = &approvedAt.Time
	}
	if approvedBy.Valid {
		u.ApprovedBy = &approvedBy.Int64
	}
	return &u, nil
}

// PendingUsers returns every account still awaiting approval.
func (db *DB) PendingUsers() ([]model.User, error) {
	rows, err := db.conn.Query("SELECT "+userColumns+" FROM users WHERE role = ? ORDER BY created_at", string(model.RolePending))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// ApproveUser promotes a pending account to the given role with a fresh
// password hash. Returns false when the user is missing or already approved.
func (db *DB) ApproveUser(userID int64, role model.Role, passwordHash string, approvedBy int64) (bool, error) {
	res, err := db.conn.Exec(`
		UPDATE users SET role = ?, password = ?, approved_at = ?, approved_by = ?
		WHERE id = ? AND role = ?`,
		string(role), passwordHash, time.Now(), approvedBy, userID, string(model.RolePending))
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

// DeleteUser removes an account.
func (db *DB) DeleteUser(userID int64) error {
	_, err := db.conn.Exec("DELETE FROM users WHERE id = ?", userID)
	return err
}

// CountUsersByType groups accounts by their user_type.
func (db *DB) CountUsersByType() (map[string]int, error) {
	rows, err := db.conn.Query("SELECT user_type, COUNT(*) FROM users GROUP BY user_type")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var t string
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[t] = n
	}
	return counts, rows.Err()
}

// --- Pages and aggregates ---

// GetPages returns all static pages.
func (db *DB) GetPages() ([]model.Page, error) {
	rows, err := db.conn.Query("SELECT id, slug, home_page, enabled, title, summary, body FROM pages")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var pages []model.Page
	for rows.Next() {
		var p model.Page
		if err := rows.Scan(&p.ID, &p.Slug, &p.HomePage, &p.Enabled, &p.Title, &p.Summary, &p.Body); err != nil {
			return nil, err
		}
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// Stats returns the dashboard counters. withUserTypes also fills the
// per-type user breakdown.
func (db *DB) Stats(withUserTypes bool) (*model.Stats, error) {
	s := &model.Stats{}
	counters := []struct {
		query string
		dst   *int
	}{
		{"SELECT COUNT(*) FROM users", &s.TotalUsuarios},
		{"SELECT COUNT(*) FROM palestras", &s.TotalPalestras},
		{"SELECT COUNT(*) FROM palestra_videos", &s.TotalVideos},
		{"SELECT COUNT(*) FROM exercicios", &s.TotalExercicios},
		{"SELECT COUNT(*) FROM estudos", &s.TotalEstudos},
		{"SELECT COUNT(*) FROM cartilhas", &s.TotalCartilhas},
	}
	for _, c := range counters {
		if err := db.conn.QueryRow(c.query).Scan(c.dst); err != nil {
			return nil, err
		}
	}
	s.TotalConteudos = s.TotalPalestras + s.TotalExercicios + s.TotalEstudos + s.TotalCartilhas
	if withUserTypes {
		types, err := db.CountUsersByType()
		if err != nil {
			return nil, err
		}
		s.UsuariosPorTipo = types
	}
	return s, nil
}

// LatestVideos merges the video entries of every content kind, newest
// first. Unpublished palestras and mockup rows are skipped.
func (db *DB) LatestVideos(limit int) ([]model.LatestVideo, error) {
	if limit <= 0 {
		limit = 6
	}
	var videos []model.LatestVideo

	rows, err := db.conn.Query(`
		SELECT p.id, p.title, p.speaker, p.date_time, v.video
		FROM palestras p
		JOIN palestra_videos v ON v.palestra_id = p.id
		WHERE p.publish = 1
		ORDER BY p.date_time DESC`)
	if err != nil {
		return nil, err
	}
	videos, err = appendVideoRows(videos, rows, "palestras")
	if err != nil {
		return nil, err
	}

	rows, err = db.conn.Query(`
		SELECT id, title, instructor, published_date, video_url
		FROM exercicios
		WHERE mockup = 0 AND video_url != ''
		ORDER BY published_date DESC`)
	if err != nil {
		return nil, err
	}
	videos, err = appendVideoRows(videos, rows, "exercicios")
	if err != nil {
		return nil, err
	}

	rows, err = db.conn.Query(`
		SELECT id, title, author, published_date, external_link
		FROM estudos
		WHERE mockup = 0 AND content_type = 'video'
		ORDER BY published_date DESC`)
	if err != nil {
		return nil, err
	}
	videos, err = appendVideoRows(videos, rows, "estudos")
	if err != nil {
		return nil, err
	}

	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].Date > videos[j].Date
	})
	if len(videos) > limit {
		videos = videos[:limit]
	}
	return videos, nil
}

func appendVideoRows(videos []model.LatestVideo, rows *sql.Rows, source string) ([]model.LatestVideo, error) {
	defer rows.Close()
	for rows.Next() {
		var v model.LatestVideo
		var date sql.NullTime
		if err := rows.Scan(&v.ID, &v.Title, &v.Speaker, &date, &v.VideoURL); err != nil {
			return nil, err
		}
		if date.Valid {
			v.Date = date.Time.Format(time.RFC3339)
		}
		v.Source = source
		v.Link = fmt.Sprintf("/conteudos/%s/%d", source, v.ID)
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// --- Helpers shared with the content methods ---

func encodeList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, _ := json.Marshal(items)
	return string(b)
}

func decodeList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var items []string
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return []string{}
	}
	return items
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}
