package database

import (
	"database/sql"

	"github.com/neuromat/amparo/internal/model"
)

// --- Palestra Methods ---

const palestraColumns = `id, slug, speaker, moderator, image, publish, banner, title,
	date_time, resume_speaker, affiliation, body, subcategory`

// GetPalestras returns all palestras, newest first, with their videos.
// An empty subcategory means no filter; the match is exact and
// case-sensitive.
func (db *DB) GetPalestras(subcategory string) ([]model.Palestra, error) {
	query := "SELECT " + palestraColumns + " FROM palestras"
	var args []interface{}
	if subcategory != "" {
		query += " WHERE subcategory = ?"
		args = append(args, subcategory)
	}
	query += " ORDER BY date_time DESC"
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var palestras []model.Palestra
	for rows.Next() {
		p, err := scanPalestra(rows)
		if err != nil {
			return nil, err
		}
		palestras = append(palestras, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range palestras {
		videos, err := db.getPalestraVideos(palestras[i].ID)
		if err != nil {
			return nil, err
		}
		palestras[i].Videos = videos
	}
	return palestras, nil
}

// GetPalestra retrieves a palestra by ID, with its videos.
func (db *DB) GetPalestra(id int64) (*model.Palestra, error) {
	row := db.conn.QueryRow("SELECT "+palestraColumns+" FROM palestras WHERE id = ?", id)
	p, err := scanPalestra(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Videos, err = db.getPalestraVideos(p.ID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func scanPalestra(row rowScanner) (*model.Palestra, error) {
	var p model.Palestra
	var dateTime sql.NullTime
	err := row.Scan(&p.ID, &p.Slug, &p.Speaker, &p.Moderator, &p.Image, &p.Publish,
		&p.Banner, &p.Title, &dateTime, &p.ResumeSpeaker, &p.Affiliation, &p.Body, &p.Subcategory)
	if err != nil {
		return nil, err
	}
	p.DateTime = timePtr(dateTime)
	return &p, nil
}

func (db *DB) getPalestraVideos(palestraID int64) ([]model.Video, error) {
	rows, err := db.conn.Query("SELECT id, video, palestra_id FROM palestra_videos WHERE palestra_id = ? ORDER BY id", palestraID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	videos := []model.Video{}
	for rows.Next() {
		var v model.Video
		if err := rows.Scan(&v.ID, &v.Video, &v.BlogPostID); err != nil {
			return nil, err
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// CreatePalestra inserts a palestra and its videos. Returns the ID.
func (db *DB) CreatePalestra(p *model.Palestra) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	res, err := tx.Exec(`
		INSERT INTO palestras (slug, speaker, moderator, image, publish, banner, title,
			date_time, resume_speaker, affiliation, body, subcategory)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Slug, p.Speaker, p.Moderator, p.Image, p.Publish, p.Banner, p.Title,
		p.DateTime, p.ResumeSpeaker, p.Affiliation, p.Body, p.Subcategory)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	for _, v := range p.Videos {
		if _, err := tx.Exec("INSERT INTO palestra_videos (palestra_id, video) VALUES (?, ?)", id, v.Video); err != nil {
			tx.Rollback()
			return 0, err
		}
	}
	return id, tx.Commit()
}

// UpdatePalestra rewrites a palestra and replaces its videos. Returns
// false when the palestra does not exist.
func (db *DB) UpdatePalestra(p *model.Palestra) (bool, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return false, err
	}
	res, err := tx.Exec(`
		UPDATE palestras SET slug=?, speaker=?, moderator=?, image=?, publish=?, banner=?,
			title=?, date_time=?, resume_speaker=?, affiliation=?, body=?, subcategory=?
		WHERE id=?`,
		p.Slug, p.Speaker, p.Moderator, p.Image, p.Publish, p.Banner,
		p.Title, p.DateTime, p.ResumeSpeaker, p.Affiliation, p.Body, p.Subcategory, p.ID)
	if err != nil {
		tx.Rollback()
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return false, err
	}
	if affected == 0 {
		tx.Rollback()
		return false, nil
	}
	if _, err := tx.Exec("DELETE FROM palestra_videos WHERE palestra_id = ?", p.ID); err != nil {
		tx.Rollback()
		return false, err
	}
	for _, v := range p.Videos {
		if _, err := tx.Exec("INSERT INTO palestra_videos (palestra_id, video) VALUES (?, ?)", p.ID, v.Video); err != nil {
			tx.Rollback()
			return false, err
		}
	}
	return true, tx.Commit()
}

// DeletePalestra removes a palestra; its videos cascade.
func (db *DB) DeletePalestra(id int64) error {
	_, err := db.conn.Exec("DELETE FROM palestras WHERE id = ?", id)
	return err
}

// --- Exercicio Methods ---

const exercicioColumns = `id, mockup, title, description, instructor, duration_minutes,
	difficulty_level, category, subcategory, video_url, thumbnail, published_date,
	tags, equipment_needed, body`

// GetExercicios returns all exercícios, newest first. An empty
// subcategory means no filter.
func (db *DB) GetExercicios(subcategory string) ([]model.Exercicio, error) {
	query := "SELECT " + exercicioColumns + " FROM exercicios"
	var args []interface{}
	if subcategory != "" {
		query += " WHERE subcategory = ?"
		args = append(args, subcategory)
	}
	query += " ORDER BY published_date DESC"
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exercicios []model.Exercicio
	for rows.Next() {
		e, err := scanExercicio(rows)
		if err != nil {
			return nil, err
		}
		exercicios = append(exercicios, *e)
	}
	return exercicios, rows.Err()
}

// GetExercicio retrieves an exercício by ID.
func (db *DB) GetExercicio(id int64) (*model.Exercicio, error) {
	row := db.conn.QueryRow("SELECT "+exercicioColumns+" FROM exercicios WHERE id = ?", id)
	e, err := scanExercicio(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func scanExercicio(row rowScanner) (*model.Exercicio, error) {
	var e model.Exercicio
	var duration sql.NullInt64
	var published sql.NullTime
	var tags, equipment string
	err := row.Scan(&e.ID, &e.Mockup, &e.Title, &e.Description, &e.Instructor, &duration,
		&e.DifficultyLevel, &e.Category, &e.Subcategory, &e.VideoURL, &e.Thumbnail,
		&published, &tags, &equipment, &e.Body)
	if err != nil {
		return nil, err
	}
	if duration.Valid {
		d := int(duration.Int64)
		e.DurationMinutes = &d
	}
	e.PublishedDate = timePtr(published)
	e.Tags = decodeList(tags)
	e.EquipmentNeeded = decodeList(equipment)
	return &e, nil
}

// CreateExercicio inserts an exercício. Returns the ID.
func (db *DB) CreateExercicio(e *model.Exercicio) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO exercicios (mockup, title, description, instructor, duration_minutes,
			difficulty_level, category, subcategory, video_url, thumbnail, published_date,
			tags, equipment_needed, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Mockup, e.Title, e.Description, e.Instructor, e.DurationMinutes,
		e.DifficultyLevel, e.Category, e.Subcategory, e.VideoURL, e.Thumbnail, e.PublishedDate,
		encodeList(e.Tags), encodeList(e.EquipmentNeeded), e.Body)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateExercicio rewrites an exercício. Returns false when it does not exist.
func (db *DB) UpdateExercicio(e *model.Exercicio) (bool, error) {
	res, err := db.conn.Exec(`
		UPDATE exercicios SET mockup=?, title=?, description=?, instructor=?,
			duration_minutes=?, difficulty_level=?, category=?, subcategory=?, video_url=?,
			thumbnail=?, published_date=?, tags=?, equipment_needed=?, body=?
		WHERE id=?`,
		e.Mockup, e.Title, e.Description, e.Instructor,
		e.DurationMinutes, e.DifficultyLevel, e.Category, e.Subcategory, e.VideoURL,
		e.Thumbnail, e.PublishedDate, encodeList(e.Tags), encodeList(e.EquipmentNeeded), e.Body, e.ID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

// DeleteExercicio removes an exercício.
func (db *DB) DeleteExercicio(id int64) error {
	_, err := db.conn.Exec("DELETE FROM exercicios WHERE id = ?", id)
	return err
}

// --- Estudo Methods ---

const estudoColumns = `id, mockup, title, description, author, content_type, published_date,
	category, tags, body, external_link, pdf_file, reading_time_minutes`

// GetEstudos returns all estudos, newest first.
func (db *DB) GetEstudos() ([]model.Estudo, error) {
	rows, err := db.conn.Query("SELECT " + estudoColumns + " FROM estudos ORDER BY published_date DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var estudos []model.Estudo
	for rows.Next() {
		e, err := scanEstudo(rows)
		if err != nil {
			return nil, err
		}
		estudos = append(estudos, *e)
	}
	return estudos, rows.Err()
}

// GetEstudo retrieves an estudo by ID.
func (db *DB) GetEstudo(id int64) (*model.Estudo, error) {
	row := db.conn.QueryRow("SELECT "+estudoColumns+" FROM estudos WHERE id = ?", id)
	e, err := scanEstudo(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return e, err
}

func scanEstudo(row rowScanner) (*model.Estudo, error) {
	var e model.Estudo
	var published sql.NullTime
	var reading sql.NullInt64
	var tags string
	err := row.Scan(&e.ID, &e.Mockup, &e.Title, &e.Description, &e.Author, &e.ContentType,
		&published, &e.Category, &tags, &e.Body, &e.ExternalLink, &e.PDFFile, &reading)
	if err != nil {
		return nil, err
	}
	e.PublishedDate = timePtr(published)
	e.Tags = decodeList(tags)
	if reading.Valid {
		r := int(reading.Int64)
		e.ReadingTimeMinutes = &r
	}
	return &e, nil
}

// CreateEstudo inserts an estudo. Returns the ID.
func (db *DB) CreateEstudo(e *model.Estudo) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO estudos (mockup, title, description, author, content_type, published_date,
			category, tags, body, external_link, pdf_file, reading_time_minutes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Mockup, e.Title, e.Description, e.Author, e.ContentType, e.PublishedDate,
		e.Category, encodeList(e.Tags), e.Body, e.ExternalLink, e.PDFFile, e.ReadingTimeMinutes)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateEstudo rewrites an estudo. Returns false when it does not exist.
func (db *DB) UpdateEstudo(e *model.Estudo) (bool, error) {
	res, err := db.conn.Exec(`
		UPDATE estudos SET mockup=?, title=?, description=?, author=?, content_type=?,
			published_date=?, category=?, tags=?, body=?, external_link=?, pdf_file=?,
			reading_time_minutes=?
		WHERE id=?`,
		e.Mockup, e.Title, e.Description, e.Author, e.ContentType,
		e.PublishedDate, e.Category, encodeList(e.Tags), e.Body, e.ExternalLink, e.PDFFile,
		e.ReadingTimeMinutes, e.ID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

// DeleteEstudo removes an estudo.
func (db *DB) DeleteEstudo(id int64) error {
	_, err := db.conn.Exec("DELETE FROM estudos WHERE id = ?", id)
	return err
}

// --- Cartilha Methods ---

const cartilhaColumns = `id, blog_post_id, title, description, pdf_file, published_date,
	speaker, affiliation, resume_speaker`

// GetCartilhas returns all cartilhas, newest first.
func (db *DB) GetCartilhas() ([]model.Cartilha, error) {
	rows, err := db.conn.Query("SELECT " + cartilhaColumns + " FROM cartilhas ORDER BY published_date DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cartilhas []model.Cartilha
	for rows.Next() {
		c, err := scanCartilha(rows)
		if err != nil {
			return nil, err
		}
		cartilhas = append(cartilhas, *c)
	}
	return cartilhas, rows.Err()
}

// GetCartilha retrieves a cartilha by ID.
func (db *DB) GetCartilha(id int64) (*model.Cartilha, error) {
	row := db.conn.QueryRow("SELECT "+cartilhaColumns+" FROM cartilhas WHERE id = ?", id)
	c, err := scanCartilha(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func scanCartilha(row rowScanner) (*model.Cartilha, error) {
	var c model.Cartilha
	var published sql.NullTime
	err := row.Scan(&c.ID, &c.BlogPostID, &c.Title, &c.Description, &c.PDFFile,
		&published, &c.Speaker, &c.Affiliation, &c.ResumeSpeaker)
	if err != nil {
		return nil, err
	}
	c.PublishedDate = timePtr(published)
	return &c, nil
}

// CreateCartilha inserts a cartilha. Returns the ID.
func (db *DB) CreateCartilha(c *model.Cartilha) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO cartilhas (blog_post_id, title, description, pdf_file, published_date,
			speaker, affiliation, resume_speaker)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.BlogPostID, c.Title, c.Description, c.PDFFile, c.PublishedDate,
		c.Speaker, c.Affiliation, c.ResumeSpeaker)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateCartilha rewrites a cartilha. Returns false when it does not exist.
func (db *DB) UpdateCartilha(c *model.Cartilha) (bool, error) {
	res, err := db.conn.Exec(`
		UPDATE cartilhas SET blog_post_id=?, title=?, description=?, pdf_file=?,
			published_date=?, speaker=?, affiliation=?, resume_speaker=?
		WHERE id=?`,
		c.BlogPostID, c.Title, c.Description, c.PDFFile,
		c.PublishedDate, c.Speaker, c.Affiliation, c.ResumeSpeaker, c.ID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	return affected > 0, err
}

// DeleteCartilha removes a cartilha.
func (db *DB) DeleteCartilha(id int64) error {
	_, err := db.conn.Exec("DELETE FROM cartilhas WHERE id = ?", id)
	return err
}
