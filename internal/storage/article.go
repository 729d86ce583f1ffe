package storage

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/samber/lo"

	"github.com/obeng-labs/newswire/internal/model"
)

type ArticlePostgresStorage struct {
	db *sqlx.DB
}

func NewArticleStorage(db *sqlx.DB) *ArticlePostgresStorage {
	return &ArticlePostgresStorage{db: db}
}

// UpsertByLink stores articles keyed by link. On conflict the fresher row
// wins, except content: an existing body is never replaced by an empty one,
// so a re-listed article cannot lose an enrichment that already succeeded.
// Rows fail individually; one bad article does not sink the batch.
func (s *ArticlePostgresStorage) UpsertByLink(ctx context.Context, articles []model.Article) (int, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	added := 0
	for _, a := range articles {
		if _, err := conn.ExecContext(
			ctx,
			`INSERT INTO articles (source_name, title, link, section, image_url, content, published_at)
			 VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7)
			 ON CONFLICT (link) DO UPDATE SET
				title = EXCLUDED.title,
				section = EXCLUDED.section,
				published_at = EXCLUDED.published_at,
				image_url = EXCLUDED.image_url,
				content = COALESCE(EXCLUDED.content, articles.content)`,
			a.SourceName, a.Title, a.Link, a.Section, a.ImageURL, a.Content, a.PublishedAt,
		); err != nil {
			log.Printf("[WARN] save article %s: %v", a.Link, err)
			continue
		}
		added++
	}
	return added, nil
}

func (s *ArticlePostgresStorage) AllLinks(ctx context.Context) ([]string, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var links []string
	if err := conn.SelectContext(ctx, &links, `SELECT link FROM articles`); err != nil {
		return nil, err
	}
	return links, nil
}

// LatestPublishedBySource returns each source's newest stored publish time,
// the per-source watermark for freshness filtering.
func (s *ArticlePostgresStorage) LatestPublishedBySource(ctx context.Context) (map[string]time.Time, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var rows []struct {
		SourceName  string    `db:"source_name"`
		PublishedAt time.Time `db:"published_at"`
	}
	if err := conn.SelectContext(
		ctx,
		&rows,
		`SELECT source_name, MAX(published_at) AS published_at FROM articles GROUP BY source_name`,
	); err != nil {
		return nil, err
	}

	watermarks := make(map[string]time.Time, len(rows))
	for _, row := range rows {
		watermarks[row.SourceName] = row.PublishedAt
	}
	return watermarks, nil
}

// PurgeInvalid deletes articles that slipped through with placeholder
// titles or vector placeholder images.
func (s *ArticlePostgresStorage) PurgeInvalid(ctx context.Context) (int64, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	patterns := lo.Map(model.PlaceholderTitles, func(t string, _ int) string {
		return "%" + t + "%"
	})

	res, err := conn.ExecContext(
		ctx,
		`DELETE FROM articles
		 WHERE image_url LIKE '%.svg' OR image_url LIKE '%.svg?%'
		    OR title ILIKE ANY($1)`,
		pq.Array(patterns),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PurgeOverRetention trims the table down to the newest keep articles.
func (s *ArticlePostgresStorage) PurgeOverRetention(ctx context.Context, keep int) (int64, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	res, err := conn.ExecContext(
		ctx,
		`DELETE FROM articles WHERE id NOT IN (
			SELECT id FROM articles ORDER BY published_at DESC LIMIT $1
		 )`,
		keep,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Newest returns the latest stored articles, optionally scoped to one
// section.
func (s *ArticlePostgresStorage) Newest(ctx context.Context, section string, limit int) ([]model.Article, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var rows []dbArticle
	if section != "" {
		err = conn.SelectContext(
			ctx,
			&rows,
			`SELECT * FROM articles
			 WHERE image_url IS NOT NULL AND section = $1
			 ORDER BY published_at DESC LIMIT $2`,
			section, limit,
		)
	} else {
		err = conn.SelectContext(
			ctx,
			&rows,
			`SELECT * FROM articles
			 WHERE image_url IS NOT NULL
			 ORDER BY published_at DESC LIMIT $1`,
			limit,
		)
	}
	if err != nil {
		return nil, err
	}

	return lo.Map(rows, func(row dbArticle, _ int) model.Article { return row.toModel() }), nil
}

func (s *ArticlePostgresStorage) Count(ctx context.Context) (int, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	var count int
	if err := conn.GetContext(ctx, &count, `SELECT COUNT(*) FROM articles`); err != nil {
		return 0, err
	}
	return count, nil
}

// AllNotPosted returns unposted articles published after since, oldest
// first so the channel reads chronologically.
func (s *ArticlePostgresStorage) AllNotPosted(ctx context.Context, since time.Time, limit int) ([]model.Article, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	var rows []dbArticle
	if err := conn.SelectContext(
		ctx,
		&rows,
		`SELECT * FROM articles
		 WHERE posted_at IS NULL AND published_at >= $1::timestamp
		 ORDER BY published_at ASC LIMIT $2`,
		since.UTC().Format(time.RFC3339),
		limit,
	); err != nil {
		return nil, err
	}

	return lo.Map(rows, func(row dbArticle, _ int) model.Article { return row.toModel() }), nil
}

func (s *ArticlePostgresStorage) MarkPosted(ctx context.Context, id int64) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	_, err = conn.ExecContext(
		ctx,
		`UPDATE articles SET posted_at = $1::timestamp WHERE id = $2`,
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	return err
}

type dbArticle struct {
	ID          int64          `db:"id"`
	SourceName  string         `db:"source_name"`
	Title       string         `db:"title"`
	Link        string         `db:"link"`
	Section     string         `db:"section"`
	ImageURL    sql.NullString `db:"image_url"`
	Content     sql.NullString `db:"content"`
	PublishedAt time.Time      `db:"published_at"`
	PostedAt    sql.NullTime   `db:"posted_at"`
	CreatedAt   time.Time      `db:"created_at"`
}

func (a dbArticle) toModel() model.Article {
	return model.Article{
		ID:          a.ID,
		SourceName:  a.SourceName,
		Title:       a.Title,
		Link:        a.Link,
		Section:     a.Section,
		ImageURL:    a.ImageURL.String,
		Content:     a.Content.String,
		PublishedAt: a.PublishedAt,
		PostedAt:    a.PostedAt.Time,
		CreatedAt:   a.CreatedAt,
	}
}
