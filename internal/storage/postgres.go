package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/atenger/gmfc101/internal/models"
)

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// PostgresStore reads the catalog from an episodes table maintained by the ingestion
// pipeline. The bot never writes to it.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(ctx context.Context, config DatabaseConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// NewPostgresStoreFromDB wraps an existing handle.
func NewPostgresStoreFromDB(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) LoadEpisodes(ctx context.Context) ([]models.Episode, error) {
	query := `
		SELECT episode, title, series, hosts, aired_date::text, transcript_path, youtube_url, companion_blog
		FROM episodes
		ORDER BY aired_date`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error querying episodes: %w", err)
	}
	defer rows.Close()

	var episodes []models.Episode
	for rows.Next() {
		var (
			ep                                 models.Episode
			transcript, videoURL, companionURL sql.NullString
		)
		err := rows.Scan(
			&ep.ID,
			&ep.Title,
			&ep.Series,
			pq.Array(&ep.Hosts),
			&ep.AiredDate,
			&transcript,
			&videoURL,
			&companionURL,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning episode: %w", err)
		}
		ep.TranscriptPath = transcript.String
		ep.VideoURL = videoURL.String
		ep.CompanionBlog = companionURL.String
		episodes = append(episodes, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating episodes: %w", err)
	}

	return episodes, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
