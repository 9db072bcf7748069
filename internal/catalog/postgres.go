package catalog

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/jfilter/timetiles-sub012/internal/models"
)

// PostgresConfig holds connection details for the catalog database.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require"
}

// Postgres loads target schemas from a datasets/dataset_fields table pair.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens and pings the catalog database.
func NewPostgres(config PostgresConfig) (*Postgres, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping catalog db: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// LoadTargetSchemas reads every dataset and its declared fields.
func (p *Postgres) LoadTargetSchemas() ([]models.TargetSchema, error) {
	rows, err := p.db.Query(`
		SELECT id, name, COALESCE(language, ''), has_geo, has_date
		FROM datasets
		ORDER BY name;
	`)
	if err != nil {
		return nil, fmt.Errorf("query datasets: %w", err)
	}
	defer rows.Close()

	var schemas []models.TargetSchema
	index := make(map[string]int)
	for rows.Next() {
		var ts models.TargetSchema
		if err := rows.Scan(&ts.ID, &ts.Name, &ts.Language, &ts.HasGeo, &ts.HasDate); err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		index[ts.ID] = len(schemas)
		schemas = append(schemas, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fieldRows, err := p.db.Query(`
		SELECT dataset_id, name, COALESCE(type, '')
		FROM dataset_fields
		ORDER BY dataset_id, position;
	`)
	if err != nil {
		return nil, fmt.Errorf("query dataset fields: %w", err)
	}
	defer fieldRows.Close()

	for fieldRows.Next() {
		var datasetID string
		var field models.SchemaField
		if err := fieldRows.Scan(&datasetID, &field.Name, &field.Type); err != nil {
			return nil, fmt.Errorf("scan dataset field: %w", err)
		}
		if i, ok := index[datasetID]; ok {
			schemas[i].Fields = append(schemas[i].Fields, field)
		}
	}
	if err := fieldRows.Err(); err != nil {
		return nil, err
	}

	return schemas, nil
}
