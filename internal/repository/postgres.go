package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"amalajeun/internal/model"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresRepository handles database operations for the spot storage
// service.
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(dsn string, maxConn, maxIdleConn int) (*PostgresRepository, error) {
	// Disable prepared statement caching to avoid "unnamed prepared statement does not exist" errors
	if !strings.Contains(dsn, "?") {
		dsn += "?prefer_simple_protocol=true"
	} else {
		dsn += "&prefer_simple_protocol=true"
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(maxConn)
	db.SetMaxIdleConns(maxIdleConn)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{db: db}, nil
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	return r.db.Close()
}

// InsertSpot persists a new spot and returns it with its assigned
// identifier and timestamps. Spots are created pending and unverified;
// verification is a moderation concern outside this service.
func (r *PostgresRepository) InsertSpot(ctx context.Context, req *model.CreateSpotRequest) (*model.Spot, error) {
	source := model.SpotSource(req.Source)
	if source != model.SourceAuto {
		source = model.SourceUser
	}

	spot := model.Spot{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Address:     req.Address,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		UserID:      req.UserID,
		AddedBy:     req.AddedBy,
		OpeningTime: req.OpeningTime,
		ClosingTime: req.ClosingTime,
		Price:       req.Price,
		DineIn:      req.DineIn,
		Source:      source,
		Status:      model.StatusPending,
		Verified:    false,
		Images:      pq.StringArray{},
	}

	query := `
		INSERT INTO spots (
			id, name, address, latitude, longitude, user_id, added_by,
			opening_time, closing_time, price, dine_in, source, status,
			verified, images, created_at, updated_at
		) VALUES (
			:id, :name, :address, :latitude, :longitude, :user_id, :added_by,
			:opening_time, :closing_time, :price, :dine_in, :source, :status,
			:verified, :images, NOW(), NOW()
		)
		RETURNING created_at, updated_at
	`

	rows, err := r.db.NamedQueryContext(ctx, query, spot)
	if err != nil {
		return nil, fmt.Errorf("failed to insert spot: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&spot.CreatedAt, &spot.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan inserted timestamps: %w", err)
		}
	}

	return &spot, nil
}

// ListSpots returns the full current spot collection, newest first.
func (r *PostgresRepository) ListSpots(ctx context.Context) ([]model.Spot, error) {
	query := `
		SELECT
			id, name, address, latitude, longitude, user_id, added_by,
			opening_time, closing_time, price, dine_in, source, status,
			verified, images, created_at, updated_at
		FROM spots
		ORDER BY created_at DESC
	`

	spots := []model.Spot{}
	if err := r.db.SelectContext(ctx, &spots, query); err != nil {
		return nil, fmt.Errorf("failed to fetch spots: %w", err)
	}
	return spots, nil
}

// GetSpotByID retrieves a single spot by its ID
func (r *PostgresRepository) GetSpotByID(ctx context.Context, id string) (*model.Spot, error) {
	var spot model.Spot
	query := `
		SELECT
			id, name, address, latitude, longitude, user_id, added_by,
			opening_time, closing_time, price, dine_in, source, status,
			verified, images, created_at, updated_at
		FROM spots
		WHERE id = $1
	`
	err := r.db.GetContext(ctx, &spot, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get spot: %w", err)
	}
	return &spot, nil
}
