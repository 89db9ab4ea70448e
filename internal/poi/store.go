package poi

import (
	"context"
	"fmt"
	"time"

	"github.com/snar-ar/overlay/internal/geo"
	"github.com/snar-ar/overlay/pkg/core"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Record is the database row for a point of interest. MercatorX/Y hold the
// EPSG:3857 position for tools that cannot read WGS84 directly.
type Record struct {
	ID          int64     `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Name        string    `json:"name" gorm:"size:255"`
	Description string    `json:"description" gorm:"size:2000"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Altitude    float64   `json:"altitude"`
	MercatorX   float64   `json:"mercatorX" gorm:"index:idx_poi_mercator"`
	MercatorY   float64   `json:"mercatorY" gorm:"index:idx_poi_mercator"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (*Record) TableName() string {
	return "points_of_interest"
}

func recordFrom(p core.PointOfInterest) Record {
	r := Record{
		ID:          int64(p.ID),
		Name:        p.Name,
		Description: p.Description,
		Latitude:    p.Coordinate.Latitude,
		Longitude:   p.Coordinate.Longitude,
		Altitude:    p.Coordinate.Altitude,
	}
	if coords, ok := geo.Mercator(p.Coordinate).Coordinates(); ok {
		r.MercatorX = coords.X
		r.MercatorY = coords.Y
	}
	return r
}

func (r Record) point() core.PointOfInterest {
	return core.PointOfInterest{
		ID:          core.PointID(r.ID),
		Name:        r.Name,
		Description: r.Description,
		Coordinate: core.GeodeticCoordinate{
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
			Altitude:  r.Altitude,
		},
	}
}

// Store keeps points in a SQL database through gorm. Any gorm dialector
// works; SQLite and Postgres are the ones wired up.
type Store struct {
	db *gorm.DB
}

// NewStore wraps an open connection.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the points table.
func (s *Store) Migrate() error {
	if err := s.db.AutoMigrate(&Record{}); err != nil {
		return fmt.Errorf("failed to migrate points table: %w", err)
	}
	return nil
}

// LoadAll returns every stored point ordered by id.
func (s *Store) LoadAll(ctx context.Context) ([]core.PointOfInterest, error) {
	var rows []Record
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	points := make([]core.PointOfInterest, len(rows))
	for i, r := range rows {
		points[i] = r.point()
	}
	return points, nil
}

// Import upserts points by id and returns how many rows were written.
// The input is validated as a Set first so a bad file writes nothing.
func (s *Store) Import(ctx context.Context, points []core.PointOfInterest) (int, error) {
	if _, err := NewSet(points); err != nil {
		return 0, err
	}
	if len(points) == 0 {
		return 0, nil
	}

	rows := make([]Record, len(points))
	for i, p := range points {
		rows[i] = recordFrom(p)
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).CreateInBatches(rows, 500).Error
	if err != nil {
		return 0, fmt.Errorf("failed to import points: %w", err)
	}
	return len(rows), nil
}

// Count returns the number of stored points.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&Record{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return n, nil
}
