// Package datastore loads the canonical entity lists from the SQLite file
// produced by the ingestion pipeline. The file is read once at startup and
// whenever the operator asks for a reload; search itself never touches disk.
package datastore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3" // CGo-based SQLite driver

	"combiroute.fr/internal/logging"
	"combiroute.fr/internal/network"
)

const platformsQuery = `
SELECT id, city, operator, department, country, lat, lon, rail_yard
FROM platforms
WHERE lat IS NOT NULL AND lon IS NOT NULL
ORDER BY id`

const servicesQuery = `
SELECT operator, origin_id, destination_id,
       departure_day, departure_time, arrival_day, arrival_time,
       swap_body, container, craneable_trailer, non_craneable_trailer, p400_trailer
FROM services`

// Load reads every platform and scheduled service from the SQLite file at
// path and returns an indexed, immutable dataset.
func Load(ctx context.Context, path string, logger *slog.Logger) (*network.Dataset, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "datastore"))

	db, err := sql.Open("sqlite3", path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("error opening dataset file %q: %w", path, err)
	}
	defer logging.SafeCloseWithLogging(db, logger, "dataset_db")

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("error reading dataset file %q: %w", path, err)
	}

	platforms, err := loadPlatforms(ctx, db)
	if err != nil {
		return nil, err
	}
	services, err := loadServices(ctx, db)
	if err != nil {
		return nil, err
	}

	logging.LogOperation(logger, "dataset_loaded",
		slog.String("path", path),
		slog.Int("platforms", len(platforms)),
		slog.Int("services", len(services)))

	return network.NewDataset(platforms, services), nil
}

func loadPlatforms(ctx context.Context, db *sql.DB) ([]*network.Platform, error) {
	rows, err := db.QueryContext(ctx, platformsQuery)
	if err != nil {
		return nil, fmt.Errorf("error querying platforms: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, nil, "platform_rows")

	var platforms []*network.Platform
	for rows.Next() {
		var p network.Platform
		var city, operator, department, country sql.NullString
		if err := rows.Scan(&p.ID, &city, &operator, &department, &country, &p.Lat, &p.Lon, &p.RailYard); err != nil {
			return nil, fmt.Errorf("error scanning platform row: %w", err)
		}
		p.City = city.String
		p.Operator = operator.String
		p.Department = department.String
		p.Country = country.String
		platforms = append(platforms, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating platform rows: %w", err)
	}
	return platforms, nil
}

func loadServices(ctx context.Context, db *sql.DB) ([]*network.Service, error) {
	rows, err := db.QueryContext(ctx, servicesQuery)
	if err != nil {
		return nil, fmt.Errorf("error querying services: %w", err)
	}
	defer logging.SafeCloseWithLogging(rows, nil, "service_rows")

	var services []*network.Service
	for rows.Next() {
		var s network.Service
		var departureDay, arrivalDay int
		var departureTime, arrivalTime sql.NullString
		if err := rows.Scan(
			&s.Operator, &s.OriginID, &s.DestinationID,
			&departureDay, &departureTime, &arrivalDay, &arrivalTime,
			&s.AcceptsSwapBody, &s.AcceptsContainer, &s.AcceptsCraneableTrailer,
			&s.AcceptsNonCraneableTrailer, &s.AcceptsP400Trailer,
		); err != nil {
			return nil, fmt.Errorf("error scanning service row: %w", err)
		}
		s.DepartureDay = time.Weekday(departureDay % 7)
		s.ArrivalDay = time.Weekday(arrivalDay % 7)
		s.DepartureTime = departureTime.String
		s.ArrivalTime = arrivalTime.String
		services = append(services, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating service rows: %w", err)
	}
	return services, nil
}
