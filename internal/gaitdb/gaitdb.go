// Package gaitdb persists scan runs and their detected cycles to SQLite so
// long recordings can be processed once and queried later.
package gaitdb

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/gait.report/internal/gait"
	"github.com/banshee-data/gait.report/internal/timeutil"
)

type DB struct {
	*sql.DB
	clock timeutil.Clock
}

// NewDB opens (creating if needed) the scan database at path. Use ":memory:"
// for an ephemeral database in tests.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS gait_scans (
			scan_id TEXT PRIMARY KEY,
			channel TEXT NOT NULL,
			sample_rate DOUBLE,
			target_samples INTEGER,
			template_length INTEGER,
			acceptance_threshold DOUBLE,
			cycle_count INTEGER,
			created_at TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS gait_cycles (
			scan_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			start_index INTEGER NOT NULL,
			end_index INTEGER NOT NULL,
			score DOUBLE NOT NULL,
			scale DOUBLE NOT NULL,
			landmarks TEXT,
			PRIMARY KEY (scan_id, seq),
			FOREIGN KEY (scan_id) REFERENCES gait_scans(scan_id)
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{DB: db, clock: timeutil.RealClock{}}, nil
}

// SetClock replaces the timestamp source. Tests use this to pin CreatedAt.
func (db *DB) SetClock(clock timeutil.Clock) {
	db.clock = clock
}

// ScanRecord summarizes one persisted scan run.
type ScanRecord struct {
	ScanID              string    `json:"scan_id"`
	Channel             string    `json:"channel"`
	SampleRate          float64   `json:"sample_rate"`
	TargetSamples       int       `json:"target_samples"`
	TemplateLength      int       `json:"template_length"`
	AcceptanceThreshold float64   `json:"acceptance_threshold"`
	CycleCount          int       `json:"cycle_count"`
	CreatedAt           time.Time `json:"created_at"`
}

// RecordScan stores one scan run and all its detected cycles in a single
// transaction, returning the generated scan ID.
func (db *DB) RecordScan(record ScanRecord, results *gait.ResultSet) (string, error) {
	scanID := uuid.NewString()

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("beginning scan transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO gait_scans (
			scan_id, channel, sample_rate, target_samples,
			template_length, acceptance_threshold, cycle_count, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		scanID,
		record.Channel,
		record.SampleRate,
		record.TargetSamples,
		record.TemplateLength,
		record.AcceptanceThreshold,
		results.Len(),
		db.clock.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("inserting scan %s: %w", scanID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO gait_cycles (scan_id, seq, start_index, end_index, score, scale, landmarks)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing cycle insert: %w", err)
	}
	defer stmt.Close()

	for seq, c := range results.Cycles() {
		landmarks, err := json.Marshal(c.Landmarks)
		if err != nil {
			return "", fmt.Errorf("encoding landmarks for cycle %d: %w", seq, err)
		}
		if _, err := stmt.Exec(scanID, seq, c.Start, c.End, c.Score, c.Scale, string(landmarks)); err != nil {
			return "", fmt.Errorf("inserting cycle %d of scan %s: %w", seq, scanID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing scan %s: %w", scanID, err)
	}
	return scanID, nil
}

// ListScans returns persisted scan records, most recent first.
func (db *DB) ListScans() ([]ScanRecord, error) {
	rows, err := db.Query(`
		SELECT scan_id, channel, sample_rate, target_samples,
		       template_length, acceptance_threshold, cycle_count, created_at
		FROM gait_scans ORDER BY created_at DESC, scan_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ScanRecord
	for rows.Next() {
		var r ScanRecord
		var createdAt string
		if err := rows.Scan(&r.ScanID, &r.Channel, &r.SampleRate, &r.TargetSamples,
			&r.TemplateLength, &r.AcceptanceThreshold, &r.CycleCount, &createdAt); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			r.CreatedAt = t
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// Cycles returns the detected cycles of one scan in start-index order.
func (db *DB) Cycles(scanID string) ([]gait.DetectedCycle, error) {
	rows, err := db.Query(`
		SELECT start_index, end_index, score, scale, landmarks
		FROM gait_cycles WHERE scan_id = ? ORDER BY seq`, scanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cycles []gait.DetectedCycle
	for rows.Next() {
		var c gait.DetectedCycle
		var landmarks string
		if err := rows.Scan(&c.Start, &c.End, &c.Score, &c.Scale, &landmarks); err != nil {
			return nil, err
		}
		if landmarks != "" {
			if err := json.Unmarshal([]byte(landmarks), &c.Landmarks); err != nil {
				return nil, fmt.Errorf("decoding landmarks for scan %s: %w", scanID, err)
			}
		}
		cycles = append(cycles, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return cycles, nil
}
