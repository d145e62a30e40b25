package gaitdb

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/gait.report/internal/gait"
	"github.com/banshee-data/gait.report/internal/timeutil"
)

func scanFixture(t *testing.T) (*gait.Signal, *gait.ResultSet) {
	t.Helper()
	sig, session, err := gait.GenerateWalk(gait.DefaultSyntheticWalkConfig())
	require.NoError(t, err)

	ls, err := session.Landmarks(gait.DefaultRoleOrder(), sig.Len())
	require.NoError(t, err)
	tmpl, err := gait.BuildTemplate(sig, ls, gait.DefaultTemplateConfig())
	require.NoError(t, err)
	m, err := gait.NewMatcher(tmpl, gait.DefaultMatcherConfig())
	require.NoError(t, err)
	results, err := m.Scan(context.Background(), sig)
	require.NoError(t, err)
	require.Greater(t, results.Len(), 0)
	return sig, results
}

func TestRecordScanRoundTrip(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "gait.db"))
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	db.SetClock(timeutil.NewFakeClock(now))

	sig, results := scanFixture(t)

	scanID, err := db.RecordScan(ScanRecord{
		Channel:             "synthetic",
		SampleRate:          sig.SampleRate,
		TargetSamples:       sig.Len(),
		TemplateLength:      200,
		AcceptanceThreshold: 0.8,
	}, results)
	require.NoError(t, err)
	require.NotEmpty(t, scanID)

	scans, err := db.ListScans()
	require.NoError(t, err)
	require.Len(t, scans, 1)
	require.Equal(t, scanID, scans[0].ScanID)
	require.Equal(t, "synthetic", scans[0].Channel)
	require.Equal(t, results.Len(), scans[0].CycleCount)
	require.Equal(t, now, scans[0].CreatedAt)

	cycles, err := db.Cycles(scanID)
	require.NoError(t, err)
	require.Len(t, cycles, results.Len())
	for i, c := range cycles {
		want := results.At(i)
		require.Equal(t, want.Start, c.Start)
		require.Equal(t, want.End, c.End)
		require.InDelta(t, want.Score, c.Score, 1e-9)
		require.Equal(t, want.Landmarks, c.Landmarks)
	}
}

func TestListScansOrdering(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "gait.db"))
	require.NoError(t, err)
	defer db.Close()

	_, results := scanFixture(t)
	for _, channel := range []string{"left", "right"} {
		_, err := db.RecordScan(ScanRecord{Channel: channel}, results)
		require.NoError(t, err)
	}

	scans, err := db.ListScans()
	require.NoError(t, err)
	require.Len(t, scans, 2)
}

func TestCyclesUnknownScan(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "gait.db"))
	require.NoError(t, err)
	defer db.Close()

	cycles, err := db.Cycles("no-such-scan")
	require.NoError(t, err)
	require.Empty(t, cycles)
}
