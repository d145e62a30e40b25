// Command gaitscan finds gait-cycle landmarks across a pressure recording
// using a template built from manually marked excerpts.
//
// Typical use:
//
//	gaitscan -data trial.csv -marks marks.json -out results/
//
// The recording is a CSV with one named column per channel; marks.json is the
// session file the marking UI saves. Results are written as one CSV table per
// channel, optionally persisted to SQLite and rendered as PNG/HTML charts.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/gait.report/internal/config"
	"github.com/banshee-data/gait.report/internal/gait"
	"github.com/banshee-data/gait.report/internal/gait/monitor"
	"github.com/banshee-data/gait.report/internal/gaitdb"
	"github.com/banshee-data/gait.report/internal/monitoring"
	"github.com/banshee-data/gait.report/internal/version"
)

func main() {
	dataPath := flag.String("data", "", "CSV recording, one named column per channel (required)")
	marksPath := flag.String("marks", "", "marking session JSON from the labeling UI (required)")
	configPath := flag.String("config", "", "matching config JSON (defaults built in)")
	outDir := flag.String("out", ".", "directory for per-channel result CSVs")
	dbPath := flag.String("db", "", "optional SQLite database to persist scans to")
	plotDir := flag.String("plots", "", "optional directory for PNG plots")
	chartDir := flag.String("charts", "", "optional directory for HTML charts")
	serveAddr := flag.String("serve", "", "optional address to serve charts on (e.g. :8080)")
	sampleRate := flag.Float64("rate", 0, "sample rate of the recording in Hz (reporting only)")
	threshold := flag.Float64("threshold", -2, "override acceptance threshold")
	verbose := flag.Bool("v", false, "verbose scan diagnostics")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("gaitscan %s\n", version.String())
		return
	}

	monitoring.SetVerbose(*verbose)

	if *dataPath == "" || *marksPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		monitoring.Logf("config: %v", err)
		os.Exit(1)
	}
	if *threshold >= -1 {
		cfg.Matcher.AcceptanceThreshold = *threshold
		if err := cfg.Validate(); err != nil {
			monitoring.Logf("config: %v", err)
			os.Exit(1)
		}
	}

	rec, err := readRecordingCSV(*dataPath, *sampleRate)
	if err != nil {
		monitoring.Logf("reading recording: %v", err)
		os.Exit(1)
	}

	sessions, err := readSessions(*marksPath)
	if err != nil {
		monitoring.Logf("reading marks: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := gait.RunBatch(ctx, rec, sessions, cfg)
	if err != nil {
		monitoring.Logf("scan: %v", err)
		os.Exit(1)
	}

	var store *gaitdb.DB
	if *dbPath != "" {
		store, err = gaitdb.NewDB(*dbPath)
		if err != nil {
			monitoring.Logf("opening database: %v", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	for _, r := range results {
		monitoring.Logf("channel %s: %d cycles", r.Channel, r.Results.Len())

		outPath := filepath.Join(*outDir, r.Channel+"_cycles.csv")
		if err := writeResults(outPath, r, cfg.Roles); err != nil {
			monitoring.Logf("writing %s: %v", outPath, err)
			os.Exit(1)
		}

		if store != nil {
			scanID, err := store.RecordScan(gaitdb.ScanRecord{
				Channel:             r.Channel,
				SampleRate:          r.Signal.SampleRate,
				TargetSamples:       r.Signal.Len(),
				TemplateLength:      r.Template.Len(),
				AcceptanceThreshold: cfg.Matcher.AcceptanceThreshold,
			}, r.Results)
			if err != nil {
				monitoring.Logf("persisting channel %s: %v", r.Channel, err)
				os.Exit(1)
			}
			monitoring.Debugf("channel %s persisted as scan %s", r.Channel, scanID)
		}

		if *plotDir != "" {
			if err := os.MkdirAll(*plotDir, 0755); err != nil {
				monitoring.Logf("creating plot dir: %v", err)
				os.Exit(1)
			}
			plotPath := filepath.Join(*plotDir, r.Channel+".png")
			if err := monitor.SaveCyclePlot(plotPath, r.Channel, r.Signal, r.Results); err != nil {
				monitoring.Logf("plotting channel %s: %v", r.Channel, err)
				os.Exit(1)
			}
		}

		if *chartDir != "" {
			if err := os.MkdirAll(*chartDir, 0755); err != nil {
				monitoring.Logf("creating chart dir: %v", err)
				os.Exit(1)
			}
			chartPath := filepath.Join(*chartDir, r.Channel+".html")
			if err := writeChart(chartPath, r); err != nil {
				monitoring.Logf("charting channel %s: %v", r.Channel, err)
				os.Exit(1)
			}
		}
	}

	if *serveAddr != "" {
		serveCharts(*serveAddr, results)
	}
}

func loadConfig(path string) (gait.BatchConfig, error) {
	if path == "" {
		return gait.DefaultBatchConfig(), nil
	}
	mc, err := config.LoadMatchingConfig(path)
	if err != nil {
		return gait.BatchConfig{}, err
	}
	return mc.BatchConfig()
}

// readRecordingCSV parses a CSV with a header row of channel names and one
// float column per channel.
func readRecordingCSV(path string, sampleRate float64) (*gait.Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cr := csv.NewReader(f)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	columns := make([][]float64, len(header))
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		for i, cell := range row {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("column %q: invalid float %q: %w", header[i], cell, err)
			}
			columns[i] = append(columns[i], v)
		}
	}

	rec := gait.NewRecording()
	for i, name := range header {
		sig, err := gait.NewSignal(columns[i], sampleRate)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", name, err)
		}
		if err := rec.AddChannel(strings.TrimSpace(name), sig); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func readSessions(path string) ([]gait.MarkingSession, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return gait.ReadMarkingSessions(f)
}

func writeResults(path string, r gait.ChannelResult, roles []gait.Role) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return r.Results.WriteCSV(f, roles)
}

func writeChart(path string, r gait.ChannelResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return monitor.RenderCyclesChart(f, r.Channel, r.Signal, r.Results)
}

func serveCharts(addr string, results []gait.ChannelResult) {
	mux := http.NewServeMux()
	for _, r := range results {
		mux.HandleFunc("/channels/"+r.Channel, monitor.ChartHandler(r.Channel, r.Signal, r.Results))
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<ul>")
		for _, r := range results {
			fmt.Fprintf(w, `<li><a href="/channels/%s">%s (%d cycles)</a></li>`, r.Channel, r.Channel, r.Results.Len())
		}
		fmt.Fprint(w, "</ul>")
	})

	monitoring.Logf("serving charts on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		monitoring.Logf("chart server: %v", err)
	}
}
