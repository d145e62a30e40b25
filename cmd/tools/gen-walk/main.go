// Command gen-walk generates a synthetic pressure recording plus the marking
// session for its first cycle, for testing gaitscan end to end.
package main

import (
	"encoding/csv"
	"flag"
	"log"
	"os"
	"strconv"

	"github.com/banshee-data/gait.report/internal/gait"
)

func main() {
	dataOut := flag.String("o", "walk.csv", "output recording path")
	marksOut := flag.String("marks", "walk_marks.json", "output marking session path")
	cycles := flag.Int("n", 10, "number of cycles")
	span := flag.Int("span", 120, "nominal cycle span in samples")
	gap := flag.Int("gap", 50, "samples of noise between cycles")
	noise := flag.Float64("noise", 0.05, "noise amplitude")
	jitter := flag.Float64("jitter", 0.05, "cadence jitter fraction")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	cfg := gait.DefaultSyntheticWalkConfig()
	cfg.Cycles = *cycles
	cfg.CycleSpan = *span
	cfg.GapSamples = *gap
	cfg.NoiseAmplitude = *noise
	cfg.CadenceJitter = *jitter
	cfg.Seed = *seed

	sig, session, err := gait.GenerateWalk(cfg)
	if err != nil {
		log.Fatalf("generating walk: %v", err)
	}

	f, err := os.Create(*dataOut)
	if err != nil {
		log.Fatalf("creating %s: %v", *dataOut, err)
	}
	cw := csv.NewWriter(f)
	_ = cw.Write([]string{session.Channel})
	for _, v := range sig.Values {
		_ = cw.Write([]string{strconv.FormatFloat(v, 'f', 6, 64)})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.Fatalf("writing %s: %v", *dataOut, err)
	}
	if err := f.Close(); err != nil {
		log.Fatalf("closing %s: %v", *dataOut, err)
	}

	mf, err := os.Create(*marksOut)
	if err != nil {
		log.Fatalf("creating %s: %v", *marksOut, err)
	}
	defer mf.Close()
	if err := gait.WriteMarkingSessions(mf, []gait.MarkingSession{session}); err != nil {
		log.Fatalf("writing %s: %v", *marksOut, err)
	}

	log.Printf("✓ Created: %s (%d samples), %s", *dataOut, sig.Len(), *marksOut)
}
