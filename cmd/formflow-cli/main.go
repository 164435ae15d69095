package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/goliatone/go-formflow/pkg/aggregate"
	"github.com/goliatone/go-formflow/pkg/runner"
	"github.com/goliatone/go-formflow/pkg/schema"
	"github.com/goliatone/go-formflow/pkg/state"
)

func main() {
	schemaPath := flag.String("schema", "", "form schema path (JSON or YAML)")
	answersPath := flag.String("answers", "", "answers JSON file to validate")
	mergePaths := flag.String("merge", "", "comma-separated snapshot JSON files to reconcile")
	strategy := flag.String("strategy", "timestamp", "conflict strategy: timestamp|priority|merge|manual")
	threshold := flag.Duration("threshold", 5*time.Second, "conflict threshold")
	fill := flag.Bool("fill", false, "fill the form interactively")
	output := flag.String("output", "", "output file (stdout if empty)")
	flag.Parse()

	if *mergePaths != "" {
		runMerge(*mergePaths, *strategy, *threshold, *output)
		return
	}

	if *schemaPath == "" {
		log.Fatalf("a -schema path is required")
	}
	data, err := os.ReadFile(*schemaPath)
	if err != nil {
		log.Fatalf("read schema: %v", err)
	}
	form, err := schema.Parse(data)
	if err != nil {
		log.Fatalf("invalid schema: %v", err)
	}

	switch {
	case *fill:
		runFill(form, *output)
	case *answersPath != "":
		runValidate(form, *answersPath)
	default:
		fmt.Printf("schema %q is valid (%d sections, %d questions)\n",
			form.ID, len(form.Sections), len(form.QuestionIDs()))
	}
}

func runValidate(form schema.FormSchema, answersPath string) {
	data, err := os.ReadFile(answersPath)
	if err != nil {
		log.Fatalf("read answers: %v", err)
	}
	var answers map[string]any
	if err := json.Unmarshal(data, &answers); err != nil {
		log.Fatalf("parse answers: %v", err)
	}

	ctrl := state.NewController(form, state.WithInitialData(answers))
	result := ctrl.ValidateForm()
	if result.Valid {
		fmt.Println("answers are valid")
		return
	}

	ids := make([]string, 0, len(result.Errors))
	for id := range result.Errors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Printf("%s: %s\n", id, result.Errors[id])
	}
	os.Exit(1)
}

func runFill(form schema.FormSchema, output string) {
	ctrl := state.NewController(form)
	if err := runner.New(nil).Run(context.Background(), form, ctrl); err != nil {
		log.Fatalf("fill aborted: %v", err)
	}
	writeJSON(ctrl.Snapshot(), output)
}

func runMerge(paths, strategy string, threshold time.Duration, output string) {
	chosen := aggregate.Strategy(strategy)
	if !chosen.Valid() {
		log.Fatalf("unknown strategy %q (want timestamp, priority, merge, or manual)", strategy)
	}

	var snapshots []state.Snapshot
	for _, path := range strings.Split(paths, ",") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("read snapshot: %v", err)
		}
		var snap state.Snapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			log.Fatalf("parse snapshot %s: %v", path, err)
		}
		if snap.SourceID == "" {
			snap.SourceID = path
		}
		snapshots = append(snapshots, snap)
	}

	agg := aggregate.New(
		aggregate.WithStrategy(chosen),
		aggregate.WithThreshold(threshold),
	)
	result := agg.Aggregate(snapshots)

	for _, conflict := range result.Conflicts {
		fmt.Fprintf(os.Stderr, "conflict on %s (%s/%s): %v vs %v\n",
			conflict.FieldID, conflict.Type, conflict.Severity,
			conflict.LocalValue, conflict.RemoteValue)
	}
	writeJSON(result, output)
}

func writeJSON(payload any, output string) {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		log.Fatalf("encode output: %v", err)
	}
	if output == "" {
		fmt.Println(string(data))
		return
	}
	if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
		log.Fatalf("write output: %v", err)
	}
	fmt.Printf("written to %s\n", output)
}
