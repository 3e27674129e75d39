package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/addons-ops/blocktool/internal/config"
	"github.com/addons-ops/blocktool/internal/input"
	"github.com/addons-ops/blocktool/internal/kinto"
	"github.com/addons-ops/blocktool/pkg/blocklist"
	"github.com/addons-ops/blocktool/pkg/collection"
)

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func ignoreError[V any, E error](res V, _ E) V {
	return res
}

var (
	WarningBuffer = bytes.NewBuffer([]byte{})
	InfoBuffer    = bytes.NewBuffer([]byte{})
)

var (
	configDir  = flag.String("config", getEnv("BLOCKTOOL_CONFIG", "./"), "Directory containing blocktool.toml")
	inputPath  = flag.String("input", getEnv("BLOCKTOOL_INPUT", ""), "File with one guid per line (defaults to piped stdin)")
	doBlock    = flag.Bool("block", ignoreError(strconv.ParseBool(getEnv("BLOCKTOOL_BLOCK", "0"))), "Stage block entries for new guids")
	name       = flag.String("name", "", "Block entry name")
	reason     = flag.String("reason", "", "Why the add-ons are blocked")
	bug        = flag.String("bug", "", "Bug tracker URL for the block")
	soft       = flag.Bool("soft", false, "Soft-block (warn) instead of hard-block")
	minVersion = flag.String("min-version", "", "Lowest blocked version (single guid only)")
	maxVersion = flag.String("max-version", "", "Highest blocked version (single guid only)")
	review     = flag.Bool("review", false, "Request review after staging")
	verbose    = flag.Bool("v", ignoreError(strconv.ParseBool(getEnv("BLOCKTOOL_VERBOSE", "0"))), "Verbose output")
)

// shouldFail should always be true for errors that are not recoverable
func errorAndExit(shouldFail bool, format string, args ...interface{}) {
	_, err := WarningBuffer.WriteTo(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing warning buffer: %v\n", err)
	}
	if *verbose {
		_, err := InfoBuffer.WriteTo(os.Stderr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing info buffer: %v\n", err)
		}
	}
	fmt.Fprintf(os.Stderr, format, args...)
	if shouldFail {
		os.Exit(1)
	} else {
		os.Exit(0)
	}
}

func printDebug(format string, args ...interface{}) {
	if *verbose {
		fmt.Fprintf(InfoBuffer, format, args...)
	}
}

// blockOptions collects the staging half of the workflow.
type blockOptions struct {
	Name          string
	Reason        string
	Bug           string
	Soft          bool
	MinVersion    string
	MaxVersion    string
	RequestReview bool
}

// runCheck classifies candidates against a fresh snapshot and reports the
// partition. The returned classification drives the optional staging step.
func runCheck(ctx context.Context, client kinto.Client, candidates []string, out, warnings io.Writer) (blocklist.Classification, error) {
	snapshot, err := client.FetchRecords(ctx)
	if err != nil {
		return blocklist.Classification{}, fmt.Errorf("fetching blocklist snapshot: %w", err)
	}
	index := blocklist.BuildIndex(snapshot, warnings)
	result := index.Classify(candidates)

	for _, match := range result.Existing {
		line := fmt.Sprintf("Already blocked: %s", match.Guid)
		if id, ok := match.Entry.BugID(); ok {
			line += fmt.Sprintf(" (bug %d)", id)
		}
		if !match.Entry.Enabled {
			fmt.Fprintf(warnings, "WARNING: entry for %s is disabled\n", match.Guid)
		}
		fmt.Fprintln(out, line)
	}
	for _, guid := range result.New {
		fmt.Fprintf(out, "New: %s\n", guid)
	}
	return result, nil
}

// runBlock stages one entry per compiled guid pattern, gated on the staging
// collection's review status. Nothing is written if the guard fails.
func runBlock(ctx context.Context, client kinto.Client, conf *config.Config, newGuids []string, opts blockOptions, out, warnings io.Writer) error {
	if len(newGuids) == 0 {
		fmt.Fprintln(out, "Nothing to block")
		return nil
	}

	severity := blocklist.SeverityHard
	if opts.Soft {
		severity = blocklist.SeveritySoft
	}
	builder := blocklist.Builder{Warnings: warnings}
	if conf.MaxBlockLength != nil {
		builder.MaxBlockLength = *conf.MaxBlockLength
	}
	requests, err := builder.BuildRequests(newGuids, blocklist.Metadata{
		Name:         opts.Name,
		ReasonText:   opts.Reason,
		Severity:     severity,
		MinVersion:   opts.MinVersion,
		MaxVersion:   opts.MaxVersion,
		BugReference: opts.Bug,
	})
	if err != nil {
		return err
	}

	if err := collection.AssertCanCreate(ctx, client, conf.Create.Permissive); err != nil {
		return err
	}
	for _, request := range requests {
		if err := client.CreateRecord(ctx, request); err != nil {
			return fmt.Errorf("staging record for %s: %w", request.Guid, err)
		}
		fmt.Fprintf(out, "Staged: %s\n", request.Guid)
	}

	if opts.RequestReview {
		if err := collection.RequestReview(ctx, client); err != nil {
			return err
		}
		fmt.Fprintln(out, "Review requested")
	}
	return nil
}

func main() {
	flag.Parse()
	_ = godotenv.Load()
	if *doBlock && (*name == "" || *reason == "") {
		errorAndExit(true, "Blocking requires -name and -reason\n")
	}

	conf, err := config.ReadConfig(*configDir)
	if err != nil {
		fmt.Fprintf(WarningBuffer, "WARNING: Error reading blocktool.toml - using default config\n")
	}
	printDebug("Server: %s (%s/%s)\n", conf.Server, conf.Bucket, conf.Collection)

	candidates, err := input.Candidates(*inputPath)
	if err != nil {
		errorAndExit(true, "Input error: %v\n", err)
	}
	printDebug("Read %d candidate lines\n", len(candidates))

	client := kinto.NewClient(kinto.Config{
		Server:        getEnv("BLOCKTOOL_SERVER", conf.Server),
		Bucket:        conf.Bucket,
		StagingBucket: conf.StagingBucket,
		Collection:    conf.Collection,
		Username:      os.Getenv("BLOCKTOOL_USER"),
		Password:      os.Getenv("BLOCKTOOL_PASS"),
	})

	ctx := context.Background()
	result, err := runCheck(ctx, client, candidates, os.Stdout, WarningBuffer)
	if err != nil {
		errorAndExit(true, "Check error: %v\n", err)
	}

	if *doBlock {
		opts := blockOptions{
			Name:          *name,
			Reason:        *reason,
			Bug:           *bug,
			Soft:          *soft,
			MinVersion:    *minVersion,
			MaxVersion:    *maxVersion,
			RequestReview: *review,
		}
		if err := runBlock(ctx, client, conf, result.New, opts, os.Stdout, WarningBuffer); err != nil {
			errorAndExit(true, "Block error: %v\n", err)
		}
	}

	_, err = WarningBuffer.WriteTo(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing warning buffer: %v\n", err)
	}
	if *verbose {
		_, err = InfoBuffer.WriteTo(os.Stdout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing info buffer: %v\n", err)
		}
	}
}
