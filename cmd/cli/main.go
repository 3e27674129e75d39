package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/addons-ops/blocktool/internal/config"
	"github.com/addons-ops/blocktool/internal/input"
	"github.com/addons-ops/blocktool/internal/kinto"
	"github.com/addons-ops/blocktool/pkg/blocklist"
	"github.com/addons-ops/blocktool/pkg/collection"
	"github.com/addons-ops/blocktool/pkg/guidregex"
)

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

var logger = log.New(os.Stderr)

func loadSetup(configDir string) (*config.Config, kinto.Client, error) {
	_ = godotenv.Load()
	conf, err := config.ReadConfig(configDir)
	if err != nil {
		logger.Warn("error reading blocktool.toml - using default config", "err", err)
	}
	client := kinto.NewClient(kinto.Config{
		Server:        getEnv("BLOCKTOOL_SERVER", conf.Server),
		Bucket:        conf.Bucket,
		StagingBucket: conf.StagingBucket,
		Collection:    conf.Collection,
		Username:      os.Getenv("BLOCKTOOL_USER"),
		Password:      os.Getenv("BLOCKTOOL_PASS"),
		Logger:        logger,
	})
	return conf, client, nil
}

func main() {
	var configDir string
	var inputPath string
	var format string

	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Value:       "./",
		Usage:       "Directory containing blocktool.toml",
		Destination: &configDir,
	}
	inputFlag := &cli.StringFlag{
		Name:        "input",
		Aliases:     []string{"i"},
		Value:       "",
		Usage:       "File with one guid per line (defaults to piped stdin)",
		Destination: &inputPath,
	}

	app := &cli.App{
		Name:  "blocktool",
		Usage: "Curate the add-on blocklist: check guids, stage blocks, drive review signoff",
		Commands: []*cli.Command{
			{
				Name:    "check",
				Aliases: []string{"c"},
				Usage:   "Classify guids against the current blocklist",
				Flags: []cli.Flag{
					configFlag,
					inputFlag,
					&cli.StringFlag{
						Name:        "format",
						Aliases:     []string{"f"},
						Value:       string(FormatDefault),
						Usage:       "Output format (default, one-line, json)",
						Destination: &format,
					},
				},
				Action: func(cCtx *cli.Context) error {
					return checkGuids(cCtx, configDir, inputPath, format)
				},
			},
			{
				Name:    "block",
				Aliases: []string{"b"},
				Usage:   "Stage block entries for guids not already blocked",
				Flags: []cli.Flag{
					configFlag,
					inputFlag,
					&cli.StringFlag{Name: "name", Usage: "Block entry name", Required: true},
					&cli.StringFlag{Name: "reason", Usage: "Why the add-ons are blocked", Required: true},
					&cli.StringFlag{Name: "bug", Usage: "Bug tracker URL for the block"},
					&cli.BoolFlag{Name: "soft", Usage: "Soft-block (warn) instead of hard-block"},
					&cli.StringFlag{Name: "min-version", Usage: "Lowest blocked version (single guid only)"},
					&cli.StringFlag{Name: "max-version", Usage: "Highest blocked version (single guid only)"},
					&cli.BoolFlag{Name: "review", Usage: "Request review after staging"},
				},
				Action: func(cCtx *cli.Context) error {
					return blockGuids(cCtx, configDir, inputPath)
				},
			},
			{
				Name:      "expand",
				Aliases:   []string{"e"},
				Usage:     "Expand a generated alternation pattern back into guids",
				ArgsUsage: "PATTERN",
				Action:    expandPattern,
			},
			{
				Name:  "status",
				Usage: "Show the staging collection's review status",
				Flags: []cli.Flag{configFlag},
				Action: func(cCtx *cli.Context) error {
					_, client, err := loadSetup(configDir)
					if err != nil {
						return err
					}
					status, err := client.CollectionStatus(cCtx.Context)
					if err != nil {
						return err
					}
					fmt.Println(status)
					return nil
				},
			},
			{
				Name:  "review",
				Usage: "Request review of the work-in-progress changeset",
				Flags: []cli.Flag{configFlag},
				Action: func(cCtx *cli.Context) error {
					_, client, err := loadSetup(configDir)
					if err != nil {
						return err
					}
					return collection.RequestReview(cCtx.Context, client)
				},
			},
			{
				Name:  "sign",
				Usage: "Approve the to-review changeset for signing",
				Flags: []cli.Flag{configFlag},
				Action: func(cCtx *cli.Context) error {
					_, client, err := loadSetup(configDir)
					if err != nil {
						return err
					}
					return collection.Sign(cCtx.Context, client)
				},
			},
			{
				Name:  "reject",
				Usage: "Send the to-review changeset back to work-in-progress",
				Flags: []cli.Flag{configFlag},
				Action: func(cCtx *cli.Context) error {
					_, client, err := loadSetup(configDir)
					if err != nil {
						return err
					}
					return collection.Reject(cCtx.Context, client)
				},
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func classifyInput(cCtx *cli.Context, configDir, inputPath string) (*config.Config, kinto.Client, blocklist.Classification, error) {
	conf, client, err := loadSetup(configDir)
	if err != nil {
		return nil, nil, blocklist.Classification{}, err
	}
	candidates, err := input.Candidates(inputPath)
	if err != nil {
		return nil, nil, blocklist.Classification{}, err
	}
	snapshot, err := client.FetchRecords(cCtx.Context)
	if err != nil {
		return nil, nil, blocklist.Classification{}, fmt.Errorf("fetching blocklist snapshot: %w", err)
	}
	index := blocklist.BuildIndex(snapshot, os.Stderr)
	return conf, client, index.Classify(candidates), nil
}

func checkGuids(cCtx *cli.Context, configDir, inputPath, format string) error {
	outputFormat, err := validateFormat(format)
	if err != nil {
		return err
	}
	_, _, result, err := classifyInput(cCtx, configDir, inputPath)
	if err != nil {
		return err
	}
	rendered, err := formatClassification(result, outputFormat)
	if err != nil {
		return err
	}
	fmt.Println(rendered)
	return nil
}

func blockGuids(cCtx *cli.Context, configDir, inputPath string) error {
	conf, client, result, err := classifyInput(cCtx, configDir, inputPath)
	if err != nil {
		return err
	}
	for _, match := range result.Existing {
		logger.Info("already blocked", "guid", match.Guid, "pattern", match.Entry.GuidPattern)
	}
	if len(result.New) == 0 {
		logger.Info("nothing to block")
		return nil
	}

	severity := blocklist.SeverityHard
	if cCtx.Bool("soft") {
		severity = blocklist.SeveritySoft
	}
	builder := blocklist.Builder{Warnings: os.Stderr}
	if conf.MaxBlockLength != nil {
		builder.MaxBlockLength = *conf.MaxBlockLength
	}
	requests, err := builder.BuildRequests(result.New, blocklist.Metadata{
		Name:         cCtx.String("name"),
		ReasonText:   cCtx.String("reason"),
		Severity:     severity,
		MinVersion:   cCtx.String("min-version"),
		MaxVersion:   cCtx.String("max-version"),
		BugReference: cCtx.String("bug"),
	})
	if err != nil {
		return err
	}

	if err := collection.AssertCanCreate(cCtx.Context, client, conf.Create.Permissive); err != nil {
		return err
	}
	for _, request := range requests {
		if err := client.CreateRecord(cCtx.Context, request); err != nil {
			return fmt.Errorf("staging record for %s: %w", request.Guid, err)
		}
	}
	logger.Info("staged block entries", "entries", len(requests), "guids", len(result.New))

	if cCtx.Bool("review") {
		return collection.RequestReview(cCtx.Context, client)
	}
	return nil
}

func expandPattern(cCtx *cli.Context) error {
	pattern := cCtx.Args().First()
	if pattern == "" {
		return fmt.Errorf("expand requires a pattern argument")
	}
	guids := guidregex.Expand(pattern)
	if guids == nil {
		return fmt.Errorf("pattern is not a generated alternation and cannot be expanded")
	}
	for _, guid := range guids {
		fmt.Println(guid)
	}
	return nil
}
