// Command merchant-insights runs the merchant transaction analytics job.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/datapeak/merchant-insights/internal/config"
	"github.com/datapeak/merchant-insights/internal/job"
	"github.com/datapeak/merchant-insights/internal/logging"
	"github.com/datapeak/merchant-insights/internal/report"
	"github.com/datapeak/merchant-insights/internal/version"
)

func customUsage() {
	fmt.Fprintf(os.Stderr, "merchant-insights (version %s)\n\n", version.Version)
	fmt.Fprintf(os.Stderr, "Usage: merchant-insights [options]\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	fmt.Fprintf(os.Stderr, "  -t, --transactions FILE\n\t\tTransactions Parquet file (required)\n")
	fmt.Fprintf(os.Stderr, "  -m, --merchants FILE\n\t\tMerchants CSV file (required)\n")
	fmt.Fprintf(os.Stderr, "  --task SELECTOR\n\t\tTasks to run: 1-5, comma separated, or \"all\" (default: all)\n")
	fmt.Fprintf(os.Stderr, "  -o, --output DIR\n\t\tOutput directory for report files (default: reports)\n")
	fmt.Fprintf(os.Stderr, "  --format FORMAT\n\t\tReport file format: csv or parquet (default: csv)\n")
	fmt.Fprintf(os.Stderr, "  --catalog\n\t\tAlso write result tables to the catalog database\n")
	fmt.Fprintf(os.Stderr, "  --catalog-dsn DSN\n\t\tCatalog database connection string\n")
	fmt.Fprintf(os.Stderr, "  --config FILE\n\t\tConfiguration file (yaml or json)\n")
	fmt.Fprintf(os.Stderr, "  --verbose\n\t\tEnable debug logging\n")
	fmt.Fprintf(os.Stderr, "  -v, --version\n\t\tPrint version information and exit\n")
	fmt.Fprintf(os.Stderr, "  -h, --help\n\t\tShow this help message and exit\n")
}

func main() {
	versionFlag := flag.Bool("v", false, "Print version and exit")
	flag.BoolVar(versionFlag, "version", false, "Print version and exit") // alias
	transactionsFlag := flag.String("t", "", "Transactions Parquet file")
	flag.StringVar(transactionsFlag, "transactions", "", "Transactions Parquet file") // alias
	merchantsFlag := flag.String("m", "", "Merchants CSV file")
	flag.StringVar(merchantsFlag, "merchants", "", "Merchants CSV file") // alias
	taskFlag := flag.String("task", "all", "Tasks to run")
	outputFlag := flag.String("o", "", "Output directory")
	flag.StringVar(outputFlag, "output", "", "Output directory") // alias
	formatFlag := flag.String("format", "", "Report file format: csv or parquet")
	catalogFlag := flag.Bool("catalog", false, "Write result tables to the catalog database")
	catalogDSNFlag := flag.String("catalog-dsn", "", "Catalog database connection string")
	configFlag := flag.String("config", "", "Configuration file (yaml or json)")
	verboseFlag := flag.Bool("verbose", false, "Enable debug logging")

	flag.Usage = customUsage
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.Info().String())
		return
	}

	cfg, err := buildConfig(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Flags override config file and environment.
	if *transactionsFlag != "" {
		cfg.TransactionsPath = *transactionsFlag
	}
	if *merchantsFlag != "" {
		cfg.MerchantsPath = *merchantsFlag
	}
	if *outputFlag != "" {
		cfg.OutputDir = *outputFlag
	}
	if *formatFlag != "" {
		cfg.Format = *formatFlag
	}
	if *catalogFlag {
		cfg.Catalog.Enabled = true
	}
	if *catalogDSNFlag != "" {
		cfg.Catalog.DSN = *catalogDSNFlag
	}
	if *verboseFlag {
		cfg.Verbose = true
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		flag.Usage()
		os.Exit(1)
	}

	selection, err := job.ParseSelection(*taskFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Verbose)
	ctx := logging.WithContext(context.Background(), logger)

	writer, cleanup, err := buildWriter(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("writer setup failed")
		os.Exit(1)
	}
	defer cleanup()

	runner := job.NewRunner(cfg, logger, writer)
	results, err := runner.Run(ctx, selection)
	if err != nil {
		logger.Error().Err(err).Msg("run failed")
		os.Exit(1)
	}

	for _, result := range results {
		if result.Err != nil {
			logger.Warn().Int("task", result.Task).Str("name", result.Name).
				Err(result.Err).Msg("task did not complete")
		}
	}
}

// buildConfig layers defaults, optional config file, and environment.
func buildConfig(path string) (config.Config, error) {
	cfg := config.NewConfig()
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	return config.LoadFromEnv(cfg), nil
}

// buildWriter assembles the report sink: always the file sink, plus the
// catalog sink when enabled.
func buildWriter(ctx context.Context, cfg config.Config) (report.Writer, func(), error) {
	fileWriter := report.NewFileWriter(cfg.OutputDir, cfg.Format)
	if !cfg.Catalog.Enabled {
		return fileWriter, func() {}, nil
	}

	catalogWriter, err := report.NewCatalogWriter(ctx, cfg.Catalog.DSN, cfg.Catalog.Schema)
	if err != nil {
		return nil, nil, err
	}
	return report.NewMultiWriter(fileWriter, catalogWriter), catalogWriter.Close, nil
}
