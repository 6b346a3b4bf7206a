package main

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/carbocation/ldclump"
	"github.com/carbocation/pfx"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	bfile       string
	base        string
	configPath  string
	compression string
	out         string
	statCol     string
	isOR        bool
	verbose     bool

	p        float64
	r2       float64
	distance uint64
	threads  int
}

func rootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "clump",
		Short:         "LD-clump GWAS summary statistics against a PLINK reference panel",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.bfile, "bfile", "", "Prefix of the PLINK bed/bim/fam reference panel (local or gs://)")
	f.StringVar(&opts.base, "base", "", "Summary statistics file (local or gs://)")
	f.StringVar(&opts.configPath, "config", "", "Optional TOML file with clumping thresholds")
	f.StringVar(&opts.compression, "compression", "none", "Compression of the base file: none, gzip or zstd")
	f.StringVar(&opts.out, "out", "clump.db", "SQLite report to write")
	f.StringVar(&opts.statCol, "stat", "BETA", "Name of the effect size column")
	f.BoolVar(&opts.isOR, "or", false, "The effect size column holds odds ratios")
	f.BoolVar(&opts.verbose, "verbose", false, "Log progress")

	def := ldclump.DefaultConfig()
	f.Float64Var(&opts.p, "p", def.PThreshold, "p-value threshold for index variants")
	f.Float64Var(&opts.r2, "r2", def.R2Threshold, "r2 threshold for absorbing neighbors")
	f.Uint64Var(&opts.distance, "distance", def.MaxDistance, "Window half-width in bp")
	f.IntVar(&opts.threads, "threads", def.Threads, "Worker goroutines per window evaluation")

	cmd.MarkFlagRequired("bfile")
	cmd.MarkFlagRequired("base")

	return cmd
}

func run(cmd *cobra.Command, opts options) error {
	ctx := cmd.Context()

	level := zerolog.InfoLevel
	if opts.verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	cfg, err := config(cmd, opts)
	if err != nil {
		return err
	}

	comp, err := ldclump.ParseCompression(opts.compression)
	if err != nil {
		return err
	}

	bfile, err := expandHome(opts.bfile)
	if err != nil {
		return err
	}
	basePath, err := expandHome(opts.base)
	if err != nil {
		return err
	}

	logger.Info().Str("bfile", bfile).Msg("Opening reference panel")
	panel, err := ldclump.OpenPanel(ctx, bfile)
	if err != nil {
		return err
	}
	defer panel.Close()
	logger.Info().
		Uint32("samples", panel.NSamples).
		Int("founders", panel.Founders()).
		Uint32("variants", panel.NVariants).
		Msg("Reference panel loaded")

	rc, err := ldclump.OpenStream(ctx, basePath, comp)
	if err != nil {
		return err
	}
	cols := ldclump.DefaultBaseColumns()
	cols.Stat = opts.statCol
	variants, stats, err := ldclump.ReadBase(rc, cols, ldclump.BaseOptions{IsOR: opts.isOR, PThreshold: 1.0})
	rc.Close()
	if err != nil {
		return err
	}

	variants = ldclump.AlignToPanel(variants, panel, &stats)
	logBaseStats(logger, stats, len(variants))

	clumper, err := ldclump.NewClumper(cfg, ldclump.WithLogger(logger))
	if err != nil {
		return err
	}

	res, err := clumper.Run(variants, panel)
	if err != nil {
		return err
	}

	if err := ldclump.WriteReport(opts.out, cfg, res); err != nil {
		return err
	}
	logger.Info().Str("report", opts.out).Str("driver", ldclump.WhichSQLiteDriver()).Msg("Report written")

	fmt.Println(strings.Join([]string{"SNP", "CHR", "BP", "P", "NABSORBED", "MEMBERS"}, "\t"))
	for _, cl := range res.Clumps {
		v := cl.Index
		fmt.Printf("%s\t%s\t%d\t%g\t%d\t%d\n", v.ID, ldclump.ChromosomeName(v.Chromosome), v.Position, v.P, v.NAbsorbed(), len(cl.Members))
	}

	return nil
}

// config layers the command line over the TOML file over the defaults.
func config(cmd *cobra.Command, opts options) (ldclump.Config, error) {
	cfg := ldclump.DefaultConfig()
	if opts.configPath != "" {
		path, err := expandHome(opts.configPath)
		if err != nil {
			return cfg, err
		}
		if cfg, err = ldclump.LoadConfig(path); err != nil {
			return cfg, err
		}
	}

	f := cmd.Flags()
	if f.Changed("p") {
		cfg.PThreshold = opts.p
	}
	if f.Changed("r2") {
		cfg.R2Threshold = opts.r2
	}
	if f.Changed("distance") {
		cfg.MaxDistance = opts.distance
	}
	if f.Changed("threads") {
		cfg.Threads = opts.threads
	}

	return cfg, cfg.Validate()
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	usr, err := user.Current()
	if err != nil {
		return "", pfx.Err(err)
	}
	return filepath.Join(usr.HomeDir, path[2:]), nil
}

func logBaseStats(logger zerolog.Logger, stats ldclump.BaseStats, kept int) {
	if stats.Duplicated > 0 {
		logger.Warn().Int("n", stats.Duplicated).Msg("Duplicated variant(s) in base file")
	}
	if stats.Haploid > 0 {
		logger.Warn().Int("n", stats.Haploid).Msg("Haploid and sex chromosome variant(s) are not supported and were excluded")
	}
	if stats.Ambiguous > 0 {
		logger.Info().Int("n", stats.Ambiguous).Msg("Strand-ambiguous variant(s) excluded")
	}
	if stats.NotInPanel > 0 {
		logger.Info().Int("n", stats.NotInPanel).Msg("Variant(s) not found in the reference panel")
	}
	if stats.Mismatched > 0 {
		logger.Warn().Int("n", stats.Mismatched).Msg("Mismatched variant(s) excluded")
	}
	if stats.NotConverted > 0 {
		logger.Info().Int("n", stats.NotConverted).Msg("NA stat/p-value observed")
	}
	if stats.NegativeStat > 0 {
		logger.Warn().Int("n", stats.NegativeStat).Msg("Negative statistic observed. Please make sure it is really OR")
	}
	logger.Info().Int("read", stats.Read).Int("kept", kept).Msg("Total variants included from base file")
}
