package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/finwatch/finwatch/internal/advisor"
	"github.com/finwatch/finwatch/internal/chat"
	"github.com/finwatch/finwatch/internal/config"
	"github.com/finwatch/finwatch/internal/logger"
	"github.com/finwatch/finwatch/internal/portfolio"
	"github.com/finwatch/finwatch/internal/refresh"
	"github.com/finwatch/finwatch/internal/server"
	"github.com/finwatch/finwatch/internal/store"
)

var version = "dev"

var (
	verbose     bool
	configPath  string
	portfolioID string
	cfg         *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "finwatch",
	Short:   "Portfolio news alerts and health scoring",
	Long:    "Finwatch ingests financial news feeds, scores items against your holdings, deduplicates alerts across refresh cycles, and rolls everything into a portfolio health score.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for init and version
		if cmd.Name() == "init" || cmd.Name() == "version" {
			return nil
		}

		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err = config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if verbose {
			logger.Init("debug")
		} else {
			logger.Init(cfg.Logging.Level)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file")
	rootCmd.PersistentFlags().StringVarP(&portfolioID, "portfolio", "p", "default", "Portfolio id to operate on")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(adviseCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(holdingsCmd)
}

func openStore() (*store.SQLite, error) {
	return store.OpenSQLite(filepath.Join(cfg.GetDataDir(), "finwatch.db"))
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("finwatch", version)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration in ~/.config/finwatch/",
	RunE: func(cmd *cobra.Command, args []string) error {
		target := filepath.Join(config.ConfigDir(), "config.yaml")
		if _, err := os.Stat(target); err == nil {
			fmt.Printf("Config already exists: %s\n", target)
			return nil
		}

		if err := os.MkdirAll(config.ConfigDir(), 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		if err := os.WriteFile(target, config.DefaultConfigYAML, 0o644); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Printf("Created config: %s\n", target)
		fmt.Println("Edit it to configure feeds, the chat backend, and the advisor.")
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store and configuration status",
	RunE: func(cmd *cobra.Command, args []string) error {
		kv, err := openStore()
		if err != nil {
			return err
		}
		defer kv.Close()

		keys, err := kv.Keys()
		if err != nil {
			return fmt.Errorf("listing store keys: %w", err)
		}

		fmt.Printf("Store: %s\n", kv.Path())
		fmt.Printf("Configured feeds: %d\n", len(cfg.Feeds))
		fmt.Printf("Stored records: %d\n", len(keys))
		for _, k := range keys {
			fmt.Printf("  %s\n", k)
		}

		snapshot, err := portfolio.NewRecords(kv).Load(portfolioID)
		if err != nil {
			return err
		}
		fmt.Printf("Portfolio %q: %d holdings\n", portfolioID, len(snapshot.Holdings))
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run one refresh cycle: fetch, score, merge, health",
	RunE: func(cmd *cobra.Command, args []string) error {
		kv, err := openStore()
		if err != nil {
			return err
		}
		defer kv.Close()

		res := refresh.New(cfg, kv).Refresh(context.Background(), portfolioID, nil)

		if len(res.Alerts) == 0 {
			fmt.Println("No alerts for your holdings in the current window.")
		}
		for _, a := range res.Alerts {
			fmt.Printf("[%s] %-8s %.2f  %s\n", a.Sentiment, a.Symbol, a.RelevanceScore, a.Title)
		}

		fmt.Printf("\nHealth score: %d/100 (profitability %.0f, diversification %.0f, sentiment %.0f)\n",
			res.Health.Composite, res.Health.Profitability, res.Health.Diversification, res.Health.Sentiment)
		return nil
	},
}

var adviseCmd = &cobra.Command{
	Use:   "advise",
	Short: "Generate advisory text for the portfolio",
	RunE: func(cmd *cobra.Command, args []string) error {
		kv, err := openStore()
		if err != nil {
			return err
		}
		defer kv.Close()

		orch := refresh.New(cfg, kv)
		res := orch.Refresh(context.Background(), portfolioID, nil)
		snapshot := orch.Portfolio(portfolioID)

		adv := newAdvisor()
		text, err := adv.Advise(context.Background(), snapshot, res.Alerts)
		if err != nil {
			logger.Log.Debugf("advisory fell back: %v", err)
		}
		fmt.Println(text)
		return nil
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send one message to the assistant and stream the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Chat.BackendURL == "" {
			return fmt.Errorf("chat.backend_url is not configured")
		}

		client := chat.NewClient(cfg.Chat)

		printed := 0
		asm := chat.NewAssembler(func(current string) {
			if len(current) < printed {
				// fallback replaced the message; rewrite the line
				fmt.Print("\n")
				printed = 0
			}
			fmt.Print(current[printed:])
			printed = len(current)
		})

		err := client.Stream(cmd.Context(), asm, strings.Join(args, " "), portfolioID, nil, nil)
		fmt.Println()
		return err
	},
}

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		kv, err := openStore()
		if err != nil {
			return err
		}
		defer kv.Close()

		var chatClient *chat.Client
		if cfg.Chat.BackendURL != "" {
			chatClient = chat.NewClient(cfg.Chat)
		}

		srv := server.New(refresh.New(cfg, kv), newAdvisor(), chatClient)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		fmt.Printf("Starting server at http://localhost:%d\n", port)
		fmt.Println("Press Ctrl+C to stop")
		return srv.ListenAndServe(port)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to run server on (defaults to config)")
}

// --- holdings command ---

var holdingsCmd = &cobra.Command{
	Use:   "holdings",
	Short: "Manage portfolio holdings records",
}

var holdingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List holdings in the portfolio",
	RunE: func(cmd *cobra.Command, args []string) error {
		kv, err := openStore()
		if err != nil {
			return err
		}
		defer kv.Close()

		snapshot, err := portfolio.NewRecords(kv).Load(portfolioID)
		if err != nil {
			return err
		}

		if len(snapshot.Holdings) == 0 {
			fmt.Println("No holdings. Add one with: finwatch holdings set SYMBOL QTY AVG_PRICE CURRENT_VALUE [DAILY_CHANGE%]")
			return nil
		}

		fmt.Printf("Portfolio %q:\n", portfolioID)
		for _, h := range snapshot.Holdings {
			fmt.Printf("  %-8s qty %.2f  avg %.2f  value %.2f  daily %+.2f%%\n",
				h.Symbol, h.Quantity, h.AvgPrice, h.CurrentValue, h.DailyChangePercent)
		}
		fmt.Printf("Total invested: %.2f  current: %.2f\n", snapshot.TotalInvested(), snapshot.TotalValue())
		return nil
	},
}

var holdingsSetCmd = &cobra.Command{
	Use:   "set SYMBOL QTY AVG_PRICE CURRENT_VALUE [DAILY_CHANGE%]",
	Short: "Add or replace one holding",
	Args:  cobra.RangeArgs(4, 5),
	RunE: func(cmd *cobra.Command, args []string) error {
		kv, err := openStore()
		if err != nil {
			return err
		}
		defer kv.Close()

		nums := make([]float64, 0, 4)
		for _, raw := range args[1:] {
			n, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("invalid number %q", raw)
			}
			nums = append(nums, n)
		}

		h := portfolio.Holding{
			Symbol:       strings.ToUpper(args[0]),
			Quantity:     nums[0],
			AvgPrice:     nums[1],
			CurrentValue: nums[2],
		}
		if len(nums) > 3 {
			h.DailyChangePercent = nums[3]
		}

		records := portfolio.NewRecords(kv)
		snapshot, err := records.Load(portfolioID)
		if err != nil {
			return err
		}

		replaced := false
		for i := range snapshot.Holdings {
			if snapshot.Holdings[i].Symbol == h.Symbol {
				snapshot.Holdings[i] = h
				replaced = true
				break
			}
		}
		if !replaced {
			snapshot.Holdings = append(snapshot.Holdings, h)
		}
		snapshot.ID = portfolioID

		if err := records.Save(snapshot); err != nil {
			return err
		}
		fmt.Printf("Saved %s in portfolio %q\n", h.Symbol, portfolioID)
		return nil
	},
}

var holdingsRemoveCmd = &cobra.Command{
	Use:   "remove SYMBOL",
	Short: "Remove one holding",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kv, err := openStore()
		if err != nil {
			return err
		}
		defer kv.Close()

		symbol := strings.ToUpper(args[0])
		records := portfolio.NewRecords(kv)
		snapshot, err := records.Load(portfolioID)
		if err != nil {
			return err
		}

		kept := snapshot.Holdings[:0]
		found := false
		for _, h := range snapshot.Holdings {
			if h.Symbol == symbol {
				found = true
				continue
			}
			kept = append(kept, h)
		}
		if !found {
			return fmt.Errorf("holding %s not found", symbol)
		}

		snapshot.Holdings = kept
		if err := records.Save(snapshot); err != nil {
			return err
		}
		fmt.Printf("Removed %s from portfolio %q\n", symbol, portfolioID)
		return nil
	},
}

func init() {
	holdingsCmd.AddCommand(holdingsListCmd)
	holdingsCmd.AddCommand(holdingsSetCmd)
	holdingsCmd.AddCommand(holdingsRemoveCmd)
}

func newAdvisor() *advisor.Advisor {
	if !cfg.Advisor.Enabled {
		return advisor.New(nil, advisor.DefaultRetryPolicy, cfg.Advisor.MaxTokens)
	}
	policy := advisor.RetryPolicy{
		MaxRetries: cfg.Advisor.MaxRetries,
		Delay:      cfg.Advisor.RetryDelayDuration(),
	}
	return advisor.New(advisor.NewHTTPProvider(cfg.Advisor), policy, cfg.Advisor.MaxTokens)
}
