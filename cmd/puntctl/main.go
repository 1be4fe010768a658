// Package main provides puntctl, a CLI for inspecting and operating the
// staking service: evaluating opportunities, settling bets, and reviewing
// performance.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/puntguard/internal/config"
	"github.com/yourusername/puntguard/internal/database"
	"github.com/yourusername/puntguard/internal/ledger"
	"github.com/yourusername/puntguard/internal/models"
	"github.com/yourusername/puntguard/internal/repository"
	"github.com/yourusername/puntguard/internal/risk"
	"github.com/yourusername/puntguard/internal/staking"
)

var (
	configFile string
	cfg        *config.Config
	cliLog     *logrus.Logger
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")

	evaluateCmd.Flags().Float64("probability", 0, "Estimated win probability (0-1)")
	evaluateCmd.Flags().Float64("odds", 0, "Decimal odds")
	evaluateCmd.Flags().String("plan", "", "Staking plan name (defaults to configured plan)")
	evaluateCmd.Flags().Float64("bankroll", 0, "Bankroll balance to size against (defaults to configured initial balance)")
	evaluateCmd.MarkFlagRequired("probability")
	evaluateCmd.MarkFlagRequired("odds")

	settleCmd.Flags().String("outcome", "", "Settlement outcome: won, lost or void")
	settleCmd.Flags().Float64("return", 0, "Return amount for a won bet (stake times odds)")
	settleCmd.MarkFlagRequired("outcome")

	summaryCmd.Flags().Int("days", 30, "Number of days of settled bets to include")

	rootCmd.AddCommand(evaluateCmd, settleCmd, summaryCmd)
}

var rootCmd = &cobra.Command{
	Use:   "puntctl",
	Short: "Operate the PuntGuard staking service",
	Long:  `Evaluates betting opportunities, settles bets and reports bankroll performance.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadWithDefaults(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		cliLog = logrus.New()
		cliLog.SetLevel(logrus.WarnLevel)
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Evaluate a betting opportunity",
	Long:  `Computes the edge and recommended stake for a probability/odds pair without touching the ledger.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		probability, _ := cmd.Flags().GetFloat64("probability")
		odds, _ := cmd.Flags().GetFloat64("odds")
		planName, _ := cmd.Flags().GetString("plan")
		bankroll, _ := cmd.Flags().GetFloat64("bankroll")

		if planName == "" {
			planName = cfg.Staking.DefaultPlan
		}
		plan, err := cfg.Plan(planName)
		if err != nil {
			return err
		}
		if bankroll == 0 {
			bankroll = cfg.Bankroll.InitialBalance
		}

		view := models.BankrollView{Balance: bankroll, Initial: bankroll}
		rec, err := staking.Evaluate(probability, odds, plan, view)
		if err != nil {
			return err
		}

		fmt.Printf("Plan:   %s (%s)\n", plan.Name, plan.Method)
		fmt.Printf("Edge:   %+.4f\n", rec.Edge)
		if !rec.Accepted {
			fmt.Printf("Result: no bet (%s)\n", rec.Reason)
			return nil
		}

		if err := risk.Check(rec.Stake, view, plan.Risk); err != nil {
			if limitErr, ok := models.AsRiskLimitError(err); ok {
				fmt.Printf("Result: blocked by risk gate (%s)\n", limitErr.Reason)
				return nil
			}
			return err
		}

		fmt.Printf("Stake:  %.2f\n", rec.Stake)
		fmt.Printf("EV:     %+.2f\n", staking.ExpectedValue(probability, odds, rec.Stake))
		return nil
	},
}

var settleCmd = &cobra.Command{
	Use:   "settle <bet-id>",
	Short: "Settle a pending bet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		betID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid bet id %q: %w", args[0], err)
		}

		outcomeStr, _ := cmd.Flags().GetString("outcome")
		returnAmount, _ := cmd.Flags().GetFloat64("return")
		outcome := models.BetOutcome(outcomeStr)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, betRepo, bankrollRepo, err := connect(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		ldg, err := loadLedger(ctx, betRepo, bankrollRepo)
		if err != nil {
			return err
		}

		bet, err := ldg.SettleBet(ctx, betID, outcome, returnAmount)
		if err != nil {
			return err
		}

		view := ldg.Snapshot()
		fmt.Printf("Settled %s as %s (P/L %+.2f)\n", bet.ID, bet.Status, bet.ProfitLoss())
		fmt.Printf("Balance: %.2f  Exposure: %.2f\n", view.Balance, view.Exposure)
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show betting performance",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, betRepo, bankrollRepo, err := connect(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		end := time.Now().UTC()
		start := end.Add(-time.Duration(days) * 24 * time.Hour)
		settled, err := betRepo.GetSettledBets(ctx, start, end)
		if err != nil {
			return err
		}

		var wins, losses, voids int
		var totalStaked, totalReturned float64
		for _, bet := range settled {
			switch bet.Status {
			case models.BetStatusWon:
				wins++
			case models.BetStatusLost:
				losses++
			case models.BetStatusVoid:
				voids++
				continue
			}
			totalStaked += bet.Stake
			totalReturned += bet.Return()
		}

		fmt.Printf("Settled bets (%d days): %d won, %d lost, %d void\n", days, wins, losses, voids)
		if wins+losses > 0 {
			fmt.Printf("Win rate: %.1f%%\n", float64(wins)/float64(wins+losses)*100)
		}
		if totalStaked > 0 {
			fmt.Printf("Staked:   %.2f\n", totalStaked)
			fmt.Printf("Returned: %.2f\n", totalReturned)
			fmt.Printf("ROI:      %+.1f%%\n", (totalReturned-totalStaked)/totalStaked*100)
		}

		snapshot, err := bankrollRepo.GetLatest(ctx)
		if err == nil {
			growth := 0.0
			if snapshot.Initial > 0 {
				growth = (snapshot.Balance - snapshot.Initial) / snapshot.Initial * 100
			}
			fmt.Printf("Balance:  %.2f (%+.1f%% growth)\n", snapshot.Balance, growth)
		}
		return nil
	},
}

func connect(ctx context.Context) (*database.DB, repository.BetRepository, repository.BankrollRepository, error) {
	db, err := database.NewDB(ctx, database.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		Name:               cfg.Database.Name,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     cfg.Database.MaxConnections,
		MaxIdleConnections: cfg.Database.MaxIdleConnections,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, repository.NewPostgresBetRepository(db), repository.NewPostgresBankrollRepository(db), nil
}

func loadLedger(ctx context.Context, betRepo repository.BetRepository, bankrollRepo repository.BankrollRepository) (*ledger.Ledger, error) {
	snapshot, err := bankrollRepo.GetLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("no bankroll history; is the service initialized? %w", err)
	}
	pending, err := betRepo.GetPendingBets(ctx)
	if err != nil {
		return nil, err
	}
	settledSince, err := betRepo.GetSettledBets(ctx, snapshot.Time, time.Now())
	if err != nil {
		return nil, err
	}
	return ledger.NewFromState(*snapshot, pending, settledSince, betRepo, cliLog), nil
}
