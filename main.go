// Package main is the CLI entrypoint for the oref treatment history core.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrcode/oref-go/internal/cob"
	"github.com/mrcode/oref-go/internal/config"
	"github.com/mrcode/oref-go/internal/history"
	"github.com/mrcode/oref-go/internal/iob"
	"github.com/mrcode/oref-go/internal/meal"
	"github.com/mrcode/oref-go/internal/models"
	"github.com/mrcode/oref-go/internal/nightscout"
	"github.com/mrcode/oref-go/internal/store"
	"github.com/mrcode/oref-go/internal/timeutil"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

var (
	profilePath string
	historyPath string
	glucosePath string
	dbPath      string
	clockArg    string
	zeroTemp    int

	fetchURL    string
	fetchToken  string
	fetchSecret string
	fetchHours  int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "oref",
		Short:         "Treatment history decomposition for IOB/COB estimation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&profilePath, "profile", "profile.yaml", "profile YAML file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite treatment cache (used instead of --history when set)")
	rootCmd.PersistentFlags().StringVar(&clockArg, "clock", "", "clock override (RFC3339, default now)")

	iobCmd := &cobra.Command{
		Use:   "iob",
		Short: "Decompose history into discrete insulin doses",
		RunE:  runIOB,
	}
	iobCmd.Flags().StringVar(&historyPath, "history", "", "treatment history JSON file")
	iobCmd.Flags().IntVar(&zeroTemp, "zero-temp", 0, "zero-temp projection minutes")

	mealCmd := &cobra.Command{
		Use:   "meal",
		Short: "Aggregate carb entries and estimate carbs on board",
		RunE:  runMeal,
	}
	mealCmd.Flags().StringVar(&historyPath, "history", "", "treatment history JSON file")
	mealCmd.Flags().StringVar(&glucosePath, "glucose", "", "glucose entries JSON file")

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Pull treatment history from Nightscout into the local cache",
		RunE:  runFetch,
	}
	fetchCmd.Flags().StringVar(&fetchURL, "url", "", "Nightscout base URL")
	fetchCmd.Flags().StringVar(&fetchToken, "token", "", "Nightscout access token")
	fetchCmd.Flags().StringVar(&fetchSecret, "secret", "", "Nightscout API secret")
	fetchCmd.Flags().IntVar(&fetchHours, "hours", 24, "hours of history to fetch")

	rootCmd.AddCommand(iobCmd, mealCmd, fetchCmd)
	return rootCmd
}

func resolveClock() (time.Time, error) {
	if clockArg == "" {
		return time.Now().UTC(), nil
	}
	return timeutil.ParseTimestamp(clockArg)
}

func loadTreatments(clock time.Time, p float64) ([]models.Treatment, error) {
	if dbPath != "" {
		st, err := store.Open(dbPath)
		if err != nil {
			return nil, fmt.Errorf("opening treatment cache: %w", err)
		}
		defer func() {
			_ = st.Close()
		}()
		from := clock.Add(-time.Duration(p * float64(time.Hour)))
		return st.ListTreatments(context.Background(), from, clock)
	}

	if historyPath == "" {
		return nil, fmt.Errorf("either --history or --db is required")
	}
	data, err := os.ReadFile(historyPath)
	if err != nil {
		return nil, fmt.Errorf("reading history file: %w", err)
	}
	var treatments []models.Treatment
	if err := json.Unmarshal(data, &treatments); err != nil {
		return nil, fmt.Errorf("parsing history file: %w", err)
	}
	return treatments, nil
}

func runIOB(_ *cobra.Command, _ []string) error {
	prof, err := config.LoadProfile(profilePath)
	if err != nil {
		return err
	}
	clock, err := resolveClock()
	if err != nil {
		return err
	}
	treatments, err := loadTreatments(clock, prof.EffectiveDIA())
	if err != nil {
		return err
	}

	doses := history.FindInsulinTreatments(prof, treatments, clock, zeroTemp)
	totals := iob.Calculate(prof, doses, clock)
	logger.Info("decomposed history",
		"events", len(treatments), "doses", len(doses),
		"iob", totals.IOB, "zeroTempMinutes", zeroTemp)

	out := struct {
		iob.Result
		Doses []models.Treatment `json:"doses"`
	}{totals, doses}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func runMeal(_ *cobra.Command, _ []string) error {
	prof, err := config.LoadProfile(profilePath)
	if err != nil {
		return err
	}
	clock, err := resolveClock()
	if err != nil {
		return err
	}
	treatments, err := loadTreatments(clock, prof.MaxMealAbsorptionHours)
	if err != nil {
		return err
	}

	var glucose []models.GlucoseEntry
	if glucosePath != "" {
		data, err := os.ReadFile(glucosePath)
		if err != nil {
			return fmt.Errorf("reading glucose file: %w", err)
		}
		if err := json.Unmarshal(data, &glucose); err != nil {
			return fmt.Errorf("parsing glucose file: %w", err)
		}
	}

	data, err := meal.Generate(prof, treatments, glucose, clock, cob.New())
	if err != nil {
		return err
	}
	logger.Info("aggregated meals",
		"carbs", data.Carbs, "mealCOB", data.MealCOB, "lastCarbTime", data.LastCarbTime)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func runFetch(_ *cobra.Command, _ []string) error {
	if fetchURL == "" {
		return fmt.Errorf("--url is required")
	}
	if dbPath == "" {
		return fmt.Errorf("--db is required")
	}
	clock, err := resolveClock()
	if err != nil {
		return err
	}

	client := nightscout.NewClient(fetchURL, fetchSecret, fetchToken, fetchToken != "")
	from := clock.Add(-time.Duration(fetchHours) * time.Hour)
	treatments, err := client.GetTreatments(from, clock, 0)
	if err != nil {
		return fmt.Errorf("fetching treatments: %w", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening treatment cache: %w", err)
	}
	defer func() {
		_ = st.Close()
	}()

	if err := st.InsertTreatments(context.Background(), treatments); err != nil {
		return fmt.Errorf("storing treatments: %w", err)
	}

	logger.Info("fetched treatments", "count", len(treatments), "from", from.Format(time.RFC3339))
	return nil
}
