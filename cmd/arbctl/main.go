// Package main provides arbctl, a command line client for the engine API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/yourusername/arb-hedger/internal/api"
	"github.com/yourusername/arb-hedger/internal/models"
	"github.com/yourusername/arb-hedger/internal/provider"
	"github.com/yourusername/arb-hedger/internal/scheduler"
	"github.com/yourusername/arb-hedger/internal/service"
)

var (
	client *apiClient
	filter service.ScanFilter
)

var rootCmd = &cobra.Command{
	Use:   "arbctl",
	Short: "Estimate and run arbitrage scans, trigger jobs",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log := logrus.New()
		log.SetLevel(logrus.WarnLevel)
		if viper.GetBool("verbose") {
			log.SetLevel(logrus.DebugLevel)
		}
		client = newAPIClient(viper.GetString("server"), viper.GetString("actor"), viper.GetDuration("timeout"), log)
	},
}

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Show the credits a scan would cost without calling the provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		var est provider.Estimate
		if err := client.do(cmd.Context(), "POST", "/v1/estimate", filter, &est); err != nil {
			return err
		}
		for _, ep := range est.Endpoints {
			fmt.Printf("%-40s markets=%s requests=%d credits=%d\n", ep.Path, strings.Join(ep.Markets, ","), ep.Requests, ep.Credits)
		}
		fmt.Printf("eligible bookmakers: %s\n", strings.Join(est.EligibleBookmakers, ", "))
		fmt.Printf("total: %d requests, %d credits\n", est.TotalRequests, est.TotalCredits)
		return nil
	},
}

var (
	confirm   bool
	minProfit float64
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run a paid scan (requires --confirm)",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := service.ScanRequest{Filter: filter, Confirm: confirm}
		if cmd.Flags().Changed("min-profit") {
			req.MinProfitPct = &minProfit
		}
		var result service.ScanResult
		if err := client.do(cmd.Context(), "POST", "/v1/scan", req, &result); err != nil {
			return err
		}
		return printJSON(result)
	},
}

var eligibleCmd = &cobra.Command{
	Use:   "eligible",
	Short: "List sportsbooks legal in every given jurisdiction",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		for _, j := range filter.Jurisdictions {
			q.Add("jurisdiction", j)
		}
		var resp api.EligibilityResponse
		if err := client.do(cmd.Context(), "GET", "/v1/eligibility?"+q.Encode(), nil, &resp); err != nil {
			return err
		}
		for _, b := range resp.Bookmakers {
			fmt.Println(b)
		}
		return nil
	},
}

var opportunitiesCmd = &cobra.Command{
	Use:   "opportunities",
	Short: "List unexpired opportunities, best first",
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp api.OpportunitiesResponse
		if err := client.do(cmd.Context(), "GET", "/v1/opportunities", nil, &resp); err != nil {
			return err
		}
		for _, o := range resp.Opportunities {
			fmt.Printf("%-40s profit=%.2f%% locked=%.2f confidence=%.2f expires=%s %s\n",
				o.MarketID, o.ProfitPct, o.LockedProfit, o.Confidence, o.ExpiresAt.Format(time.RFC3339), o.Provenance)
		}
		return nil
	},
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Show scheduler job status",
	RunE: func(cmd *cobra.Command, args []string) error {
		var statuses []scheduler.JobStatus
		if err := client.do(cmd.Context(), "GET", "/v1/jobs", nil, &statuses); err != nil {
			return err
		}
		return printJSON(statuses)
	},
}

var runJobCmd = &cobra.Command{
	Use:   "run-job <name>",
	Short: "Run a scheduler job now",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var run models.JobRun
		if err := client.do(cmd.Context(), "POST", "/v1/jobs/"+url.PathEscape(args[0])+"/run", nil, &run); err != nil {
			return err
		}
		fmt.Printf("%s %s %s %s\n", run.JobName, run.State, run.Duration(), run.Summary)
		return nil
	},
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("server", "http://localhost:8081", "Engine API base URL")
	pf.String("actor", os.Getenv("USER"), "Name recorded in audit entries")
	pf.Duration("timeout", 2*time.Minute, "Request timeout")
	pf.BoolP("verbose", "v", false, "Log HTTP retries")
	for _, name := range []string{"server", "actor", "timeout", "verbose"} {
		_ = viper.BindPFlag(name, pf.Lookup(name))
	}
	viper.SetEnvPrefix("ARB_HEDGER")
	viper.AutomaticEnv()

	for _, cmd := range []*cobra.Command{estimateCmd, scanCmd, eligibleCmd} {
		cmd.Flags().StringSliceVarP(&filter.Jurisdictions, "jurisdiction", "j", nil, "Jurisdiction codes (repeatable)")
	}
	for _, cmd := range []*cobra.Command{estimateCmd, scanCmd} {
		cmd.Flags().StringSliceVar(&filter.Sports, "sport", nil, "Sports (default: engine config)")
		cmd.Flags().StringSliceVar(&filter.Markets, "market", nil, "Markets (default: engine config)")
		cmd.Flags().BoolVar(&filter.LiveOnly, "live", false, "In-play events only")
	}
	scanCmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm spending provider credits")
	scanCmd.Flags().Float64Var(&minProfit, "min-profit", 0, "Minimum profit percentage")

	rootCmd.AddCommand(estimateCmd, scanCmd, eligibleCmd, opportunitiesCmd, jobsCmd, runJobCmd)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
