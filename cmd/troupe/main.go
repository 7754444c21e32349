package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/troupekit/troupe"
	"github.com/troupekit/troupe/logging"
	"github.com/troupekit/troupe/scenario"
)

var rootCmd = &cobra.Command{
	Use:   "troupe",
	Short: "Troupe scenario runner",
	Long: `Troupe runs discrete event simulations of autonomous actors.
A scenario file declares shared stores and containers plus the movers that
haul items between them; troupe builds the stage, runs the clock, and
reports what every actor and resource ended up with.`,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(versionCmd())
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("TROUPE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text or json)")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func runCmd() *cobra.Command {
	var until float64
	cmd := &cobra.Command{
		Use:   "run <scenario.yml>",
		Short: "Run a scenario to completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("until") {
				s.Until = until
			}
			res, err := scenario.Run(s, newLogger())
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(res)
			}
			printResult(res)
			return nil
		},
	}
	cmd.Flags().Float64Var(&until, "until", 0, "stop the clock at this time (0 runs to completion)")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario.yml>",
		Short: "Check a scenario file without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("%s: ok (%d stores, %d containers, %d movers)\n",
				s.Name, len(s.Stores), len(s.Containers), len(s.Movers))
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the troupe version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("troupe", troupe.Version)
		},
	}
}

func newLogger() logging.Logger {
	level := logging.LogLevelWarn
	switch viper.GetString("log-level") {
	case "debug":
		level = logging.LogLevelDebug
	case "info":
		level = logging.LogLevelInfo
	case "error":
		level = logging.LogLevelError
	}
	return logging.NewSlogLogger(level, viper.GetString("log-format"), false)
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func printResult(res *scenario.Result) {
	unit := res.TimeUnit
	fmt.Printf("%s finished at t=%.3f %s\n\n", res.Scenario, res.Elapsed, unit)

	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.SetTitle("Movers")
	tw.AppendHeader(table.Row{"Name", "Trips", "Fuel", "Parked"})
	for _, m := range res.Movers {
		tw.AppendRow(table.Row{m.Name, m.Trips, fmt.Sprintf("%.2f", m.Fuel), m.Parked})
	}
	tw.Render()

	if len(res.Stores) > 0 {
		tw = table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.SetTitle("Stores")
		tw.AppendHeader(table.Row{"Name", "Items", "Samples"})
		for _, st := range res.Stores {
			tw.AppendRow(table.Row{st.Name, st.Count, len(st.Readings)})
		}
		tw.Render()
	}

	if len(res.Containers) > 0 {
		tw = table.NewWriter()
		tw.SetOutputMirror(os.Stdout)
		tw.SetTitle("Containers")
		tw.AppendHeader(table.Row{"Name", "Level", "Samples"})
		for _, c := range res.Containers {
			tw.AppendRow(table.Row{c.Name, fmt.Sprintf("%.2f", c.Level), len(c.Readings)})
		}
		tw.Render()
	}
}
