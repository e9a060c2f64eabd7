package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sgescale/gridwatch/config"
	"github.com/sgescale/gridwatch/controller"
	"github.com/sgescale/gridwatch/stats"
)

var configFile string
var logLevel string

func main() {
	rootCmd := &cobra.Command{
		Use:               "gridwatch",
		Short:             "gridwatch watches the Grid Engine queue and computes fleet scaling decisions",
		PersistentPreRunE: setup,
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "JSON config file (defaults used when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log_level", "info", "Log everything at this level and above (error|info|debug)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "once",
		Short: "Run a single planning cycle and print the decision as JSON",
		RunE:  runOnce,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Poll the scheduler on a fixed cadence and publish decisions",
		RunE:  runWatch,
	})

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	return nil
}

func loadConfig() (*config.Config, error) {
	var text []byte
	if configFile != "" {
		var err error
		text, err = ioutil.ReadFile(configFile)
		if err != nil {
			return nil, err
		}
	}
	return config.Parse(text)
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	w := cfg.CreateWatcher(stats.DefaultStatsReceiver().Scope("gridwatch"))
	d, err := w.Decide()
	if err != nil {
		return err
	}
	out, err := json.Marshal(d)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(out))
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log.Info("Starting gridwatch poll loop")
	poller := cfg.CreatePoller(stats.DefaultStatsReceiver().Scope("gridwatch"))
	defer poller.Close()

	var client *controller.Client
	if cfg.Report.ControllerUrl != "" {
		client = controller.NewClient(cfg.Report.ControllerUrl)
	}
	for d := range poller.Decisions() {
		log.Infof("Cycle %s: requiredNodes=%d busyNodes=%d", d.CycleID, d.RequiredNodes, d.BusyNodes)
		if client == nil {
			continue
		}
		if err := client.Publish(d); err != nil {
			log.Errorf("Failed to publish decision %s: %v", d.CycleID, err)
		}
	}
	return nil
}
