package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"segdl/config"
	"segdl/history"
	"segdl/logger"
	"segdl/progress"
	"segdl/server"
)

const (
	defaultListenAddr = ":8080"
	defaultConfigPath = "./config.json"
	defaultHistoryDB  = "./history.db"
)

var (
	listenAddr string
	configPath string
	outputDir  string
	withUI     bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "segdl",
	Short: "Segmented, concurrent HTTP downloader with an HTTP control plane",
	RunE:  runServe,
}

func init() {
	rootCmd.Flags().StringVar(&listenAddr, "listen", defaultListenAddr, "address the control plane listens on")
	rootCmd.Flags().StringVar(&configPath, "config", defaultConfigPath, "path to the persisted config file")
	rootCmd.Flags().StringVar(&outputDir, "output-dir", "", "override the configured output directory")
	rootCmd.Flags().BoolVar(&withUI, "progress", false, "render a terminal progress bar for each job")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfgStore, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if outputDir != "" {
		snapshot := cfgStore.Snapshot()
		snapshot.OutputDir = outputDir
		if err := cfgStore.Update(snapshot); err != nil {
			return fmt.Errorf("apply --output-dir override: %w", err)
		}
	}

	hist, err := history.Open(defaultHistoryDB)
	if err != nil {
		return fmt.Errorf("open job history: %w", err)
	}
	defer hist.Close()

	var mgr progress.Manager
	if withUI {
		mgr = progress.NewTUIManager("segdl")
	}

	log := logger.Default.Named("server")
	srv := server.New(cfgStore, hist, log, mgr)

	log.Logf("Server is running on %s", listenAddr)
	log.Logf("Download endpoint is running (`POST /download`)")
	log.Logf("Config endpoint is running (`PUT /config`)")

	return http.ListenAndServe(listenAddr, srv.Handler())
}
