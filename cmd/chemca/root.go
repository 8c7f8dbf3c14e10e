// Command chemca runs and serves the reactive-diffusive-orientational
// cellular-automaton engine, generalizing the teacher's flag-based
// single-mode main.go into a run/serve subcommand tree.
package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFile string
	log        = logrus.StandardLogger()
)

// rootCmd is the entry point; subcommands are registered in init().
var rootCmd = &cobra.Command{
	Use:   "chemca",
	Short: "Reactive-diffusive-orientational cellular-automaton engine",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(configFile)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "TOML configuration file (optional; env vars and flags override it)")
	rootCmd.AddCommand(runCmd, serveCmd)
}

func loadConfig(path string) error {
	viper.SetEnvPrefix("CHEMCA")
	viper.AutomaticEnv()
	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", 5432)
	viper.SetDefault("log.level", "info")

	if path != "" {
		var raw map[string]interface{}
		if _, err := toml.DecodeFile(path, &raw); err != nil {
			return fmt.Errorf("chemca: read config %s: %w", path, err)
		}
		if err := viper.MergeConfigMap(raw); err != nil {
			return fmt.Errorf("chemca: merge config %s: %w", path, err)
		}
	}

	level, err := logrus.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		return fmt.Errorf("chemca: parse log.level: %w", err)
	}
	log.SetLevel(level)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
