package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	replay "github.com/onflow/flow-slotpool/cmd/util/cmd/slotpool-replay"
	stress "github.com/onflow/flow-slotpool/cmd/util/cmd/slotpool-stress"
)

var (
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "util",
	Short: "Utility functions for slot pools",
	PersistentPreRunE: func(*cobra.Command, []string) error {
		lvl, err := zerolog.ParseLevel(viper.GetString("loglevel"))
		if err != nil {
			return fmt.Errorf("invalid log level: %w", err)
		}
		zerolog.SetGlobalLevel(lvl)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// using a console writer here; the commands are run by hand
	log.Logger = log.Output(zerolog.NewConsoleWriter())

	rootCmd.PersistentFlags().StringVarP(&flagLogLevel, "loglevel", "l", "info", "log level (panic, fatal, error, warn, info, debug)")
	_ = viper.BindPFlag("loglevel", rootCmd.PersistentFlags().Lookup("loglevel"))

	cobra.OnInitialize(initConfig)

	addCommands()
}

func addCommands() {
	rootCmd.AddCommand(replay.Cmd)
	rootCmd.AddCommand(stress.Cmd)
}

func initConfig() {
	viper.SetEnvPrefix("SLOTPOOL")
	viper.AutomaticEnv()
}
