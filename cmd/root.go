package cmd

import (
	"github.com/awaizkhanmd/Automation/internal/config"
	"github.com/spf13/cobra"
)

const app = "autoapply"

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "autoapply plans and executes job applications from scraped postings",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is ./configs/config.yaml)")
}

func getConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	return config.Get(), nil
}
