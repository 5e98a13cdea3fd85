// Root of command-line argument parsing.
// This file was based off the standard cobra template, see
// https://github.com/spf13/cobra
package cmd

import (
	"fmt"
	"os"

	"github.com/serverlessresearch/s3connector/pkg/connmgr"
	"github.com/spf13/cobra"
)

var cfgFile string
var envFile string

var connManager *connmgr.Manager

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "connector",
	Short: "S3 file connector for hosted drives",
	Long: `Serves files in an S3 bucket (or a local directory) over the HostedDrive
gRPC service, and talks to a running connector from the command line.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		mgrArgs := map[string]interface{}{}
		if cfgFile != "" {
			mgrArgs["config-file"] = cfgFile
		}
		if envFile != "" {
			mgrArgs["env-file"] = envFile
		}

		var err error
		connManager, err = connmgr.NewManager(mgrArgs)
		if err != nil {
			return fmt.Errorf("Failed to initialize connector: %v", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		connManager.Destroy()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if connManager == nil || connManager.Logger == nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		} else {
			connManager.Logger.Error(err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is configs/connector.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file with CORE_S3_FILE_CONNECTOR_* settings (default is .env)")
}
