// Handle the "connector serve" command
package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var serveListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the connector",
	Long: `Serve the HostedDrive gRPC service on the configured listen address
until interrupted. Calls in flight are allowed to finish on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveListen != "" {
			connManager.Cfg.Set("listen", serveListen)
		}

		// Shutdown cleanly on ctrl-c or sigterm from kill
		go func() {
			c := make(chan os.Signal, 1)
			signal.Notify(c, os.Interrupt, syscall.SIGTERM)
			<-c
			connManager.GracefulStop()
		}()

		return connManager.ListenAndServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveListen, "listen", "", "address to listen on (overrides the listen setting)")
}
