package cli

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"chaosdrive/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a chaos-injecting target server",
	Long: `Start an HTTP server that honors chaos directives sent by the driver.
Each request's ?chaos= parameter (or X-Chaos header) controls injected
latency, error rate, and CPU burn, and the response echoes the applied
values as JSON. Useful as a local target for experiments and tests:

  chaosdrive serve --addr :8080 &
  URL=http://localhost:8080/ping LAT=250 ERR=0.05 chaosdrive run`,
	Run: func(cmd *cobra.Command, args []string) {
		addr, _ := cmd.Flags().GetString("addr")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")

		log := logrus.New()
		if jsonLogs {
			log.SetFormatter(&logrus.JSONFormatter{})
		}

		if err := server.ListenAndServe(addr, log); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8080", "listen address")
	serveCmd.Flags().Bool("json-logs", false, "emit request logs as JSON")
}
