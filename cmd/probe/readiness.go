package probe

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kashguard/go-xrpl-custody/internal/config"
)

const probeTimeout = 5 * time.Second

func newReadiness() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "readiness",
		Short: "Checks whether the service accepts traffic",
		Run: func(cmd *cobra.Command, _ []string) {
			verbose, _ := cmd.Flags().GetBool(verboseFlag)
			runProbe("/-/ready", verbose)
		},
	}
	cmd.Flags().BoolP(verboseFlag, "v", false, "Print the probe response")
	return cmd
}

// runProbe hits a management endpoint of the locally running service and
// exits non-zero unless it answers 200.
func runProbe(path string, verbose bool) {
	cfg := config.DefaultServiceConfigFromEnv()

	addr := cfg.Echo.ListenAddress
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}

	client := &http.Client{Timeout: probeTimeout}
	resp, err := client.Get("http://" + addr + path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "probe %s failed: %v\n", path, err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if verbose {
		fmt.Printf("%d %s\n", resp.StatusCode, string(body))
	}
	if resp.StatusCode != http.StatusOK {
		os.Exit(1)
	}
}
