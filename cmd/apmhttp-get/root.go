package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/shogo82148/apm-yasdk-go/apm"
	"github.com/shogo82148/apm-yasdk-go/apm/apmlog"
	"github.com/shogo82148/apm-yasdk-go/apm/apmzap"
	"github.com/shogo82148/apm-yasdk-go/apmhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

type rootFlags struct {
	config             string
	service            string
	splitByDomain      bool
	distributedTracing bool
	errorStatuses      string
	method             string
	timeout            time.Duration
}

// fileConfig is the layout of the configuration file.
type fileConfig struct {
	apm.Config `yaml:",inline"`
	HTTP       *apmhttp.FileConfig `yaml:"http"`
}

func loadFileConfig(path string) (*fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}
	return &cfg, nil
}

func newRootCmd() *cobra.Command {
	var flags rootFlags
	cmd := &cobra.Command{
		Use:   "apmhttp-get [flags] URL",
		Short: "Send a traced HTTP request",
		Long: `Send one HTTP request through the traced client and print the finished spans
to the standard output as JSON lines.

Examples:
  # GET with the default configuration
  apmhttp-get http://example.com/

  # POST, recording 4xx and 5xx responses as errors
  apmhttp-get --method POST --error-statuses 400-599 http://example.com/`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, &flags, args[0])
		},
	}

	cmd.Flags().StringVar(&flags.config, "config", "", "configuration file (YAML)")
	cmd.Flags().StringVar(&flags.service, "service", "", "service name of the spans")
	cmd.Flags().BoolVar(&flags.splitByDomain, "split-by-domain", false, "name the service after the target host")
	cmd.Flags().BoolVar(&flags.distributedTracing, "distributed-tracing", false, "propagate the trace to the server")
	cmd.Flags().StringVar(&flags.errorStatuses, "error-statuses", "", `status codes recorded as errors, e.g. "404,500-599"`)
	cmd.Flags().StringVarP(&flags.method, "method", "X", http.MethodGet, "HTTP method")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 30*time.Second, "timeout of the request")
	return cmd
}

// clientOptions returns the options given by the flags that are set explicitly.
func clientOptions(cmd *cobra.Command, flags *rootFlags) ([]apmhttp.Option, error) {
	var opts []apmhttp.Option
	if cmd.Flags().Changed("service") {
		opts = append(opts, apmhttp.WithServiceName(flags.service))
	}
	if cmd.Flags().Changed("split-by-domain") {
		opts = append(opts, apmhttp.WithSplitByDomain(flags.splitByDomain))
	}
	if cmd.Flags().Changed("distributed-tracing") {
		opts = append(opts, apmhttp.WithDistributedTracing(flags.distributedTracing))
	}
	if flags.errorStatuses != "" {
		ranges, err := apmhttp.ParseStatusRanges(flags.errorStatuses)
		if err != nil {
			return nil, err
		}
		opts = append(opts, apmhttp.WithErrorHandler(apmhttp.StatusRangeErrorHandler(ranges...)))
	}
	return opts, nil
}

func run(cmd *cobra.Command, flags *rootFlags, url string) error {
	zl, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer zl.Sync()
	apmlog.SetLogger(apmzap.NewLoggerWithMinLevel(zl, apmlog.LevelFromEnv()))

	cfg, err := loadFileConfig(flags.config)
	if err != nil {
		return err
	}
	global, err := cfg.HTTP.Options()
	if err != nil {
		return err
	}
	local, err := clientOptions(cmd, flags)
	if err != nil {
		return err
	}

	cfg.Writer = apm.NewStreamWriter(cmd.OutOrStdout())
	tracer := apm.New(&cfg.Config)
	defer tracer.Close()

	integration := apmhttp.NewIntegration(append(global, apmhttp.WithTracer(tracer))...)
	client := integration.Client(&http.Client{Timeout: flags.timeout}, local...)

	req, err := http.NewRequestWithContext(cmd.Context(), flags.method, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s: %s (%d bytes)\n", req.Method, url, resp.Status, n)
	return nil
}
