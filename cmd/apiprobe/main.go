package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/samvad-hq/samvad-api-client/internal/app"
	"github.com/samvad-hq/samvad-api-client/internal/config"
	"github.com/samvad-hq/samvad-api-client/internal/logger"
	"github.com/samvad-hq/samvad-api-client/pkg/apiclient"
	"github.com/spf13/cobra"
)

// errRequestFailed marks a classified failure that was already printed.
var errRequestFailed = errors.New("request failed")

func main() {
	root := newRootCmd(os.Stdout)
	if err := root.Execute(); err != nil {
		if !errors.Is(err, errRequestFailed) {
			fmt.Fprintf(os.Stderr, "apiprobe: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "apiprobe",
		Short:         "Call the backend API through the classifying client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.AddCommand(newRequestCmd(), newCookiesCmd())
	return root
}

func newRequestCmd() *cobra.Command {
	var (
		method string
		data   string
		query  []string
	)
	cmd := &cobra.Command{
		Use:   "request <path>",
		Short: "Perform one API call and print the response body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := buildRequest(method, args[0], data, query)
			if err != nil {
				return err
			}
			return withProbe(cmd.Context(), func(ctx context.Context, p *app.Probe) error {
				return runRequest(ctx, p, req, cmd.OutOrStdout())
			})
		},
	}
	cmd.Flags().StringVarP(&method, "method", "X", "GET", "HTTP method")
	cmd.Flags().StringVarP(&data, "data", "d", "", "JSON request body")
	cmd.Flags().StringArrayVarP(&query, "query", "q", nil, "query parameter as key=value (repeatable)")
	return cmd
}

func newCookiesCmd() *cobra.Command {
	cookies := &cobra.Command{
		Use:   "cookies",
		Short: "Manage persisted credentials",
	}
	cookies.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every persisted cookie",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withProbe(cmd.Context(), func(_ context.Context, p *app.Probe) error {
				return p.ClearCookies()
			})
		},
	})
	return cookies
}

// withProbe loads config and logging, builds the probe runtime and runs fn with it.
func withProbe(parent context.Context, fn func(context.Context, *app.Probe) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	probe, err := app.NewProbe(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize probe", "error", err.Error())
		return err
	}
	defer func() {
		if err := probe.Close(); err != nil {
			log.ErrorObj("probe close failed", "error", err.Error())
		}
	}()

	return fn(ctx, probe)
}

func buildRequest(method, path, data string, query []string) (apiclient.Request, error) {
	req := apiclient.Request{
		Method: strings.ToUpper(strings.TrimSpace(method)),
		Path:   path,
	}
	if data != "" {
		if !json.Valid([]byte(data)) {
			return apiclient.Request{}, fmt.Errorf("--data is not valid JSON")
		}
		req.Body = json.RawMessage(data)
	}
	if len(query) > 0 {
		req.Query = make(map[string]string, len(query))
		for _, kv := range query {
			k, v, ok := strings.Cut(kv, "=")
			if !ok || strings.TrimSpace(k) == "" {
				return apiclient.Request{}, fmt.Errorf("invalid query parameter %q (want key=value)", kv)
			}
			req.Query[strings.TrimSpace(k)] = v
		}
	}
	return req, nil
}

// runRequest prints the body on success and the classified error as JSON on failure.
func runRequest(ctx context.Context, p *app.Probe, req apiclient.Request, out io.Writer) error {
	resp, err := p.Request(ctx, req)
	if err == nil {
		_, werr := fmt.Fprintln(out, string(resp.Body()))
		return werr
	}

	ce, ok := apiclient.AsClassified(err)
	if !ok {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	if werr := enc.Encode(ce); werr != nil {
		return werr
	}
	return errRequestFailed
}
