// casebridge-report loads the configured declarative sources, runs one
// compatibility pass, and renders the report to stdout. It exits non-zero
// when the report carries errors, so it can gate CI on tool/method drift.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/casebridge/casebridge/configs"
	"github.com/casebridge/casebridge/internal/adapter/outbound/declarative"
	"github.com/casebridge/casebridge/internal/adapter/outbound/openapi"
	"github.com/casebridge/casebridge/internal/checker"
	"github.com/casebridge/casebridge/internal/registry"
	"github.com/casebridge/casebridge/internal/usecase"
	"github.com/casebridge/casebridge/pkg/reportfmt"
)

func main() {
	var configPath string
	var includeUnbound bool
	flag.StringVar(&configPath, "config", "", "Config file path (overrides CASEBRIDGE_CONFIG_FILE)")
	flag.BoolVar(&includeUnbound, "include-unbound", false, "Count and flag tools without a resolvable method")
	flag.Parse()

	if configPath != "" {
		os.Setenv("CASEBRIDGE_CONFIG_FILE", configPath)
	}

	cfg, err := configs.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}

	var methodSources []registry.MethodSource
	var toolSources []registry.ToolSource
	for _, path := range cfg.DeclarationSources {
		src := declarative.NewSource(path, logger)
		methodSources = append(methodSources, src)
		toolSources = append(toolSources, src)
	}
	for _, src := range cfg.OpenAPISources {
		methodSources = append(methodSources, openapi.NewSource(src, httpClient, logger))
	}

	ctx := context.Background()
	methods, tools, loadErrs := usecase.NewLoadRegistriesUseCase(methodSources, toolSources, logger).Execute(ctx)
	for _, err := range loadErrs {
		fmt.Fprintf(os.Stderr, "load error: %v\n", err)
	}

	report := checker.Check(methods, tools, checker.Options{
		SkipToolsWithoutMethod: !includeUnbound,
	})
	reportfmt.Write(os.Stdout, report)

	if report.HasErrors() {
		os.Exit(1)
	}
}
