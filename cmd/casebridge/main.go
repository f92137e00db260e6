package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	mcpGoServer "github.com/mark3labs/mcp-go/server"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/casebridge/casebridge/configs"
	"github.com/casebridge/casebridge/internal/adapter/inbound/adminhttp"
	"github.com/casebridge/casebridge/internal/adapter/inbound/mcpserver"
	"github.com/casebridge/casebridge/internal/adapter/outbound/declarative"
	"github.com/casebridge/casebridge/internal/adapter/outbound/httpinvoker"
	"github.com/casebridge/casebridge/internal/adapter/outbound/identity"
	"github.com/casebridge/casebridge/internal/adapter/outbound/invoker"
	"github.com/casebridge/casebridge/internal/adapter/outbound/memstore"
	"github.com/casebridge/casebridge/internal/adapter/outbound/openapi"
	"github.com/casebridge/casebridge/internal/checker"
	"github.com/casebridge/casebridge/internal/mapper"
	"github.com/casebridge/casebridge/internal/registry"
	"github.com/casebridge/casebridge/internal/service"
	"github.com/casebridge/casebridge/internal/usecase"
)

func main() {
	// === Command Line Flags ===
	var transport string
	flag.StringVar(&transport, "transport", "sse", "Transport mode: sse or stdio")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// === Configuration ===
	cfg, err := configs.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// === Logging ===
	logLevel := cfg.ParsedLogLevel()
	var logger *slog.Logger
	if transport == "stdio" {
		// In STDIO mode, log to file to avoid interfering with stdio communication.
		logFile, err := os.OpenFile("/tmp/casebridge.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: logLevel}))
		} else {
			logger = slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: logLevel}))
		}
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	}
	slog.SetDefault(logger)
	logger.Info("Logger initialized.", slog.String("level", logLevel.String()), slog.String("transport", transport))

	// === OpenTelemetry Initialization ===
	shutdownOtel, err := initOtelProvider(cfg)
	if err != nil {
		logger.Error("Failed to initialize OpenTelemetry.", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := shutdownOtel(context.Background()); err != nil {
			logger.Error("Failed to shutdown OpenTelemetry TracerProvider.", slog.Any("error", err))
		}
	}()

	// === MCP Server ===
	mcpSrv := mcpGoServer.NewMCPServer("casebridge", "0.1.0")
	logger.Info("MCP server initialized.")

	// === Dependency Injection ===
	logger.Info("Initializing dependencies...")

	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}

	// --- Declarative Sources ---
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
	logger.Debug("Declarative sources initialized.",
		slog.Int("declaration_sources", len(cfg.DeclarationSources)),
		slog.Int("openapi_sources", len(cfg.OpenAPISources)))

	// --- Stores, Mappers, Services ---
	casefileStore := memstore.NewCasefileStore(logger)
	sessionStore := memstore.NewSessionStore(logger)
	casefileService := service.NewCasefileService(casefileStore, mapper.NewCasefileMapper(), logger)

	// --- Invoker Routing ---
	local := map[string]usecase.ServiceInvoker{
		"casefile": casefileService,
	}
	var fallback usecase.ServiceInvoker
	if cfg.RemoteServiceURL != "" {
		fallback = httpinvoker.New(cfg.RemoteServiceURL, httpClient, logger)
	}
	toolInvoker := invoker.NewRouter(local, fallback, logger)

	// --- Identity ---
	identityProvider := identity.NewProvider(cfg.DefaultUserID, sessionStore, logger)

	// === Use Cases ===
	holder := &usecase.SnapshotHolder{}
	loadUC := usecase.NewLoadRegistriesUseCase(methodSources, toolSources, logger)
	checkUC := usecase.NewCheckToolsUseCase(
		checker.Options{SkipToolsWithoutMethod: cfg.SkipUnboundTools}, holder, logger)
	invokeUC := usecase.NewInvokeToolUseCase(holder, toolInvoker, identityProvider, logger)
	mcpAdapter := mcpserver.New(mcpSrv, invokeUC, logger)

	reload := func(ctx context.Context) error {
		methods, tools, loadErrs := loadUC.Execute(ctx)
		report := checkUC.Execute(ctx, methods, tools)
		mcpAdapter.RegisterTools(holder.Current())
		if report.HasErrors() {
			logger.Warn("Some tools failed compatibility checking and will not execute.",
				slog.Int("errors", report.ErrorCount))
		}
		if len(loadErrs) > 0 {
			logger.Warn("Declarative load completed with errors.", slog.Int("errors", len(loadErrs)))
		}
		return nil
	}

	// === Initial Load and Check ===
	logger.Info("Performing initial registry load and compatibility check...")
	if err := reload(ctx); err != nil {
		logger.Error("Initial load failed.", slog.Any("error", err))
		os.Exit(1)
	}

	// === Transport Mode Selection ===
	switch transport {
	case "stdio":
		logger.Info("Starting in STDIO mode")
		stdioServer := mcpGoServer.NewStdioServer(mcpSrv)
		if err := stdioServer.Listen(ctx, os.Stdin, os.Stdout); err != nil {
			logger.Error("STDIO server error", slog.Any("error", err))
			os.Exit(1)
		}

	case "sse":
		logger.Info("Starting in SSE mode")
		sseServer := mcpGoServer.NewSSEServer(mcpSrv, mcpGoServer.WithBaseURL("http://"+cfg.ListenAddr))

		adminMux := http.NewServeMux()
		adminhttp.New(holder, reload, logger).RegisterRoutes(adminMux)
		adminServer := &http.Server{Addr: cfg.AdminAddr, Handler: adminMux}
		go func() {
			logger.Info("Admin HTTP server starting.", slog.String("address", adminServer.Addr))
			if err := adminServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Admin HTTP server failed to start.", slog.Any("error", err))
			}
		}()

		go func() {
			logger.Info("MCP SSE server starting.", slog.String("address", cfg.ListenAddr))
			if err := sseServer.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("MCP SSE server failed to start.", slog.Any("error", err))
				stop()
			}
		}()

		<-ctx.Done()

		logger.Info("Shutting down servers...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := adminServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Admin HTTP server graceful shutdown failed.", slog.Any("error", err))
		}
		if err := sseServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("MCP SSE server graceful shutdown failed.", slog.Any("error", err))
		}
		logger.Info("Servers shut down gracefully.")

	default:
		logger.Error("Invalid transport mode", slog.String("transport", transport))
		os.Exit(1)
	}
}

// initOtelProvider initializes the OpenTelemetry SDK and sets up the OTLP
// trace exporter. It returns a shutdown function to be called on exit.
func initOtelProvider(cfg *configs.Config) (func(context.Context) error, error) {
	ctx := context.Background()

	if cfg.OtelExporterOtlpEndpoint == "" {
		slog.Info("OTEL_EXPORTER_OTLP_ENDPOINT not set, OpenTelemetry tracing disabled.")
		return func(context.Context) error { return nil }, nil
	}

	slog.Info("Initializing OTLP exporter.", slog.String("endpoint", cfg.OtelExporterOtlpEndpoint))

	grpcOpts := []grpc.DialOption{}
	if cfg.OtelExporterOtlpInsecure {
		grpcOpts = append(grpcOpts, grpc.WithTransportCredentials(insecure.NewCredentials()))
		slog.Warn("Using insecure connection for OTLP exporter.")
	}

	conn, err := grpc.NewClient(cfg.OtelExporterOtlpEndpoint, grpcOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection to OTLP endpoint: %w", err)
	}

	traceExporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	r, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("casebridge"),
		),
	)
	if err != nil {
		_ = traceExporter.Shutdown(ctx)
		_ = conn.Close()
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(r),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	slog.Info("OpenTelemetry TracerProvider configured.")

	return func(ctx context.Context) error {
		providerErr := tp.Shutdown(ctx)
		connErr := conn.Close()
		return errors.Join(providerErr, connErr)
	}, nil
}
