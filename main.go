// Command gameoflife starts the Game of Life server.
//
// It supports two modes:
//  1. "server" (default): runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp": runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, the settings file, storage directories, debug
// logging, version output, and optional ngrok tunneling for easy external
// access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log15 "github.com/inconshreveable/log15"
	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
	"golang.org/x/sync/errgroup"

	"github.com/wricardo/mcp-training/gameoflife/api"
	"github.com/wricardo/mcp-training/gameoflife/game/cache"
	"github.com/wricardo/mcp-training/gameoflife/game/config"
	"github.com/wricardo/mcp-training/gameoflife/game/lock"
	"github.com/wricardo/mcp-training/gameoflife/game/queue"
	"github.com/wricardo/mcp-training/gameoflife/game/service"
	"github.com/wricardo/mcp-training/gameoflife/game/simulation"
	"github.com/wricardo/mcp-training/gameoflife/game/store"
	"github.com/wricardo/mcp-training/gameoflife/logging"
	"github.com/wricardo/mcp-training/gameoflife/transport/mcp"
	"github.com/wricardo/mcp-training/gameoflife/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Game of Life Server"
)

const shutdownTimeout = 10 * time.Second

// Configuration flags control how the server starts and which services are enabled.
var (
	port         = flag.Int("port", 8080, "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	configFile   = flag.String("config", getConfigFileDefault(), "Settings YAML file (optional)")
	dataDir      = flag.String("data-dir", "", "Directory for persisted boards (overrides settings)")
	patternsDir  = flag.String("patterns-dir", "", "Directory containing seed patterns (overrides settings)")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

// getConfigFileDefault returns the default settings file.
// It first honors the GOL_CONFIG environment variable, then uses
// configs/gameoflife.yaml when present.
func getConfigFileDefault() string {
	if path := os.Getenv("GOL_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat("configs/gameoflife.yaml"); err == nil {
		return "configs/gameoflife.yaml"
	}
	return ""
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio        Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "  mcp              Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                          # Run HTTP server on default port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -port 9090               # Run HTTP server on port 9090\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -data-dir /var/lib/life  # Persist boards elsewhere\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s stdio-mcp                # Run MCP stdio server\n", os.Args[0])
	}
}

// main parses flags, initializes services, and starts the selected mode.
func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	flag.Parse()

	// Show version if requested
	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	// Determine mode from command
	args := flag.Args()
	mode := "server" // default
	if len(args) > 0 {
		mode = args[0]
	}

	log.Printf("Starting %s v%s (mode: %s)", AppName, Version, mode)

	logger := logging.New(*debug)

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		runStdioMCPWithInternalServer(logger)

	case "server", "http":
		a, err := initializeServices(logger)
		if err != nil {
			log.Fatalf("Failed to initialize services: %v", err)
		}
		if err := runHTTPServer(a); err != nil {
			log.Fatalf("Server error: %v", err)
		}

	default:
		log.Fatalf("Unknown mode: %s. Use 'server' (default) or 'stdio-mcp'", mode)
	}
}

// app holds the wired components of one server process.
type app struct {
	settings *config.Settings
	store    *store.Manager
	queue    *queue.Queue
	service  service.BoardService
	hub      *websocket.Hub
	worker   *simulation.Worker
	live     *simulation.LiveLoop
	log      log15.Logger
}

// initializeServices loads settings and persisted boards and wires the
// board service with its background worker and live loop.
func initializeServices(logger log15.Logger) (*app, error) {
	settings, err := config.LoadSettings(*configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if *dataDir != "" {
		settings.DataDir = *dataDir
	}
	if *patternsDir != "" {
		settings.PatternsDir = *patternsDir
	}

	persistence, err := store.NewFilePersistence(settings.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create board persistence: %w", err)
	}
	boards := store.NewManagerWithPersistence(persistence, logger)

	// Load persisted boards on startup
	loaded, err := boards.LoadPersisted()
	if err != nil {
		logger.Warn("some persisted boards could not be loaded", "loaded", loaded, "err", err)
	} else {
		logger.Info("loaded persisted boards", "count", loaded, "dir", settings.DataDir)
	}

	patterns, err := config.NewPatternManager(settings.PatternsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create pattern manager: %w", err)
	}

	liveCache := cache.New()
	locks := lock.NewRegistry()
	advances := queue.New(settings.QueueCapacity)
	hub := websocket.NewHub(logger)

	boardService := service.NewBoardService(service.Options{
		Store:    boards,
		Cache:    liveCache,
		Queue:    advances,
		Locks:    locks,
		Patterns: patterns,
		Limits:   settings.Limits(),
		Logger:   logger,
	})

	return &app{
		settings: settings,
		store:    boards,
		queue:    advances,
		service:  boardService,
		hub:      hub,
		worker:   simulation.NewWorker(advances, simulation.NewAdvancer(boards, locks, logger), hub, logger),
		live: simulation.NewLiveLoop(simulation.LiveLoopOptions{
			Store:        boards,
			Cache:        liveCache,
			Notifier:     hub,
			Logger:       logger,
			TickInterval: settings.TickInterval,
			TickBackoff:  settings.TickBackoff,
		}),
		log: logger,
	}, nil
}

// startBackground reconciles boards left running by a previous process, then
// runs the hub, the advance worker and the live loop in g. It returns before
// anything is started if the reconcile gives up, and must be called before the
// server accepts requests. The queue is closed once ctx is done so late
// Advance calls fail fast.
func (a *app) startBackground(ctx context.Context, g *errgroup.Group) error {
	if err := a.live.Prepare(ctx); err != nil {
		return fmt.Errorf("failed to reconcile running boards: %w", err)
	}

	g.Go(func() error { return a.hub.Run(ctx) })
	g.Go(func() error { return a.worker.Run(ctx) })
	g.Go(func() error { return a.live.Run(ctx) })
	g.Go(func() error {
		<-ctx.Done()
		a.queue.Close()
		return nil
	})
	return nil
}

// handler mounts the REST API at the root and the MCP endpoint at /mcp.
// The MCP tools proxy to the REST API at baseURL.
func (a *app) handler(baseURL string) http.Handler {
	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", api.NewServer(a.service, a.hub, a.log))
	mainRouter.HandleFunc("/mcp", mcpHandler(mcp.NewClient(baseURL)))
	return mainRouter
}

// mcpHandler serves MCP JSON-RPC messages over plain HTTP POST.
func mcpHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}
}

// selfURL is the address the in-process MCP client uses to reach the API.
func selfURL(host string, port int) string {
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s", net.JoinHostPort(host, fmt.Sprint(port)))
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled (via flag or environment), it also provisions a public tunnel.
// It returns after SIGINT or SIGTERM once everything has stopped.
func runHTTPServer(a *app) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	if err := a.startBackground(gctx, g); err != nil {
		return err
	}

	addr := net.JoinHostPort(*host, fmt.Sprint(*port))
	mainRouter := a.handler(selfURL(*host, *port))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g.Go(func() error {
		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api/boards", addr)
		log.Printf("WebSocket: ws://%s/ws?board=<board_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			a.log.Error("HTTP server shutdown error", "err", err)
		}
		return nil
	})

	if ngrokShouldRun() {
		g.Go(func() error {
			runNgrokTunnel(gctx, mainRouter, a.log)
			return nil
		})
	}

	err := g.Wait()
	a.log.Info("server stopped")
	return err
}

// ngrokShouldRun checks the -ngrok flag, then NGROK_ENABLED.
func ngrokShouldRun() bool {
	if *ngrokEnabled {
		return true
	}
	envEnabled := os.Getenv("NGROK_ENABLED")
	return envEnabled == "true" || envEnabled == "1"
}

// runNgrokTunnel serves handler through an ngrok tunnel until ctx is done.
// Failures are logged and leave the local server running.
func runNgrokTunnel(ctx context.Context, handler http.Handler, logger log15.Logger) {
	logger = logger.New("component", "ngrok")

	// Get auth token from flag or environment (support both naming conventions)
	authToken := *ngrokAuth
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTHTOKEN")
		if authToken == "" {
			authToken = os.Getenv("NGROK_AUTH_TOKEN")
		}
	}
	if authToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	domain := *ngrokDomain
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		logger.Info("using custom ngrok domain", "domain", domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", "err", err)
		return
	}

	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn("failed to close ngrok tunnel", "err", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api/boards", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?board=<board_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && !errors.Is(err, http.ErrServerClosed) && ctx.Err() == nil {
		logger.Error("ngrok server error", "err", err)
	}
	logger.Info("ngrok tunnel closed")
}

// externalServerAvailable reports whether a server already answers at baseURL.
func externalServerAvailable(baseURL string) bool {
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(baseURL + "/health/live")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It reuses an API already running on the configured port; otherwise it starts
// the full server stack on a random loopback port and targets that.
func runStdioMCPWithInternalServer(logger log15.Logger) {
	externalURL := selfURL(*host, *port)
	log.Printf("Checking for external API server at %s...", externalURL)

	baseURL := externalURL
	if externalServerAvailable(externalURL) {
		log.Printf("External API server found at %s, using it for MCP", externalURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")

		a, err := initializeServices(logger)
		if err != nil {
			log.Fatalf("Failed to initialize services: %v", err)
		}

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			log.Fatalf("Failed to get available port: %v", err)
		}
		baseURL = fmt.Sprintf("http://%s", listener.Addr().String())
		log.Printf("Starting internal HTTP server on %s for MCP stdio", listener.Addr())

		ctx, cancel := context.WithCancel(context.Background())
		g, gctx := errgroup.WithContext(ctx)
		if err := a.startBackground(gctx, g); err != nil {
			cancel()
			log.Fatalf("Failed to start background services: %v", err)
		}

		httpServer := &http.Server{Handler: a.handler(baseURL)}
		g.Go(func() error {
			if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer shutdownCancel()
			return httpServer.Shutdown(shutdownCtx)
		})

		defer func() {
			cancel()
			if err := g.Wait(); err != nil {
				logger.Error("internal server stopped with error", "err", err)
			}
		}()
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Println("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		log.Printf("MCP stdio server error: %v", err)
	}
}
