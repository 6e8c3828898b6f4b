package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tourneyhub/tourney-client/application/port/inbound"
	"github.com/tourneyhub/tourney-client/application/usecase"
	domainerror "github.com/tourneyhub/tourney-client/domain/error"
	"github.com/tourneyhub/tourney-client/infrastructure/config"
	"github.com/tourneyhub/tourney-client/infrastructure/http/client"
	"github.com/tourneyhub/tourney-client/infrastructure/persistence"
	"github.com/tourneyhub/tourney-client/infrastructure/service/credential"
	"github.com/tourneyhub/tourney-client/infrastructure/service/jwt"
	"github.com/tourneyhub/tourney-client/infrastructure/service/logger"
)

var Version = "development"

const usage = `usage: tourneyctl [flags] <command> [args]

commands:
  login <email> <password>
  register <email> <password> <role> [nickname]
  logout
  whoami           resume the stored session
  me               fetch the identity from the backend
  tournaments      list tournaments
  tournament <id>  show one tournament
`

func main() {
	version := flag.Bool("version", false, "Show version information")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *version {
		fmt.Printf("tourneyctl %s\n", Version)
		os.Exit(0)
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	structuredLogger := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "tourneyctl",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := persistence.NewTokenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open token store: %v", err)
	}
	defer store.Close()

	creds := credential.NewManager(store, jwt.NewClaimsDecoder(), structuredLogger)

	var registry *prometheus.Registry
	opts := client.Options{
		BaseURL:        cfg.APIBaseURL,
		Timeout:        cfg.RequestTimeout,
		RefreshTimeout: cfg.RefreshTimeout,
		UserAgent:      cfg.UserAgent,
		AdminUserID:    cfg.AdminOverride(),
		Logger:         structuredLogger,
	}
	if cfg.MetricsEnabled {
		registry = prometheus.NewRegistry()
		opts.Registerer = registry
	}
	apiClient, err := client.New(creds, opts)
	if err != nil {
		log.Fatalf("Failed to create API client: %v", err)
	}
	session := usecase.NewSessionUseCase(client.NewAuthAPI(apiClient), creds, structuredLogger)

	err = run(ctx, session, apiClient, flag.Args())
	if registry != nil {
		reportMetrics(ctx, structuredLogger, registry)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", domainerror.UserMessage(err))
		if domainerror.RequiresLogin(err) {
			fmt.Fprintln(os.Stderr, "run `tourneyctl login` to start a new session")
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, session *usecase.SessionUseCase, apiClient *client.Client, args []string) error {
	cmd, args := args[0], args[1:]

	switch cmd {
	case "login":
		if len(args) != 2 {
			return fmt.Errorf("login needs <email> <password>")
		}
		identity, err := session.Login(ctx, inbound.LoginRequest{Email: args[0], Password: args[1]})
		if err != nil {
			return err
		}
		return printJSON(identity)

	case "register":
		if len(args) < 3 {
			return fmt.Errorf("register needs <email> <password> <role> [nickname]")
		}
		req := inbound.RegisterRequest{Email: args[0], Password: args[1], Role: args[2]}
		if len(args) > 3 {
			req.Nickname = args[3]
		}
		created, err := session.Register(ctx, req)
		if err != nil {
			return err
		}
		return printJSON(created)

	case "logout":
		session.Bootstrap(ctx)
		session.Logout(ctx)
		fmt.Println("logged out")
		return nil

	case "whoami":
		identity := session.Bootstrap(ctx)
		if identity == nil {
			fmt.Println("not logged in")
			return nil
		}
		return printJSON(identity)

	case "me":
		session.Bootstrap(ctx)
		identity, err := session.Me(ctx)
		if err != nil {
			return err
		}
		return printJSON(identity)

	case "tournaments":
		session.Bootstrap(ctx)
		items, err := client.NewTournamentAPI(apiClient).List(ctx)
		if err != nil {
			return err
		}
		return printJSON(items)

	case "tournament":
		if len(args) != 1 {
			return fmt.Errorf("tournament needs <id>")
		}
		session.Bootstrap(ctx)
		item, err := client.NewTournamentAPI(apiClient).Get(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(item)
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// reportMetrics logs the client counters gathered during this run.
func reportMetrics(ctx context.Context, log logger.Logger, registry *prometheus.Registry) {
	families, err := registry.Gather()
	if err != nil {
		log.Error(ctx, "Failed to gather metrics", err, nil)
		return
	}
	for _, family := range families {
		for _, m := range family.GetMetric() {
			fields := map[string]interface{}{
				"metric": family.GetName(),
				"value":  m.GetCounter().GetValue(),
			}
			for _, label := range m.GetLabel() {
				fields[label.GetName()] = label.GetValue()
			}
			log.Info(ctx, "Client metric", fields)
		}
	}
}
