package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kestrel-dev/taskmesh/internal/config"
	"github.com/kestrel-dev/taskmesh/internal/gitdriver"
	"github.com/kestrel-dev/taskmesh/internal/mcpserver"
	"github.com/kestrel-dev/taskmesh/internal/store"
	"github.com/kestrel-dev/taskmesh/internal/taskservice"
	"github.com/kestrel-dev/taskmesh/internal/watch"
)

var (
	dbPath     string
	repoRoot   string
	maxWorkers int
)

// serveFn and watchFn are indirected through package vars, mirroring
// the teacher's runOrchestrator seam, so dispatch routing can be tested
// without actually starting the stdio server or the TUI.
var (
	serveFn = runServe
	watchFn = runWatch
)

func main() {
	flag.StringVar(&dbPath, "db-path", "", "Path to the task store (default: .tasks/tasks.db, env TASK_DB_PATH)")
	flag.StringVar(&repoRoot, "repo-root", "", "Git repository root worktrees are created against (default: cwd)")
	flag.IntVar(&maxWorkers, "max-workers", 0, "Advisory worker concurrency hint surfaced to watch (default: 3)")
	flag.Parse()

	if err := dispatch(flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// dispatch routes a command name to its handler. Called with flag.Args()
// from main and with literal slices from tests.
func dispatch(args []string) error {
	var command string
	var rest []string
	if len(args) == 0 {
		command = "serve"
	} else {
		command = args[0]
		rest = args[1:]
	}

	switch command {
	case "init":
		return runInit(rest)
	case "serve":
		return serveFn(rest)
	case "status":
		return runStatus(rest)
	case "watch":
		return watchFn(rest)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func loadConfig() (*config.Config, error) {
	return config.Load(config.Flags{DBPath: dbPath, RepoRoot: repoRoot, MaxWorkers: maxWorkers})
}

func runInit(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	fmt.Printf("Initialized task store at %s\n", cfg.DBPath)
	return nil
}

func runServe(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := st.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}

	root, err := gitdriver.RepoRoot(ctx, cfg.RepoRoot)
	if err != nil {
		return fmt.Errorf("failed to resolve git repository root: %w", err)
	}
	git := gitdriver.New(root)
	svc := taskservice.New(st, git, root)

	s := mcpserver.NewServer(svc)
	return mcpserver.Serve(s)
}

func runStatus(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.Init(ctx); err != nil {
		return err
	}

	summary, err := st.Summarize(ctx)
	if err != nil {
		return err
	}

	fmt.Println("Task Coordinator Status")
	fmt.Println("=======================")
	fmt.Printf("Groups:            %d\n", summary.GroupCount)
	fmt.Printf("Tasks:             %d\n", summary.TaskCount)
	fmt.Printf("Suggested workers: %d\n", cfg.MaxWorkers)
	fmt.Println("\nBy status:")
	for _, status := range summary.Order {
		fmt.Printf("  %-12s %d\n", status, summary.ByStatus[status])
	}
	return nil
}

func runWatch(args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.Init(ctx); err != nil {
		return err
	}

	return watch.Run(ctx, st, cfg.Backoff, cfg.MaxWorkers)
}
