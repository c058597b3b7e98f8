package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/1broseidon/stacktile/internal/config"
	"github.com/1broseidon/stacktile/internal/ipc"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	switch os.Args[1] {
	case "daemon":
		if len(os.Args) > 2 && (os.Args[2] == "help" || os.Args[2] == "-h" || os.Args[2] == "--help") {
			fmt.Fprintln(os.Stdout, "Usage: stacktile daemon")
			os.Exit(0)
		}
		if len(os.Args) > 2 {
			fmt.Fprintln(os.Stderr, "daemon takes no arguments")
			fmt.Fprintln(os.Stderr, "")
			fmt.Fprintln(os.Stderr, "Usage: stacktile daemon")
			os.Exit(2)
		}
		runDaemon()
	case "toggle":
		os.Exit(runToggle(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "ratio":
		os.Exit(runRatio(os.Args[2:]))
	case "focus":
		os.Exit(runDirection("focus", os.Args[2:]))
	case "swap":
		os.Exit(runDirection("swap", os.Args[2:]))
	case "reload":
		os.Exit(runReload(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: stacktile <command> [options]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Start the stacktile daemon (foreground)")
	fmt.Fprintln(w, "  toggle              Toggle tiling on the current workspace")
	fmt.Fprintln(w, "  status              Show daemon status")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  ratio set <value>   Set master ratio (0.2 to 0.8)")
	fmt.Fprintln(w, "  ratio grow          Grow the master area by one step")
	fmt.Fprintln(w, "  ratio shrink        Shrink the master area by one step")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  focus <direction>   Focus the nearest window left/right/up/down")
	fmt.Fprintln(w, "  swap <direction>    Swap with the nearest window left/right/up/down")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  reload              Ask the daemon to reload its configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'stacktile <command> --help' for command-specific options.")
}

func printStatus(status *ipc.StatusData) {
	fmt.Printf("daemon_running: %v\n", status.DaemonRunning)
	fmt.Printf("enabled:        %v\n", status.Enabled)
	fmt.Printf("workspace:      %d\n", status.Workspace)
	fmt.Printf("master_ratio:   %.2f\n", status.MasterRatio)
	fmt.Printf("tiled:          %d\n", status.Tiled)
	fmt.Printf("overflow:       %d\n", status.Overflow)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
}

func runToggle(args []string) int {
	fs := flag.NewFlagSet("toggle", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: stacktile toggle")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Toggle tiling on the current workspace via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "toggle takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.Toggle()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printStatus(status)
	return 0
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: stacktile status")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show daemon status via IPC.")
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	printStatus(status)
	return 0
}

func printRatioUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  stacktile ratio set <value>")
	fmt.Fprintln(w, "  stacktile ratio grow")
	fmt.Fprintln(w, "  stacktile ratio shrink")
}

func runRatio(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printRatioUsage(os.Stderr)
		return 2
	}

	client := ipc.NewClient()

	switch args[0] {
	case "set":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "ratio set requires exactly one value")
			printRatioUsage(os.Stderr)
			return 2
		}
		var ratio float64
		if _, err := fmt.Sscanf(args[1], "%f", &ratio); err != nil {
			fmt.Fprintf(os.Stderr, "invalid ratio %q\n", args[1])
			return 2
		}
		status, err := client.SetRatio(ratio)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		printStatus(status)
		return 0

	case "grow", "shrink":
		status, err := client.AdjustRatio(args[0] == "grow")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		printStatus(status)
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown ratio command: %s\n\n", args[0])
		printRatioUsage(os.Stderr)
		return 2
	}
}

func runDirection(verb string, args []string) int {
	if len(args) != 1 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintf(os.Stderr, "Usage: stacktile %s <left|right|up|down>\n", verb)
		return 2
	}

	client := ipc.NewClient()
	var err error
	if verb == "focus" {
		err = client.FocusDirection(args[0])
	} else {
		err = client.SwapDirection(args[0])
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runReload(args []string) int {
	if len(args) != 0 {
		fmt.Fprintln(os.Stderr, "Usage: stacktile reload")
		return 2
	}

	client := ipc.NewClient()
	if err := client.Reload(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println("reload requested")
	return 0
}

func runConfig(args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  stacktile config validate [--path PATH]")
		fmt.Fprintln(os.Stderr, "  stacktile config print [--path PATH] [--defaults]")
		return 2
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/stacktile/config.yaml)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		var err error
		if *path == "" {
			_, err = config.Load()
		} else {
			_, err = config.LoadFromPath(*path)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("config: ok")
		return 0

	case "print":
		fs := flag.NewFlagSet("print", flag.ContinueOnError)
		fs.SetOutput(os.Stderr)
		path := fs.String("path", "", "Config file path (default: ~/.config/stacktile/config.yaml)")
		printDefaults := fs.Bool("defaults", false, "Print built-in defaults (no files)")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}

		var cfg *config.Config
		var err error
		switch {
		case *printDefaults:
			cfg = config.DefaultConfig()
		case *path == "":
			cfg, err = config.Load()
		default:
			cfg, err = config.LoadFromPath(*path)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Print(string(data))
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown config command: %s\n", args[0])
		return 2
	}
}
