package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iov-one/timevault"
	"github.com/iov-one/timevault/cmd/vaultd/app"
	"github.com/iov-one/timevault/commands/server"
	"github.com/tendermint/tendermint/libs/log"
)

var (
	flagHome     = "home"
	flagLogLevel = "log_level"

	varHome      *string
	varLogLevel  *string
	varConfig    *string
	varDBBackend *string
	varDBPath    *string
)

func init() {
	defaultHome := filepath.Join(os.ExpandEnv("$HOME"), ".vaultd")
	varHome = flag.String(flagHome, defaultHome, "directory to store files under")
	varLogLevel = flag.String(flagLogLevel, "info", "minimal level of logged messages: debug, info, error or none")
	varConfig = flag.String("config", "", "JSON configuration file (default <home>/vault.json)")
	varDBBackend = flag.String("db_backend", "", "database backend: iavl or bolt")
	varDBPath = flag.String("db_path", "", "database location, relative to home")

	flag.CommandLine.Usage = helpMessage
}

func helpMessage() {
	fmt.Fprintln(os.Stderr, "vaultd")
	fmt.Fprintln(os.Stderr, "        Time locked vault ABCI Application")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "help    Print this message")
	fmt.Fprintln(os.Stderr, "init    Initialize app options in genesis file and write vault.json")
	fmt.Fprintln(os.Stderr, "start   Run the abci server")
	fmt.Fprintln(os.Stderr, "keygen  Generate a new private key")
	fmt.Fprintln(os.Stderr, "version Print the app version")
	fmt.Fprintln(os.Stderr, "")
	flag.PrintDefaults()
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Missing command:")
		helpMessage()
		os.Exit(1)
	}

	logger, err := newLogger(*varLogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cmd := flag.Arg(0)
	rest := flag.Args()[1:]
	flags := app.Flags{
		Config:    *varConfig,
		DBBackend: *varDBBackend,
		DBPath:    *varDBPath,
	}

	switch cmd {
	case "help":
		helpMessage()
	case "init":
		err = initCmd(logger, *varHome, flags, rest)
	case "start":
		var cfg *app.Config
		if cfg, err = app.LoadConfig(*varHome, flags); err == nil {
			err = server.StartCmd(app.GenerateApp(cfg), logger, *varHome, rest)
		}
	case "keygen":
		err = app.KeyGen(os.Stdout)
	case "version":
		fmt.Println(timevault.Version())
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		helpMessage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("Command failed", "cmd", cmd, "err", err)
		os.Exit(1)
	}
}

// initCmd writes the genesis app_state and then saves the configuration,
// so that the vault currency matches the funded account.
func initCmd(logger log.Logger, home string, flags app.Flags, args []string) error {
	cfg, err := app.LoadConfig(home, flags)
	if err != nil {
		return err
	}
	if err := server.InitCmd(app.InitOptions(cfg, os.Stdout), logger, home, args); err != nil {
		return err
	}
	path := app.ConfigPath(home, flags)
	if err := cfg.Save(path); err != nil {
		return err
	}
	logger.Info("Configuration written", "path", path)
	return nil
}

func newLogger(level string) (log.Logger, error) {
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stdout)).
		With("module", "vaultd")
	option, err := log.AllowLevel(level)
	if err != nil {
		return nil, err
	}
	return log.NewFilter(logger, option), nil
}
