// Command runscript evaluates a script file with the engine matching
// its extension (or an explicit override) and reports results on
// stdout.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/libresprite/script"
)

type config struct {
	Engine          string `yaml:"engine"`
	Delegate        string `yaml:"delegate"`
	PrintLastResult bool   `yaml:"print_last_result"`
}

func loadConfig(path string) (config, error) {
	var cfg config
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

func main() {
	configPath := flag.String("config", "runscript.yaml", "path to configuration file (ignored if missing)")
	envFile := flag.String("env", ".env", "path to .env file (ignored if missing)")
	engineName := flag.String("engine", "", "engine to use (overrides config and file extension)")
	printResult := flag.Bool("print", false, "print the value of the final expression")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: runscript [flags] <file> [script args]")
		os.Exit(2)
	}
	file := flag.Arg(0)

	_ = godotenv.Load(*envFile)
	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("bad configuration", "err", err)
		os.Exit(1)
	}

	script.Setup()

	delegate := cfg.Delegate
	if delegate == "" {
		delegate = "stdio"
	}
	script.Delegates.SetDefault(delegate)

	name := *engineName
	if name == "" {
		name = os.Getenv("SCRIPT_ENGINE")
	}
	if name == "" {
		name = cfg.Engine
	}
	if name == "" {
		name = strings.ToLower(strings.TrimPrefix(filepath.Ext(file), "."))
	}
	script.Engines.SetDefault(name)

	engine := script.NewEngine(name)
	if engine == nil {
		slog.Error("no engine registered", "name", name)
		os.Exit(1)
	}
	defer engine.Close()

	if *printResult || cfg.PrintLastResult {
		engine.PrintLastResult()
	}
	if lua, ok := engine.(*script.LuaEngine); ok {
		lua.RegisterValue("arg", flag.Args()[1:])
	}

	if !engine.EvalFile(file) {
		os.Exit(1)
	}
}
