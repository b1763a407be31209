package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"

	"github.com/gwillem/roomba/pkg/robot"
)

type Options struct {
	Config    string `long:"config" short:"c" default:"roomba.json" description:"Configuration file"`
	LogLevel  string `long:"log-level" default:"info" description:"Minimum log level (debug, info, warn, error)"`
	LogFormat string `long:"log-format" default:"console" choice:"console" choice:"json" description:"Log output format"`

	Setup SetupCommand `command:"setup" description:"Find the robot's serial port and write the configuration"`
	Run   RunCommand   `command:"run" description:"Receive move sequences from the network and execute them"`
	Exec  ExecCommand  `command:"exec" description:"Execute a single move sequence"`
	Parse ParseCommand `command:"parse" description:"Show how a move sequence is interpreted"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "roomba - execute move sequences on an iRobot Create over its serial Open Interface"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}

	cfg := zap.NewDevelopmentConfig()
	if opts.LogFormat == "json" {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = level
	return cfg.Build()
}

func loadConfig() (*robot.Config, error) {
	return robot.LoadConfigFrom(opts.Config)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
