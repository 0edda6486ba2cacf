package main

import (
	"github.com/bioreason/hypothesis/internal/server"
	"github.com/bioreason/hypothesis/internal/util"
	"github.com/bioreason/hypothesis/pkg/logger"
	"github.com/bioreason/hypothesis/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
