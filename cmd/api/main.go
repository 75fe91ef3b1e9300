package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"todoTracker/internal/app"
	"todoTracker/internal/config"
	"todoTracker/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// TODO_CONFIG указывает на файл конфигурации, иначе ищем config.yml
	cfg, err := config.Load(os.Getenv("TODO_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "загрузка конфигурации:", err)
		os.Exit(1)
	}

	a, err := app.New(cfg).Init(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := a.Run(ctx); err != nil {
		logger.Error("Сервер остановлен с ошибкой", err)
		os.Exit(1)
	}
}
