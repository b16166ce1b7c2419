package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"

	"hostprobe/internal/collect"
	"hostprobe/internal/config"
	"hostprobe/internal/daemon"
	"hostprobe/internal/gpu"
	"hostprobe/internal/ui"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	// stdout carries the protocol; diagnostics go to stderr only.
	log.SetFlags(0)
	log.SetPrefix("hostprobe: ")
	_ = godotenv.Load()

	cfg := config.FromFlags(os.Args[1:])
	col := collect.New(collect.SystemProvider{}, gpu.NewResolver(cfg.HelperDir), collect.Options{
		DiskPath:       cfg.DiskPath,
		DisableGPU:     !cfg.EnableGPU,
		DisableBattery: !cfg.EnableBattery,
	})

	switch {
	case cfg.Once:
		if err := col.Prime(); err != nil {
			log.Fatalf("startup: %v", err)
		}
		b, err := json.Marshal(col.Collect())
		if err != nil {
			log.Fatalf("marshal snapshot: %v", err)
		}
		fmt.Println(string(b))
	case cfg.Watch:
		if err := col.Prime(); err != nil {
			log.Fatalf("startup: %v", err)
		}
		if err := ui.RunTUI(cfg, col); err != nil {
			log.Fatalf("watch: %v", err)
		}
	default:
		if err := daemon.New(col, os.Stdin, os.Stdout).Run(); err != nil {
			log.Fatalf("startup: %v", err)
		}
	}
}
