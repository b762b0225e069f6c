package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"portgrab/pkg/sdk/scan"
	"portgrab/pkg/types"
)

func main() {
	host := flag.String("host", "127.0.0.1", "目标主机")
	start := flag.Int("start", 1, "起始端口")
	end := flag.Int("end", 1024, "结束端口")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := scan.DefaultConfig()
	cfg.Host = *host
	cfg.StartPort = *start
	cfg.EndPort = *end
	cfg.Concurrency = 500
	cfg.Timeout = 800 * time.Millisecond
	cfg.LogLevel = "debug"
	cfg.OnResult = func(r types.PortResult) {
		fmt.Printf("open %d: %s\n", r.Port, r.Banner)
	}

	begin := time.Now()
	data, err := scan.RunJSON(ctx, cfg)
	if err != nil {
		log.Fatalf("scan failed: %v", err)
	}
	fmt.Println(string(data))
	fmt.Printf("done in %v\n", time.Since(begin))
}
