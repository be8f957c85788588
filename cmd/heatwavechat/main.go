package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"HeatwaveScanner/internal/config"
	"HeatwaveScanner/internal/infrastructure/index"
	"HeatwaveScanner/internal/infrastructure/llm"
	"HeatwaveScanner/internal/logging"
	"HeatwaveScanner/internal/usecase"
)

func main() {
	topK := flag.Int("top", 0, "number of top similar chunks to retrieve (default from config)")
	indexPath := flag.String("index", "", "path to the chunk index database (default from config)")
	model := flag.String("model", "", "ollama model to use for responses (default from config)")
	flag.Parse()

	cfg := config.Load()
	if *topK > 0 {
		cfg.Query.TopK = *topK
	}
	if *indexPath != "" {
		cfg.Index.Path = *indexPath
	}
	if *model != "" {
		cfg.Ollama.ChatModel = *model
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	chunkIndex, err := index.Open(cfg.Index.Path, cfg.Index.Collection)
	if err != nil {
		logger.Error("open chunk index", "error", err)
		fmt.Println("Make sure the scanner has built the index first.")
		os.Exit(1)
	}
	defer chunkIndex.Close()

	ollama := llm.NewOllamaClient(cfg.Ollama)

	query := usecase.NewQuery(usecase.QueryDeps{
		Embedder: ollama,
		Index:    chunkIndex,
		Chat:     ollama,
		TopK:     cfg.Query.TopK,
		MinScore: cfg.Query.MinScore,
		Logger:   logger.With("component", "query"),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("Marine Heatwave Discussion RAG System")
	fmt.Println("Type 'quit' or 'exit' to stop.")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("Enter your question about marine heatwaves: ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if question == "quit" || question == "exit" {
			break
		}

		answer, err := query.Ask(ctx, question)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			fmt.Printf("Error answering question: %v\n\n", err)
			continue
		}

		if answer.NoContext {
			fmt.Println("No relevant documents found.")
			fmt.Println()
			continue
		}

		fmt.Printf("Retrieved %d relevant chunks\n\n", len(answer.Sources))
		fmt.Println("Prompt:")
		fmt.Println(strings.Repeat("-", 20))
		fmt.Println(answer.Prompt)
		fmt.Println(strings.Repeat("-", 20))
		fmt.Println("Answer:")
		fmt.Println(strings.Repeat("-", 20))
		fmt.Println(answer.Text)
		fmt.Println(strings.Repeat("-", 20))
		fmt.Println()
	}

	fmt.Println("\nThanks for using the Marine Heatwave RAG System!")
}
