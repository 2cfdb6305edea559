package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"melechmcp/internal/agent"
	"melechmcp/internal/llm"
	"melechmcp/internal/rag"
)

var (
	flagGenerate bool
	flagTopK     int
)

var agentCmd = &cobra.Command{
	Use:   "agent [question]",
	Short: "Ask the JUCE documentation, or generate code grounded in it",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAgent,
}

func runAgent(cmd *cobra.Command, args []string) error {
	log, err := newLogger("juce-agent")
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client := rag.NewClient(cfg.RAG.URL, time.Duration(cfg.RAG.TimeoutSecs)*time.Second)
	ag := agent.New(client, providerFactory(), log)

	if len(args) == 1 {
		return askOnce(ctx, ag, args[0])
	}
	return agentREPL(ctx, ag)
}

func askOnce(ctx context.Context, ag *agent.Agent, question string) error {
	if flagGenerate {
		code, err := ag.GenerateCode(ctx, question, nil)
		if err != nil {
			return err
		}
		fmt.Println(code)
		return nil
	}

	answer, sources := ag.QueryDocs(ctx, question, flagTopK)
	fmt.Println(answer)
	src, err := json.Marshal(sources)
	if err != nil {
		return err
	}
	fmt.Println("\nSOURCES:", string(src))
	return nil
}

func agentREPL(ctx context.Context, ag *agent.Agent) error {
	var history []llm.Message
	scanner := bufio.NewScanner(os.Stdin)

	mode := "docs"
	if flagGenerate {
		mode = "code generation"
	}
	fmt.Printf("melechmcp agent, %s mode (type /help for commands, /exit to quit)\n\n", mode)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}

		switch question {
		case "/exit", "/quit":
			fmt.Println("Goodbye.")
			return nil
		case "/clear":
			history = nil
			fmt.Println("Conversation cleared.")
			continue
		case "/help":
			fmt.Println("Commands:")
			fmt.Println("  /clear  - clear conversation history")
			fmt.Println("  /exit   - quit")
			fmt.Println("  /help   - show this help")
			continue
		}

		if !flagGenerate {
			answer, _ := ag.QueryDocs(ctx, question, flagTopK)
			fmt.Printf("\n%s\n\n", answer)
			continue
		}

		fmt.Println("[Searching...]")
		answer, err := ag.GenerateCode(ctx, question, history)
		if err != nil {
			fmt.Fprintf(os.Stderr, "llm error: %v\n", err)
			continue
		}
		fmt.Printf("\n%s\n\n", answer)

		history = append(history,
			llm.Message{Role: llm.RoleUser, Content: question},
			llm.Message{Role: llm.RoleAssistant, Content: answer},
		)
		history = agent.TrimHistory(history)
	}
	return scanner.Err()
}

func init() {
	agentCmd.Flags().BoolVar(&flagGenerate, "generate", false, "generate code with the configured chat model")
	agentCmd.Flags().IntVar(&flagTopK, "k", 3, "documentation segments per answer")
	rootCmd.AddCommand(agentCmd)
}
