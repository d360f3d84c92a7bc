package cmd

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	parable "github.com/parable-gpt/parable"
	"github.com/parable-gpt/parable/tradition"
)

// runInteractive is the root command: an interactive loop prompting for a
// tradition and topic, printing each generated parable until the user quits.
func runInteractive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, err := tradition.Load(parable.TraditionsPath())
	if err != nil {
		return err
	}

	engine, err := openEngine(cfg, reg, reg.Collections())
	if err != nil {
		return err
	}
	defer engine.Close()

	in := bufio.NewScanner(os.Stdin)

	fmt.Println("Welcome to parable!")
	fmt.Println()

	for {
		t, ok := chooseTradition(in, reg)
		if !ok {
			return nil
		}

		topic, ok := readLine(in, "Enter topic for the parable: ")
		if !ok {
			return nil
		}
		topic = strings.TrimSpace(topic)
		if topic == "" {
			fmt.Println("Topic must not be empty.")
			fmt.Println()
			continue
		}

		wcText, ok := readLine(in, "Enter desired word count (enter to skip): ")
		if !ok {
			return nil
		}
		wordCount := 0
		if s := strings.TrimSpace(wcText); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				fmt.Println("Ignoring invalid word count.")
			} else {
				wordCount = n
			}
		}

		instructions, ok := readLine(in, "Enter any additional instructions for the parable (enter to skip): ")
		if !ok {
			return nil
		}

		req := &parable.Request{
			Tradition:    t.Name,
			Topic:        topic,
			WordCount:    wordCount,
			Instructions: strings.TrimSpace(instructions),
		}

		result, err := engine.Generate(cmd.Context(), req)
		if err != nil {
			slog.Error("generation failed", "tradition", req.Tradition, "topic", req.Topic, "error", err)
			if flagLog != "" {
				appendTranscript(flagLog, req, nil, err)
			}
			fmt.Println()
			continue
		}

		fmt.Println("\n---")
		fmt.Println(result.Parable.Raw)
		fmt.Println("---")
		fmt.Println("Sources:")
		for _, p := range result.Passages {
			fmt.Printf("  %s (%.2f)\n", p.Ref, p.Score)
		}
		fmt.Println()

		if flagLog != "" {
			appendTranscript(flagLog, req, result, nil)
		}
	}
}

// chooseTradition shows the numbered tradition menu and reads a selection.
// ok is false when the user quits or input ends.
func chooseTradition(in *bufio.Scanner, reg *tradition.Registry) (*tradition.Tradition, bool) {
	names := reg.Names()
	for {
		fmt.Println("Select a tradition below or 'q' to quit:")
		for i, name := range names {
			fmt.Printf(" (%d) %s\n", i, name)
		}
		line, ok := readLine(in, "Your choice: ")
		if !ok {
			return nil, false
		}
		choice := strings.TrimSpace(line)
		if strings.EqualFold(choice, "q") {
			return nil, false
		}
		if idx, err := strconv.Atoi(choice); err == nil && idx >= 0 && idx < len(names) {
			t, err := reg.Get(names[idx])
			if err == nil {
				return t, true
			}
		}
		fmt.Printf("Please enter a number 0-%d, or 'q'.\n", len(names)-1)
	}
}

// readLine prints a prompt and reads one line. ok is false on EOF.
func readLine(in *bufio.Scanner, prompt string) (string, bool) {
	fmt.Print(prompt)
	if !in.Scan() {
		fmt.Println()
		return "", false
	}
	return in.Text(), true
}
