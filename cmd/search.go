package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	parable "github.com/parable-gpt/parable"
	"github.com/parable-gpt/parable/tradition"
)

var (
	flagSearchTradition string
	flagSearchK         int
)

var searchCmd = &cobra.Command{
	Use:   "search <topic>",
	Short: "Retrieve the passages most similar to a topic",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&flagSearchTradition, "tradition", "Christianity", "tradition to search")
	searchCmd.Flags().IntVar(&flagSearchK, "k", 6, "number of passages to retrieve")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	reg, err := tradition.Load(parable.TraditionsPath())
	if err != nil {
		return err
	}
	t, err := reg.Get(flagSearchTradition)
	if err != nil {
		return err
	}

	engine, err := openEngine(cfg, reg, []string{t.Collection})
	if err != nil {
		return err
	}
	defer engine.Close()

	passages, err := engine.Retrieve(cmd.Context(), t.Name, args[0], flagSearchK)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SCORE\tREF\tTEXT")
	for _, p := range passages {
		fmt.Fprintf(tw, "%.3f\t%s\t%s\n", p.Score, p.Ref, truncate(p.Text, 80))
	}
	return tw.Flush()
}

// truncate shortens s to max bytes on a rune boundary, appending "..." when cut.
func truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
