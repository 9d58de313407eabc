package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent door sessions",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := boot(true); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
	Run: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "rows to show")
}

func runHistory(cmd *cobra.Command, args []string) {
	recs, err := appStore.RecentSessions(historyLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	for _, r := range recs {
		fmt.Printf("%s  node %-3d %-10s %-16s %6s  %s\n",
			r.StartedAt.Format("2006-01-02 15:04"),
			r.Node, r.Protocol, r.Alias,
			r.Duration().Round(time.Second).String(), r.ExitReason)
	}

	counts, err := appStore.SessionsByProtocol()
	if err == nil && len(counts) > 0 {
		fmt.Println()
		for proto, n := range counts {
			fmt.Printf("%-10s %d\n", proto, n)
		}
	}
}
