package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"doorway/dropfile"
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	flagStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <dropfile>",
	Short: "Parse a dropfile and show what a door would see",
	Args:  cobra.ExactArgs(1),
	Run:   runInspect,
}

func runInspect(cmd *cobra.Command, args []string) {
	info, err := dropfile.Load(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	row := func(label, value string) {
		fmt.Println(labelStyle.Render(label) + valueStyle.Render(value))
	}

	row("Com type", info.ComType.String())
	row("Socket", strconv.Itoa(info.SocketHandle))
	row("Baud", strconv.Itoa(info.Baud))
	row("Node", strconv.Itoa(info.Node))
	row("Record", strconv.Itoa(info.RecPos))
	row("Alias", info.Alias)
	row("Real name", info.RealName)
	row("Access", strconv.Itoa(info.Access))
	row("Time left", fmt.Sprintf("%d min", info.MaxTime/60))
	row("Emulation", info.Emulation.String())

	var flags []string
	if info.Fairy {
		flags = append(flags, "fairy")
	}
	if info.Registered {
		flags = append(flags, "registered")
	}
	if info.Clean {
		flags = append(flags, "clean")
	}
	if len(flags) > 0 {
		fmt.Println(labelStyle.Render("LORD flags") + flagStyle.Render(fmt.Sprint(flags)))
	}
}
