package door

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"doorway/ansi"
)

var statusStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("15")).
	Background(lipgloss.Color("4"))

// refreshStatusBar repaints the sysop line at the bottom of the local
// console. The remote user never sees it.
func (s *Session) refreshStatusBar() {
	w, h := s.local.Size()

	alias := "unknown"
	node := 0
	comType := "local"
	if s.Info != nil {
		if s.Info.Alias != "" {
			alias = s.Info.Alias
		}
		node = s.Info.Node
		comType = s.Info.ComType.String()
	}

	left := fmt.Sprintf(" %s · node %d · %s", alias, node, comType)
	right := fmt.Sprintf("%d min left ", s.SecondsLeft()/60)

	gap := w - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	line := left + fmt.Sprintf("%*s", gap, "") + right

	s.local.Write([]byte(ansi.SaveCursor()))
	s.local.GotoXY(1, h)
	s.local.Write([]byte(statusStyle.Render(line)))
	s.local.Write([]byte(ansi.RestoreCursor()))
}
