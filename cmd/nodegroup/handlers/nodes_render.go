package handlers

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/myorg/nodegroup/internal/compute"
)

var (
	nodesColorGreen = lipgloss.Color("#22c55e")
	nodesColorRed   = lipgloss.Color("#ef4444")
	nodesColorDim   = lipgloss.Color("#6b7280")
	nodesColorWhite = lipgloss.Color("#f9fafb")
)

var (
	nodesTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(nodesColorWhite)

	nodesDimStyle = lipgloss.NewStyle().
			Foreground(nodesColorDim)

	nodesGreenStyle = lipgloss.NewStyle().
			Foreground(nodesColorGreen)

	nodesRedStyle = lipgloss.NewStyle().
			Foreground(nodesColorRed)
)

// stdoutIsTerminal reports whether stdout supports styled output.
var stdoutIsTerminal = func() bool {
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// renderNodesTable produces a lipgloss-styled node listing, grouped by tag
// and sorted by node id within each group.
func renderNodesTable(nodes []compute.NodeMetadata) string {
	styled := stdoutIsTerminal()
	var b strings.Builder

	if len(nodes) == 0 {
		b.WriteString("No nodes found.\n")
		return b.String()
	}

	byTag := make(map[string][]compute.NodeMetadata)
	for _, node := range nodes {
		byTag[node.Tag] = append(byTag[node.Tag], node)
	}
	tags := make([]string, 0, len(byTag))
	for tag := range byTag {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	for _, tag := range tags {
		group := byTag[tag]
		sort.Slice(group, func(i, j int) bool { return group[i].ID < group[j].ID })

		title := fmt.Sprintf("  group: %s", tag)
		if styled {
			title = nodesTitleStyle.Render(title)
		}
		b.WriteString("\n")
		b.WriteString(title)
		b.WriteString("\n")

		header := fmt.Sprintf("  %-20s %-12s %-12s %-16s %-12s", "Node", "State", "Region", "Public IP", "Type")
		rule := "  " + strings.Repeat("─", 74)
		if styled {
			header = nodesDimStyle.Render(header)
			rule = nodesDimStyle.Render(rule)
		}
		b.WriteString(rule)
		b.WriteString("\n")
		b.WriteString(header)
		b.WriteString("\n")

		for _, node := range group {
			state := string(node.State)
			if styled {
				switch node.State {
				case compute.NodeRunning:
					state = nodesGreenStyle.Render(fmt.Sprintf("%-12s", state))
				case compute.NodeTerminated:
					state = nodesRedStyle.Render(fmt.Sprintf("%-12s", state))
				default:
					state = fmt.Sprintf("%-12s", state)
				}
			} else {
				state = fmt.Sprintf("%-12s", state)
			}
			fmt.Fprintf(&b, "  %-20s %s %-12s %-16s %-12s\n",
				node.Name(), state, node.Region, node.PublicIP, node.InstanceType)
		}
	}

	b.WriteString("\n")
	summary := fmt.Sprintf("  %d node(s) across %d group(s)", len(nodes), len(tags))
	if styled {
		summary = nodesDimStyle.Render(summary)
	}
	b.WriteString(summary)
	b.WriteString("\n")
	return b.String()
}
