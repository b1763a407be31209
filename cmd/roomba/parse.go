package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gwillem/roomba/pkg/sequence"
)

type ParseCommand struct {
	Args struct {
		Sequence string `positional-arg-name:"sequence" description:"Move sequence, e.g. w5aw10ds4f"`
	} `positional-args:"yes" required:"yes"`
}

func (c *ParseCommand) Execute(args []string) error {
	cmds, err := sequence.Parse(c.Args.Sequence)
	if err != nil {
		fmt.Fprintln(os.Stderr, renderParseError(c.Args.Sequence, err))
		return err
	}

	fmt.Println(headerStyle.Render("Sequence ") + c.Args.Sequence)
	fmt.Println(dimStyle.Render("canonical: " + sequence.Format(cmds)))
	fmt.Println()
	fmt.Println(renderCommands(cmds))
	return nil
}

func renderCommands(cmds []sequence.Command) string {
	rows := make([][]string, 0, len(cmds))
	for i, cmd := range cmds {
		hold := "-"
		if cmd.HasDuration {
			hold = cmd.Duration.String()
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i),
			cmd.Action.String(),
			hold,
			fmt.Sprintf("%d", cmd.Pos),
		})
	}

	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("#", "Action", "Hold", "Offset").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		}).
		Render()
}

// renderParseError points at the offending character.
func renderParseError(input string, err error) string {
	var pe *sequence.ParseError
	if !errors.As(err, &pe) {
		return errorStyle.Render(err.Error())
	}
	pos := pe.Pos
	if pos > len(input) {
		pos = len(input)
	}
	var sb strings.Builder
	sb.WriteString("  " + input + "\n")
	sb.WriteString("  " + strings.Repeat(" ", pos) + errorStyle.Render("^") + "\n")
	sb.WriteString(errorStyle.Render(err.Error()))
	return sb.String()
}
