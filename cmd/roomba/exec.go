package main

import (
	"context"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/gwillem/roomba/pkg/dispatch"
	"github.com/gwillem/roomba/pkg/oi"
	"github.com/gwillem/roomba/pkg/robot"
	"github.com/gwillem/roomba/pkg/sequence"
)

type ExecCommand struct {
	Port   string `long:"port" description:"Serial port (overrides the configuration)"`
	Speed  int    `long:"speed" description:"Default speed in mm/s (overrides the configuration)"`
	DryRun bool   `long:"dry-run" description:"Print the packets instead of writing them to the robot"`
	TUI    bool   `long:"tui" description:"Show a live view of the commanded velocity"`

	Args struct {
		Sequence string `positional-arg-name:"sequence" description:"Move sequence, e.g. w5aw10ds4f"`
	} `positional-args:"yes" required:"yes"`
}

// packetPrinter is the dry-run sink: one line per packet.
type packetPrinter struct {
	w io.Writer
}

func (p packetPrinter) Write(b []byte) (int, error) {
	packets, err := oi.Decode(b)
	if err != nil {
		return 0, err
	}
	for _, pkt := range packets {
		fmt.Fprintf(p.w, "  %-16s %s\n", pkt.String(), dimStyle.Render(pkt.Opcode().String()))
	}
	return len(b), nil
}

func (c *ExecCommand) Execute(args []string) error {
	cmds, err := sequence.Parse(sequence.Normalize(c.Args.Sequence))
	if err != nil {
		fmt.Fprintln(os.Stderr, renderParseError(c.Args.Sequence, err))
		return err
	}

	log, err := newLogger()
	if err != nil {
		return err
	}
	defer log.Sync()

	r, err := c.openRobot(log)
	if err != nil {
		return err
	}
	defer r.Close()

	ctx, cancel := signalContext()
	defer cancel()

	if err := r.Init(ctx); err != nil {
		return fmt.Errorf("init robot: %w", err)
	}

	d := dispatch.New(r, dispatch.WithLogger(log))
	if c.TUI {
		return runTUI(ctx, cancel, d, cmds)
	}
	return d.Execute(ctx, cmds)
}

func (c *ExecCommand) openRobot(log *zap.Logger) (*robot.Robot, error) {
	cfg, err := loadConfig()
	if err != nil {
		cfg = robot.DefaultConfig()
	}
	if c.Port != "" {
		cfg.Port = c.Port
	}
	if c.Speed != 0 {
		cfg.DefaultSpeed = c.Speed
	}

	if c.DryRun {
		// no robot to settle
		cal := cfg.Calibration
		if cal.IsZero() {
			cal = robot.DefaultCalibration()
		}
		cal.StartDelayMs, cal.ModeDelayMs = 0, 0
		cfg.Calibration = cal
		return robot.FromConfig(packetPrinter{w: os.Stdout}, *cfg, robot.WithLogger(log))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w (run 'roomba setup' or pass --port)", err)
	}
	return robot.Open(*cfg, robot.WithLogger(log))
}

func runTUI(ctx context.Context, cancel context.CancelFunc, d *dispatch.Dispatcher, cmds []sequence.Command) error {
	p := tea.NewProgram(newExecModel(d, cmds, cancel), tea.WithAltScreen())

	errCh := make(chan error, 1)
	go func() {
		err := d.Execute(ctx, cmds)
		errCh <- err
		p.Send(doneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		return fmt.Errorf("run tui: %w", err)
	}
	cancel()
	return <-errCh
}
