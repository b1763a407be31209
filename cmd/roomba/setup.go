package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/gwillem/roomba/pkg/oi"
	"github.com/gwillem/roomba/pkg/robot"
)

type SetupCommand struct{}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Roomba Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━"))
	fmt.Println()

	cfg, err := loadConfig()
	if err != nil {
		cfg = robot.DefaultConfig()
	}

	// Step 1: find the port
	port, err := choosePort(cfg.Port)
	if err != nil {
		return err
	}
	cfg.Port = port

	// Step 2: driving parameters
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Driving ━━━"))
	fmt.Println()
	if err := askDriving(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Step 3: optional identification
	if confirm(fmt.Sprintf("Wiggle the robot on %s to check the connection? It backs up about 30 cm.", cfg.Port)) {
		if err := wiggle(cfg); err != nil {
			fmt.Fprintln(os.Stderr, errorStyle.Render(fmt.Sprintf("Wiggle failed: %v", err)))
		} else {
			fmt.Println(successStyle.Render("Robot responded."))
		}
	}

	if err := cfg.SaveTo(opts.Config); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", opts.Config)
	fmt.Println()
	fmt.Println("Try a sequence with: " + headerStyle.Render("roomba exec w2ad"))

	return nil
}

func choosePort(current string) (string, error) {
	fmt.Println("Scanning for serial ports...")
	fmt.Println()

	ports, err := robot.Ports()
	if err != nil {
		return "", err
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found.")
		fmt.Println("Make sure the robot's serial cable is connected.")
		return "", fmt.Errorf("no serial ports")
	}

	options := make([]huh.Option[string], 0, len(ports))
	for _, p := range ports {
		options = append(options, huh.NewOption(p, p))
	}

	port := current
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which port is the robot on?").
				Options(options...).
				Value(&port),
		),
	)
	if err := form.Run(); err != nil {
		return "", err
	}
	return port, nil
}

func askDriving(cfg *robot.Config) error {
	speed := strconv.Itoa(cfg.DefaultSpeed)
	mode := cfg.Mode
	if mode == "" {
		mode = oi.ModeFull.String()
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Default speed (mm/s)").
				Value(&speed).
				Validate(func(s string) error {
					v, err := strconv.Atoi(s)
					if err != nil {
						return fmt.Errorf("not a number")
					}
					if v < 0 || v > oi.MaxVelocity {
						return fmt.Errorf("must be between 0 and %d", oi.MaxVelocity)
					}
					return nil
				}),
			huh.NewSelect[string]().
				Title("Operating mode").
				Options(
					huh.NewOption("Full (no safety stops)", oi.ModeFull.String()),
					huh.NewOption("Safe (stops on cliffs and wheel drops)", oi.ModeSafe.String()),
				).
				Value(&mode),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	cfg.DefaultSpeed, _ = strconv.Atoi(speed)
	cfg.Mode = mode
	return nil
}

func confirm(title string) bool {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		return false
	}
	return ok
}

// wiggle turns the robot left and back, then backs up one step, so the
// user can see which robot is on the port.
func wiggle(cfg *robot.Config) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	r, err := robot.Open(*cfg, robot.WithLogger(log.Named("robot")))
	if err != nil {
		return err
	}
	defer r.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fmt.Printf("\n  Wiggling robot on %s...\n", cfg.Port)
	return identify(ctx, r)
}

// identify starts r and runs the wiggle. Every primitive ends with Stop.
func identify(ctx context.Context, r *robot.Robot) error {
	if err := r.Init(ctx); err != nil {
		return err
	}
	if err := r.TurnLeft(); err != nil {
		return err
	}
	if err := r.TurnRight(); err != nil {
		return err
	}
	return r.BackOneStep()
}
