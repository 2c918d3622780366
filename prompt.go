package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"utrinv/pkg/session"
)

const maxRepeat = 100

var errQuit = errors.New("quit")

// pickPort lists serial devices and asks which one to open.
func pickPort() (string, error) {
	ports, err := session.ListPorts()
	if err != nil {
		return "", err
	}
	if len(ports) == 0 {
		return "", errors.New("no serial ports found")
	}

	opts := make([]huh.Option[string], 0, len(ports))
	for _, p := range ports {
		opts = append(opts, huh.NewOption(p.String(), p.Name))
	}
	choice := ports[0].Name
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Serial port").
			Description("Port the reader is connected to.").
			Options(opts...).
			Value(&choice),
	))
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", errors.New("no serial port selected")
		}
		return "", fmt.Errorf("port prompt: %w", err)
	}
	return choice, nil
}

// promptRepeat asks how many inventory rounds to run next. errQuit means
// the operator is done.
func promptRepeat() (int, error) {
	raw := ""
	form := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title(fmt.Sprintf("Inventory rounds (1-%d, q to finish)", maxRepeat)).
			Value(&raw).
			Validate(func(s string) error {
				_, err := parseRepeat(s)
				if errors.Is(err, errQuit) {
					return nil
				}
				return err
			}),
	))
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return 0, errQuit
		}
		return 0, fmt.Errorf("repeat prompt: %w", err)
	}
	return parseRepeat(raw)
}

func parseRepeat(s string) (int, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "q") {
		return 0, errQuit
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("enter a number or q")
	}
	if n < 1 || n > maxRepeat {
		return 0, fmt.Errorf("enter a number from 1 to %d", maxRepeat)
	}
	return n, nil
}
