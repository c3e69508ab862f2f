package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"lectern/audio"
)

// selectDevice presents an interactive capture device list. A nil
// DeviceInfo result means the system default was chosen.
func selectDevice(ctx audio.Context) (*audio.DeviceInfo, error) {
	devices, err := ctx.Devices()
	if err != nil {
		return nil, fmt.Errorf("enumerating devices: %w", err)
	}
	if len(devices) == 0 {
		return nil, fmt.Errorf("no capture devices found")
	}

	labels := make([]string, 0, len(devices)+1)
	labels = append(labels, "system default")
	for _, d := range devices {
		label := d.Name
		if audio.IsBluetooth(d.Name) {
			label += " (bluetooth)"
		}
		labels = append(labels, label)
	}

	// Raw mode for arrow key input
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("setting raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	cursor := 0
	render := func() {
		fmt.Print("\r\x1b[J") // clear from cursor to end
		fmt.Print("Select input device (↑/↓, Enter to confirm):\r\n\r\n")
		for i, label := range labels {
			if i == cursor {
				fmt.Printf("  \x1b[1;36m▶ %s\x1b[0m\r\n", label)
			} else {
				fmt.Printf("    %s\r\n", label)
			}
		}
	}
	render()

	pick := func() (*audio.DeviceInfo, error) {
		if cursor == 0 {
			return nil, nil
		}
		return &devices[cursor-1], nil
	}

	buf := make([]byte, 3)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("reading input: %w", err)
		}

		if n == 1 {
			switch buf[0] {
			case 13: // Enter
				fmt.Printf("\r\n")
				term.Restore(fd, oldState)
				return pick()
			case 3: // Ctrl+C
				fmt.Printf("\r\n")
				term.Restore(fd, oldState)
				os.Exit(0)
			case 'j':
				if cursor < len(labels)-1 {
					cursor++
				}
			case 'k':
				if cursor > 0 {
					cursor--
				}
			}
		} else if n == 3 && buf[0] == 0x1b && buf[1] == '[' {
			switch buf[2] {
			case 'A': // Up arrow
				if cursor > 0 {
					cursor--
				}
			case 'B': // Down arrow
				if cursor < len(labels)-1 {
					cursor++
				}
			}
		}

		// Redraw: move up to overwrite
		fmt.Printf("\x1b[%dA", len(labels)+2)
		render()
	}
}
