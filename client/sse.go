// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package client

import (
	"bufio"
	"io"
	"strings"
)

const maxEventSize = 1 << 20

// event is one Server-Sent Events message
type event struct {
	ID    string
	Event string
	Data  string
}

// readEvents parses a text/event-stream body and calls fn for every event
// that carries data. Comment lines (": ping") are skipped. It returns when r
// is exhausted or fails.
func readEvents(r io.Reader, fn func(event)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxEventSize)

	var (
		ev   event
		data []string
	)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")

		if line == "" {
			if len(data) > 0 {
				ev.Data = strings.Join(data, "\n")
				if ev.Event == "" {
					ev.Event = "message"
				}
				fn(ev)
			}
			ev, data = event{}, nil
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "id":
			ev.ID = value
		case "event":
			ev.Event = value
		case "data":
			data = append(data, value)
		}
	}

	return scanner.Err()
}
