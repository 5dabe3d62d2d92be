package server

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/woozymasta/zenit-dash/internal/dashboard"
)

// eventRequest is the wire form of a dashboard event.
type eventRequest struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	Dimension string `json:"dimension"`
	Key       string `json:"key"`
	Direction string `json:"direction"`
	Page      int    `json:"page"`
}

func (e eventRequest) toEvent() (dashboard.Event, error) {
	switch e.Type {
	case "select_application":
		return dashboard.SelectApplication{Application: e.Value}, nil
	case "select_window":
		w, err := dashboard.ParseTimeWindow(e.Value)
		if err != nil {
			return nil, err
		}
		return dashboard.SelectWindow{Window: w}, nil
	case "toggle_dimension":
		d, err := dashboard.ParseDimension(e.Dimension)
		if err != nil {
			return nil, err
		}
		return dashboard.ToggleDimension{Dimension: d, Value: e.Value}, nil
	case "click_region":
		return dashboard.ClickRegion{Name: e.Value}, nil
	case "search":
		return dashboard.SetSearch{Query: e.Value}, nil
	case "click_sort":
		key, err := dashboard.ParseField(e.Key)
		if err != nil {
			return nil, err
		}
		return dashboard.ClickSort{Key: key}, nil
	case "set_sort":
		key, err := dashboard.ParseField(e.Key)
		if err != nil {
			return nil, err
		}
		dir, err := dashboard.ParseSortDirection(e.Direction)
		if err != nil {
			return nil, err
		}
		return dashboard.SetSort{Key: key, Direction: dir}, nil
	case "next_page":
		return dashboard.NextPage{}, nil
	case "prev_page":
		return dashboard.PrevPage{}, nil
	case "go_to_page":
		return dashboard.GoToPage{Page: e.Page}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
}

// decodeEvents accepts a single event object or an array of them.
func decodeEvents(body []byte) ([]dashboard.Event, error) {
	var reqs []eventRequest

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &reqs); err != nil {
			return nil, err
		}
	} else {
		var one eventRequest
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, err
		}
		reqs = append(reqs, one)
	}

	events := make([]dashboard.Event, 0, len(reqs))
	for i, r := range reqs {
		ev, err := r.toEvent()
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, ev)
	}

	return events, nil
}
