package notification

import (
	"fmt"

	"quakealert-backend/internal/model"
)

// EventIDKey is the data field carrying the event id to the client.
const EventIDKey = "earthquakeID"

// Message is the platform-neutral content of one alert.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
	// APNs delivery flags.
	Sound            string
	Badge            int
	ContentAvailable bool
}

// BuildMessage renders the alert for an event.
func BuildMessage(title string, e model.Event) Message {
	place := e.Place
	if place == "" {
		place = "Unknown location"
	}
	return Message{
		Title:            title,
		Body:             fmt.Sprintf("M %.1f - %s", e.Magnitude, place),
		Data:             map[string]string{EventIDKey: e.ID},
		Sound:            "default",
		Badge:            1,
		ContentAvailable: true,
	}
}
