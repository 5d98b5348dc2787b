package interview

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strings"
)

const SpeechFormatMP3 = "mp3"

// BuildSpeechRequest picks a neural voice from region and gender and wraps
// the text in an SSML prosody element.
func BuildSpeechRequest(text, region, gender string, speed float64) SpeechRequest {
	female := strings.EqualFold(gender, "female")

	var voice string
	switch {
	case region == "en-US" && female:
		voice = "Joanna"
	case region == "en-US":
		voice = "Matthew"
	case female:
		voice = "Amy"
	default:
		voice = "Brian"
	}

	rate := "100%"
	if speed > 0 {
		rate = fmt.Sprintf("%d%%", int(math.Round(speed*100)))
	}

	var escaped bytes.Buffer
	_ = xml.EscapeText(&escaped, []byte(text))

	g := "male"
	if female {
		g = "female"
	}

	return SpeechRequest{
		SSML:    fmt.Sprintf(`<speak><prosody rate="%s">%s</prosody></speak>`, rate, escaped.String()),
		Text:    text,
		VoiceID: voice,
		Gender:  g,
		Speed:   speed,
		Format:  SpeechFormatMP3,
	}
}
