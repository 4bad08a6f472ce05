package dispatch

import (
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/javifm86/weather-bot/internal/weather"
)

// Weather icons keyed by OpenWeatherMap condition code range.
const (
	iconStorm   = "⚡" // thunderstorm, 2xx
	iconRain    = "☔" // drizzle and rain, 3xx and 5xx
	iconFreeze  = "♨" // snow and freezing, 6xx
	iconClear   = "☀" // 800
	iconCloud   = "☁" // 80x
	iconWarning = "⚠" // anything else
)

// Icon maps a condition code to its icon. Codes in [500,600) always render
// the rain icon; the freeze icon only covers [600,700). Atmosphere codes
// (7xx) and anything unrecognized fall through to the warning icon.
func Icon(code int) string {
	switch {
	case code >= 200 && code < 300:
		return iconStorm
	case code >= 300 && code < 400:
		return iconRain
	case code >= 500 && code < 600:
		return iconRain
	case code >= 600 && code < 700:
		return iconFreeze
	case code == 800:
		return iconClear
	case code > 800 && code < 900:
		return iconCloud
	default:
		return iconWarning
	}
}

// FormatForecast renders up to max forecast entries as a Telegram HTML
// message, prefixed with a bold per-city header. Timestamps render in loc.
func FormatForecast(fc *weather.Forecast, max int, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>Weather forecast for %s</b>\n\n", fc.City.Name)

	count := len(fc.List)
	if count > max {
		count = max
	}
	for i := 0; i < count; i++ {
		b.WriteString(formatEntry(fc.List[i], loc))
	}
	return b.String()
}

// formatEntry renders a single 3-hour slot: time, description with icon,
// temperature range and optional precipitation lines.
func formatEntry(e weather.Entry, loc *time.Location) string {
	var b strings.Builder

	ts := time.Unix(e.Dt, 0).In(loc).Format("15:04")

	var code int
	var description string
	if len(e.Weather) > 0 {
		code = e.Weather[0].ID
		description = capitalize(e.Weather[0].Description)
	}
	fmt.Fprintf(&b, "%s: <b>%s</b> %s\n", ts, description, Icon(code))

	minT := int(math.Round(e.Main.TempMin))
	maxT := int(math.Round(e.Main.TempMax))
	if minT != maxT {
		fmt.Fprintf(&b, "Temperature: %d°C - %d°C\n", minT, maxT)
	} else {
		// No sense showing the same value twice.
		fmt.Fprintf(&b, "Temperature: %d°C\n", maxT)
	}

	if e.Rain != nil && e.Rain.ThreeH != nil {
		fmt.Fprintf(&b, "Rain: %vmm\n", *e.Rain.ThreeH)
	}
	if e.Snow != nil && e.Snow.ThreeH != nil {
		fmt.Fprintf(&b, "Snow: %v\n", *e.Snow.ThreeH)
	}

	b.WriteString("\n")
	return b.String()
}

// capitalize upper-cases the first rune; descriptions arrive lower-cased
// and possibly localized.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
