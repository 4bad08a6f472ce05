package weather

// Forecast is the OpenWeatherMap 5-day / 3-hour forecast response, trimmed
// to the fields the bot renders. Entries arrive in chronological order.
type Forecast struct {
	Cod  string  `json:"cod"`
	City City    `json:"city"`
	List []Entry `json:"list"`
}

// OK reports whether the API flagged the response as successful. The API
// returns the status as a string here, unlike its other endpoints.
func (f *Forecast) OK() bool {
	return f.Cod == "200"
}

type City struct {
	Name string `json:"name"`
}

// Entry is a single 3-hour forecast slot.
type Entry struct {
	Dt      int64       `json:"dt"`
	Main    Temperature `json:"main"`
	Weather []Condition `json:"weather"`
	Rain    *Volume     `json:"rain,omitempty"`
	Snow    *Volume     `json:"snow,omitempty"`
}

type Temperature struct {
	TempMin float64 `json:"temp_min"`
	TempMax float64 `json:"temp_max"`
}

// Condition carries the numeric condition code and its localized description.
type Condition struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
}

// Volume is precipitation accumulated over the 3-hour slot, in millimetres.
// The field is absent when there is no precipitation.
type Volume struct {
	ThreeH *float64 `json:"3h,omitempty"`
}
