package services

import (
	"math/rand"
	"time"
)

// CurrentWeather are the conditions over the surveillance area
type CurrentWeather struct {
	Temperature   float64 `json:"temperature"`
	Humidity      int     `json:"humidity"`
	Pressure      float64 `json:"pressure"`
	WindSpeed     float64 `json:"windSpeed"`
	WindDirection int     `json:"windDirection"`
	Visibility    float64 `json:"visibility"`
	Conditions    string  `json:"conditions"`
	CloudCover    int     `json:"cloudCover"`
}

// ForecastDay is one day of forecast
type ForecastDay struct {
	Date           string  `json:"date"`
	TemperatureMax float64 `json:"temperatureMax"`
	TemperatureMin float64 `json:"temperatureMin"`
	Humidity       int     `json:"humidity"`
	WindSpeed      float64 `json:"windSpeed"`
	Conditions     string  `json:"conditions"`
}

// WeatherProvider supplies conditions for a location. The static provider
// below stands in for a real weather API integration.
type WeatherProvider interface {
	Current(lat, lng float64) (CurrentWeather, error)
	Forecast(lat, lng float64, days int) ([]ForecastDay, error)
}

// StaticWeather serves plausible fixed conditions with mild variation
type StaticWeather struct{}

// NewStaticWeather creates the static provider
func NewStaticWeather() *StaticWeather {
	return &StaticWeather{}
}

var conditionPool = []string{"clear", "partly_cloudy", "cloudy", "light_rain"}

// Current returns current conditions
func (w *StaticWeather) Current(lat, lng float64) (CurrentWeather, error) {
	return CurrentWeather{
		Temperature:   22 + rand.Float64()*6,
		Humidity:      55 + rand.Intn(20),
		Pressure:      1013.2,
		WindSpeed:     8 + rand.Float64()*8,
		WindDirection: rand.Intn(360),
		Visibility:    10.0,
		Conditions:    conditionPool[rand.Intn(len(conditionPool))],
		CloudCover:    rand.Intn(60),
	}, nil
}

// Forecast returns a daily forecast
func (w *StaticWeather) Forecast(lat, lng float64, days int) ([]ForecastDay, error) {
	if days <= 0 {
		days = 5
	}
	out := make([]ForecastDay, 0, days)
	for i := 0; i < days; i++ {
		date := time.Now().AddDate(0, 0, i+1)
		out = append(out, ForecastDay{
			Date:           date.Format("2006-01-02"),
			TemperatureMax: 24 + float64(rand.Intn(6)),
			TemperatureMin: 15 + float64(rand.Intn(5)),
			Humidity:       55 + rand.Intn(25),
			WindSpeed:      6 + rand.Float64()*10,
			Conditions:     conditionPool[rand.Intn(len(conditionPool))],
		})
	}
	return out, nil
}
