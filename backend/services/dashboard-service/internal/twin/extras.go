package twin

import (
	"fmt"
	"math/rand/v2"
)

// Weather is the simulated driving condition and its effect on range.
type Weather struct {
	Condition   string `json:"condition"`
	TempC       int    `json:"temp"`
	Icon        string `json:"icon"`
	RangeImpact int    `json:"rangeImpact"`
}

// Alert returns the spoken warning for conditions that reduce range.
func (w Weather) Alert() (string, bool) {
	if w.RangeImpact >= 0 {
		return "", false
	}
	return fmt.Sprintf("Weather alert: %s conditions may reduce range by %d percent.", w.Condition, -w.RangeImpact), true
}

var weathers = []Weather{
	{Condition: "Clear", TempC: 28, Icon: "Sun", RangeImpact: 0},
	{Condition: "Rainy", TempC: 24, Icon: "CloudRain", RangeImpact: -15},
	{Condition: "Hot", TempC: 38, Icon: "Sun", RangeImpact: -10},
	{Condition: "Windy", TempC: 26, Icon: "Wind", RangeImpact: -5},
}

var tips = []string{
	"Tip: Fast charging 3 times a week reduces battery life by 2% annually.",
	"Tip: Maintain battery between 20-80% for optimal health.",
	"Tip: Precondition your battery before DC fast charging for better results.",
	"Tip: Regenerative braking can extend your range by up to 20%.",
}

func pickWeather(r float64) Weather {
	return weathers[pick(r, len(weathers))]
}

func pickTip(r float64) string {
	return tips[pick(r, len(tips))]
}

func pick(r float64, n int) int {
	i := int(r * float64(n))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func orDefaultRand(rnd func() float64) func() float64 {
	if rnd == nil {
		return rand.Float64
	}
	return rnd
}
