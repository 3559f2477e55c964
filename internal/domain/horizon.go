package domain

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Horizon is the forecast span phrase shared by prompts, captions and chart titles.
type Horizon string

const (
	HorizonNext24Hours Horizon = "next 24 hours"
	HorizonNext1Day    Horizon = "next 1 day"
	HorizonNext3Days   Horizon = "next 3 days"
	HorizonNext7Days   Horizon = "next 7 days"
)

// HorizonPlan is how many predicted points a horizon carries and how far apart they are.
type HorizonPlan struct {
	Points int
	Step   time.Duration
}

// The 1 day horizon covers the same span as 24 hours, so it shares that plan.
var horizonPlans = map[Horizon]HorizonPlan{
	HorizonNext24Hours: {Points: 6, Step: 4 * time.Hour},
	HorizonNext1Day:    {Points: 6, Step: 4 * time.Hour},
	HorizonNext3Days:   {Points: 3, Step: 24 * time.Hour},
	HorizonNext7Days:   {Points: 7, Step: 24 * time.Hour},
}

// defaultPromptPoints is asked for when a horizon has no plan.
const defaultPromptPoints = 5

func HorizonPlanFor(h Horizon) (HorizonPlan, bool) {
	plan, ok := horizonPlans[h]
	return plan, ok
}

// PromptPoints is the number of path points requested from the AI for the horizon.
func (h Horizon) PromptPoints() int {
	if plan, ok := horizonPlans[h]; ok {
		return plan.Points
	}
	return defaultPromptPoints
}

// Title renders "next 3 days" as "Next 3 Days".
func (h Horizon) Title() string {
	return cases.Title(language.English).String(string(h))
}

// ForecastPeriod maps a short command argument to a horizon and the history used to prompt for it.
type ForecastPeriod struct {
	Key             string
	Horizon         Horizon
	HistoryInterval string
	HistoryDays     int
}

const DefaultForecastPeriod = "24h"

var forecastPeriods = map[string]ForecastPeriod{
	"24h": {Key: "24h", Horizon: HorizonNext24Hours, HistoryInterval: Interval1h, HistoryDays: 7},
	"1d":  {Key: "1d", Horizon: HorizonNext1Day, HistoryInterval: Interval1h, HistoryDays: 7},
	"3d":  {Key: "3d", Horizon: HorizonNext3Days, HistoryInterval: Interval4h, HistoryDays: 21},
	"7d":  {Key: "7d", Horizon: HorizonNext7Days, HistoryInterval: Interval1d, HistoryDays: 60},
}

// ForecastPeriodKeys is the accepted period argument set in display order.
var ForecastPeriodKeys = []string{"24h", "1d", "3d", "7d"}

func LookupForecastPeriod(key string) (ForecastPeriod, bool) {
	p, ok := forecastPeriods[key]
	return p, ok
}
