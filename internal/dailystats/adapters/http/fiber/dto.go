package fiber

// DailyStatsResponse is one aggregated day.
// @Description Daily aggregate of homeserver check-ins
type DailyStatsResponse struct {
	Day                    int64             `json:"day" example:"1443657600"`
	Date                   string            `json:"date" example:"2015-10-01"`
	Metrics                map[string]*int64 `json:"metrics"`
	DailyActiveHomeservers int64             `json:"daily_active_homeservers" example:"2"`
}

type DailyStatsListResponse struct {
	From int64                `json:"from"`
	To   int64                `json:"to"`
	Days []DailyStatsResponse `json:"days"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

type ErrorResponse struct {
	Error   string `json:"error" example:"invalid_query"`
	Message string `json:"message,omitempty" example:"invalid time range"`
}
