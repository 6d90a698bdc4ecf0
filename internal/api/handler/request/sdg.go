package request

// FetchSdg selects SDG indicator data.
type FetchSdg struct {
	Indicators []string `json:"indicators" validate:"required,min=1"`
	AreaCodes  []string `json:"areaCodes"`
	YearFrom   int      `json:"yearFrom"`
	YearTo     int      `json:"yearTo"`
	MaxPages   int      `json:"maxPages"`
}

// SaveSdgDataset fetches indicator data and saves it as a dataset.
type SaveSdgDataset struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Query       FetchSdg `json:"query" validate:"required"`
}
