package request

// FetchAcled narrows an ACLED event read. All filters are optional.
type FetchAcled struct {
	Countries     []string `json:"countries"`
	Regions       []string `json:"regions"`
	SubEventTypes []string `json:"subEventTypes"`
	YearFrom      int      `json:"yearFrom"`
	YearTo        int      `json:"yearTo"`
	Limit         int      `json:"limit"`
}

// SaveAcledDataset fetches events and saves them as a dataset.
type SaveAcledDataset struct {
	Name        string     `json:"name" validate:"required"`
	Description string     `json:"description"`
	Filter      FetchAcled `json:"filter"`
}
