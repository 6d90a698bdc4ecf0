package request

type CreateChatSession struct {
	Title     string `json:"title"`
	DatasetID *uint  `json:"datasetId,omitempty"`
}

type AskChat struct {
	Prompt string `json:"prompt" validate:"required"`
}
