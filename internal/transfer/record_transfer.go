package transfer

// RecordCreation is the payload for creating a content record, as a draft
// or directly into the pending review queue.
type RecordCreation struct {
	Caption        string   `json:"caption"`
	Hashtags       []string `json:"hashtags"`
	ImageURL       string   `json:"image_url"`
	ExtraImageURLs []string `json:"extra_image_urls"`
	SourceMetadata string   `json:"source_metadata"`
	IsDraft        bool     `json:"is_draft"`
}

// RecordUpdate is a partial edit of the authored payload; nil fields are
// left untouched.
type RecordUpdate struct {
	Caption        *string  `json:"caption"`
	Hashtags       []string `json:"hashtags"`
	ImageURL       *string  `json:"image_url"`
	ExtraImageURLs []string `json:"extra_image_urls"`
	SourceMetadata *string  `json:"source_metadata"`
}

type RejectionRequest struct {
	ID     int64   `json:"id"`
	Reason *string `json:"reason"`
}
