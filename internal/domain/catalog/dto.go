package catalog

// ModelResponse is the JSON form of a record with resolved URLs
type ModelResponse struct {
	ID           string `json:"id"`
	Slug         string `json:"slug"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Location     string `json:"location"`
	Thumbnail    string `json:"thumbnail"`
	ModelPath    string `json:"modelPath"`
	PageURL      string `json:"pageUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
	AssetURL     string `json:"assetUrl"`
}

// URLResolver maps dataset paths to public URLs
type URLResolver interface {
	AssetURL(path string) string
}

// PagePath is the site path of a record's detail page
func PagePath(slug string) string {
	return "/model/" + slug
}

// ThumbnailPath is the site path of a record's resized thumbnail
func ThumbnailPath(slug string) string {
	return "/thumbnails/" + slug
}

// ToResponse converts a record
func ToResponse(rec ModelRecord, urls URLResolver) ModelResponse {
	resp := ModelResponse{
		ID:           rec.ID,
		Slug:         rec.Slug,
		Title:        rec.Title,
		Description:  rec.Description,
		Category:     rec.Category,
		Location:     rec.Location,
		Thumbnail:    rec.Thumbnail,
		ModelPath:    rec.ModelPath,
		PageURL:      PagePath(rec.Slug),
		ThumbnailURL: ThumbnailPath(rec.Slug),
		AssetURL:     rec.ModelPath,
	}
	if urls != nil {
		resp.AssetURL = urls.AssetURL(rec.ModelPath)
	}
	return resp
}

// ToResponses converts records keeping order
func ToResponses(records []ModelRecord, urls URLResolver) []ModelResponse {
	out := make([]ModelResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, ToResponse(rec, urls))
	}
	return out
}
