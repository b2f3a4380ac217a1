package catalog

// ModelRecord is one showcased heritage model. Records are immutable once loaded.
type ModelRecord struct {
	ID          string `db:"id" json:"id" yaml:"id" validate:"required"`
	Slug        string `db:"slug" json:"slug" yaml:"slug" validate:"required,slug"`
	Title       string `db:"title" json:"title" yaml:"title" validate:"required"`
	Description string `db:"description" json:"description" yaml:"description"`
	Category    string `db:"category" json:"category" yaml:"category"`
	Location    string `db:"location" json:"location" yaml:"location"`
	Thumbnail   string `db:"thumbnail" json:"thumbnail" yaml:"thumbnail" validate:"required"`
	ModelPath   string `db:"model_path" json:"modelPath" yaml:"modelPath" validate:"required"`
}

// document is the on-disk shape of a dataset file
type document struct {
	Models []ModelRecord `json:"models" yaml:"models"`
}
