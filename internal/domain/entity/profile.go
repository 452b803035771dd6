package entity

// User is the request-scoped user profile. Field names mirror the feature
// names the towers were trained on.
type User struct {
	UserID          string  `json:"user_id" validate:"required"`
	Gender          int     `json:"user_gender"`
	ZipCode         string  `json:"user_zip_code"`
	BucketizedAge   float64 `json:"user_bucketized_age"`
	OccupationLabel int     `json:"user_occupation_label"`
}

// Features flattens the profile into the named-input shape the models
// expect. Empty fields pass through untouched; what a model does with a
// missing feature is the model's business.
func (u User) Features() map[string]any {
	return map[string]any{
		"user_id":               u.UserID,
		"user_gender":           float64(u.Gender),
		"user_zip_code":         u.ZipCode,
		"user_bucketized_age":   u.BucketizedAge,
		"user_occupation_label": float64(u.OccupationLabel),
	}
}

// Movie is a candidate item. Identity is MovieID; title and year are
// display metadata unless the ranking model consumes them.
type Movie struct {
	MovieID     string `json:"movie_id" validate:"required"`
	Title       string `json:"movie_title"`
	ReleaseYear string `json:"movie_release_year"`
}

func (m Movie) Features() map[string]any {
	return map[string]any{
		"movie_id":           m.MovieID,
		"movie_title":        m.Title,
		"movie_release_year": m.ReleaseYear,
	}
}
