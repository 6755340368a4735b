package model

// Product is the parent product line an installable version belongs to.
type Product struct {
	ID       int64  `json:"id"`
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
}

// Version is one installable artifact of a product, addressed by label.
type Version struct {
	ID        int64  `json:"id"`
	ProductID int64  `json:"product_id"`
	Label     string `json:"label"`
	Title     string `json:"title,omitempty"`
	Hidden    bool   `json:"hidden,omitempty"`
}

// Plan is an ordered list of installable steps for a product version.
type Plan struct {
	ID        int64      `json:"id"`
	VersionID int64      `json:"version_id"`
	Slug      string     `json:"slug"`
	Title     string     `json:"title"`
	Steps     []PlanStep `json:"steps"`
}

type PlanStep struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Job records a single plan-installation attempt with per-step results.
type Job struct {
	ID          int64        `json:"id"`
	PlanID      int64        `json:"plan_id"`
	Status      string       `json:"status"`
	UserCanEdit bool         `json:"user_can_edit"`
	Public      bool         `json:"is_public"`
	ShareURL    string       `json:"share_url,omitempty"`
	Results     []StepResult `json:"results"`
	Created     string       `json:"created"`
	Modified    string       `json:"modified,omitempty"`
}

type StepResult struct {
	StepName  string   `json:"step_name"`
	Succeeded bool     `json:"succeeded"`
	Errors    []string `json:"errors,omitempty"`
}

// JobPatch is a partial job update; nil fields are left unchanged.
type JobPatch struct {
	Public *bool `json:"is_public,omitempty"`
}

// User is the authenticated viewer; a nil *User means signed out.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// JobContext is the joined payload the job detail view renders from.
type JobContext struct {
	Job     Job     `json:"job"`
	Plan    Plan    `json:"plan"`
	Version Version `json:"version"`
	Product Product `json:"product"`
}
